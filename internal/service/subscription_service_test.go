package service

import (
	"context"
	"testing"
	"time"

	"takahub-be/internal/dto"
	"takahub-be/internal/entity"
	"takahub-be/internal/pkg/apperrors"
	"takahub-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(factory *fakeFactory) (agencyId, standardPlanId, customPlanId uuid.UUID) {
	agencyId = uuid.New()
	standardPlanId = uuid.New()
	customPlanId = uuid.New()

	factory.uow.plans.agencies[agencyId] = &entity.Agency{
		Id:             agencyId,
		Name:           "Kibra Waste Collective",
		CollectionDays: []string{"Tuesday", "Friday"},
		County:         "Nairobi",
		IsActive:       true,
	}
	factory.uow.plans.plans[standardPlanId] = &entity.SubscriptionPlan{
		Id:           standardPlanId,
		AgencyId:     agencyId,
		Name:         "Weekly Standard",
		Price:        1000,
		Currency:     "KES",
		DurationDays: 30,
		PlanType:     entity.PlanTypeStandard,
		IsActive:     true,
	}
	factory.uow.plans.plans[customPlanId] = &entity.SubscriptionPlan{
		Id:           customPlanId,
		AgencyId:     agencyId,
		Name:         "Pick Your Days",
		Price:        1500,
		Currency:     "KES",
		DurationDays: 30,
		PlanType:     entity.PlanTypeCustom,
		IsActive:     true,
	}
	return agencyId, standardPlanId, customPlanId
}

func seedUser(factory *fakeFactory) uuid.UUID {
	userId := uuid.New()
	factory.uow.users.users[userId] = &entity.User{
		Id:       userId,
		Email:    "amina@example.com",
		FullName: "Amina Otieno",
		Phone:    "0712345678",
	}
	return userId
}

func TestBuildDraft_StandardPlanTakesAgencyDays(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	agencyId, standardPlanId, _ := seedCatalog(factory)

	draft, err := svc.BuildDraft(context.Background(), uuid.New(), agencyId, standardPlanId, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Tuesday", "Friday"}, draft.CollectionDays)
	assert.Empty(t, draft.CustomCollectionDates)
	assert.Equal(t, 1000.0, draft.Amount)
	assert.Equal(t, "KES", draft.Currency)
}

func TestBuildDraft_StandardPlanIgnoresSubmittedDates(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	agencyId, standardPlanId, _ := seedCatalog(factory)

	dates := []time.Time{time.Now().AddDate(0, 0, 3), time.Now().AddDate(0, 0, 7)}
	draft, err := svc.BuildDraft(context.Background(), uuid.New(), agencyId, standardPlanId, dates)
	require.NoError(t, err)

	assert.Empty(t, draft.CustomCollectionDates)
	assert.Equal(t, []string{"Tuesday", "Friday"}, draft.CollectionDays)
}

func TestBuildDraft_CustomPlanDateValidation(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	agencyId, _, customPlanId := seedCatalog(factory)

	now := time.Now()

	tests := []struct {
		name    string
		dates   []time.Time
		wantErr bool
	}{
		{
			name:  "two distinct dates inside window",
			dates: []time.Time{now.AddDate(0, 0, 3), now.AddDate(0, 0, 10)},
		},
		{
			name:    "only one date",
			dates:   []time.Time{now.AddDate(0, 0, 3)},
			wantErr: true,
		},
		{
			name:    "three dates",
			dates:   []time.Time{now.AddDate(0, 0, 3), now.AddDate(0, 0, 5), now.AddDate(0, 0, 7)},
			wantErr: true,
		},
		{
			name:    "duplicate dates",
			dates:   []time.Time{now.AddDate(0, 0, 3), now.AddDate(0, 0, 3)},
			wantErr: true,
		},
		{
			name:    "date in the past",
			dates:   []time.Time{now.AddDate(0, 0, -1), now.AddDate(0, 0, 3)},
			wantErr: true,
		},
		{
			name:    "date beyond thirty days",
			dates:   []time.Time{now.AddDate(0, 0, 3), now.AddDate(0, 0, 45)},
			wantErr: true,
		},
		{
			name:  "today counts as inside the window",
			dates: []time.Time{now, now.AddDate(0, 0, 30)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft, err := svc.BuildDraft(context.Background(), uuid.New(), agencyId, customPlanId, tc.dates)
			if tc.wantErr {
				var validationErr *apperrors.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, draft.CustomCollectionDates, 2)
		})
	}
}

func TestBuildDraft_RejectsInactivePlan(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	agencyId, standardPlanId, _ := seedCatalog(factory)
	factory.uow.plans.plans[standardPlanId].IsActive = false

	_, err := svc.BuildDraft(context.Background(), uuid.New(), agencyId, standardPlanId, nil)
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBuildDraft_RejectsForeignAgencyPlan(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	_, standardPlanId, _ := seedCatalog(factory)

	_, err := svc.BuildDraft(context.Background(), uuid.New(), uuid.New(), standardPlanId, nil)
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBuildDraft_UnknownPlan(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	agencyId, _, _ := seedCatalog(factory)

	_, err := svc.BuildDraft(context.Background(), uuid.New(), agencyId, uuid.New(), nil)
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestSubscribe_CreatesPendingSubscriptionAndPublishes(t *testing.T) {
	factory := newFakeFactory()
	publisher := &fakeEventPublisher{}
	svc := NewSubscriptionService(factory, publisher, noopLogger{})
	agencyId, standardPlanId, _ := seedCatalog(factory)
	userId := seedUser(factory)

	res, err := svc.Subscribe(context.Background(), userId, &dto.SubscribeRequest{
		AgencyId:      agencyId,
		PlanId:        standardPlanId,
		PaymentMethod: "mpesa",
	})
	require.NoError(t, err)

	assert.Equal(t, string(entity.SubscriptionStatusPending), res.Status)
	assert.Equal(t, string(entity.PaymentStatusPending), res.PaymentStatus)
	assert.Equal(t, 1000.0, res.Amount)

	stored := factory.uow.subs.subs[res.SubscriptionId]
	require.NotNil(t, stored)
	assert.Nil(t, stored.StartDate)
	assert.Nil(t, stored.EndDate)

	assert.Contains(t, publisher.eventTypes(), events.TypeSubscriptionCreated)
}

func TestSubscribe_CustomPlanKeepsDates(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	agencyId, _, customPlanId := seedCatalog(factory)
	userId := seedUser(factory)

	d1 := time.Now().AddDate(0, 0, 5).Format("2006-01-02")
	d2 := time.Now().AddDate(0, 0, 12).Format("2006-01-02")

	res, err := svc.Subscribe(context.Background(), userId, &dto.SubscribeRequest{
		AgencyId:        agencyId,
		PlanId:          customPlanId,
		PaymentMethod:   "mpesa",
		CollectionDates: []string{d1, d2},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{d1, d2}, res.CustomCollectionDates)
	assert.Empty(t, res.CollectionDays)
}

func TestSubscribe_UnknownUser(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	agencyId, standardPlanId, _ := seedCatalog(factory)

	_, err := svc.Subscribe(context.Background(), uuid.New(), &dto.SubscribeRequest{
		AgencyId:      agencyId,
		PlanId:        standardPlanId,
		PaymentMethod: "mpesa",
	})
	var authErr *apperrors.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestActivate_SetsLifetimeOnce(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})

	subId := uuid.New()
	factory.uow.subs.subs[subId] = &entity.Subscription{
		Id:            subId,
		UserId:        uuid.New(),
		Status:        entity.SubscriptionStatusPending,
		PaymentStatus: entity.PaymentStatusProcessing,
		CreatedAt:     time.Now(),
	}

	start := time.Now()
	sub, err := svc.Activate(context.Background(), subId, start, 30)
	require.NoError(t, err)

	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, entity.PaymentStatusCompleted, sub.PaymentStatus)
	require.NotNil(t, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, start.AddDate(0, 0, 30).Unix(), sub.EndDate.Unix())

	// Second activation (duplicate webhook) must not move the dates.
	later, err := svc.Activate(context.Background(), subId, start.AddDate(0, 0, 5), 30)
	require.NoError(t, err)
	assert.Equal(t, sub.EndDate.Unix(), later.EndDate.Unix())
}

func TestMarkPaymentFailed_KeepsSubscriptionPending(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})

	subId := uuid.New()
	factory.uow.subs.subs[subId] = &entity.Subscription{
		Id:            subId,
		Status:        entity.SubscriptionStatusPending,
		PaymentStatus: entity.PaymentStatusProcessing,
		CreatedAt:     time.Now(),
	}

	sub, err := svc.MarkPaymentFailed(context.Background(), subId)
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentStatusFailed, sub.PaymentStatus)
	assert.Equal(t, entity.SubscriptionStatusPending, sub.Status, "a failed charge must leave the subscription retryable")
}

func TestCancelSubscription(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})

	userId := uuid.New()
	subId := uuid.New()
	start := time.Now().AddDate(0, 0, -5)
	end := start.AddDate(0, 0, 30)
	factory.uow.subs.subs[subId] = &entity.Subscription{
		Id:        subId,
		UserId:    userId,
		Status:    entity.SubscriptionStatusActive,
		StartDate: &start,
		EndDate:   &end,
		CreatedAt: time.Now(),
	}

	require.NoError(t, svc.CancelSubscription(context.Background(), userId))
	assert.Equal(t, entity.SubscriptionStatusCancelled, factory.uow.subs.subs[subId].Status)

	// Nothing active left to cancel.
	err := svc.CancelSubscription(context.Background(), userId)
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestGetStatus_PrefersRunningSubscription(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})
	_, standardPlanId, _ := seedCatalog(factory)

	userId := uuid.New()

	oldStart := time.Now().AddDate(0, 0, -10)
	oldEnd := oldStart.AddDate(0, 0, 30)
	activeId := uuid.New()
	factory.uow.subs.subs[activeId] = &entity.Subscription{
		Id:        activeId,
		UserId:    userId,
		PlanId:    standardPlanId,
		Status:    entity.SubscriptionStatusActive,
		StartDate: &oldStart,
		EndDate:   &oldEnd,
		CreatedAt: time.Now().AddDate(0, 0, -10),
	}
	pendingId := uuid.New()
	factory.uow.subs.subs[pendingId] = &entity.Subscription{
		Id:        pendingId,
		UserId:    userId,
		Status:    entity.SubscriptionStatusPending,
		CreatedAt: time.Now(),
	}

	res, err := svc.GetStatus(context.Background(), userId)
	require.NoError(t, err)

	assert.Equal(t, activeId, res.SubscriptionId)
	assert.True(t, res.IsActive)
	assert.Equal(t, "Weekly Standard", res.PlanName)
}

func TestGetStatus_NoSubscriptions(t *testing.T) {
	factory := newFakeFactory()
	svc := NewSubscriptionService(factory, nil, noopLogger{})

	_, err := svc.GetStatus(context.Background(), uuid.New())
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

package service

import (
	"context"
	"time"

	"takahub-be/internal/dto"
	"takahub-be/internal/entity"
	"takahub-be/internal/pkg/apperrors"
	"takahub-be/internal/pkg/logger"
	"takahub-be/internal/repository/specification"
	"takahub-be/internal/repository/unitofwork"
	"takahub-be/pkg/events"

	"github.com/google/uuid"
)

// EventPublisher is what the services need from the NATS publisher. Tests
// substitute a recording fake.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ISubscriptionService interface {
	GetPlans(ctx context.Context, agencyId uuid.UUID) ([]*dto.PlanResponse, error)
	BuildDraft(ctx context.Context, userId, agencyId, planId uuid.UUID, dates []time.Time) (*entity.SubscriptionDraft, error)
	Subscribe(ctx context.Context, userId uuid.UUID, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error)
	Activate(ctx context.Context, subscriptionId uuid.UUID, startDate time.Time, durationDays int) (*entity.Subscription, error)
	MarkPaymentFailed(ctx context.Context, subscriptionId uuid.UUID) (*entity.Subscription, error)
	CancelSubscription(ctx context.Context, userId uuid.UUID) error
	GetStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error)
}

type subscriptionService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher EventPublisher
	log            logger.ILogger
}

func NewSubscriptionService(uowFactory unitofwork.RepositoryFactory, eventPublisher EventPublisher, log logger.ILogger) ISubscriptionService {
	return &subscriptionService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *subscriptionService) GetPlans(ctx context.Context, agencyId uuid.UUID) ([]*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plans, err := uow.PlanRepository().FindAllPlans(ctx,
		specification.ByAgency{AgencyID: agencyId},
		specification.ActiveOnly{},
		specification.OrderBy{Field: "price", Desc: false},
	)
	if err != nil {
		return nil, apperrors.NewPersistence("plan listing", err)
	}

	res := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		res = append(res, &dto.PlanResponse{
			Id:           p.Id,
			AgencyId:     p.AgencyId,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			Currency:     p.Currency,
			DurationDays: p.DurationDays,
			PlanType:     string(p.PlanType),
			Features:     p.Features,
		})
	}
	return res, nil
}

// BuildDraft validates the user's plan choice and date selection and produces
// the subscription creation request. It has no side effects beyond catalog
// reads; nothing is persisted until Subscribe commits the draft.
func (s *subscriptionService) BuildDraft(ctx context.Context, userId, agencyId, planId uuid.UUID, dates []time.Time) (*entity.SubscriptionDraft, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	catalog := uow.PlanRepository()

	plan, err := catalog.FindOnePlan(ctx, specification.ByID{ID: planId})
	if err != nil {
		return nil, apperrors.NewPersistence("plan lookup", err)
	}
	if plan == nil {
		return nil, apperrors.NewNotFound("plan", planId.String())
	}
	if !plan.IsActive {
		return nil, apperrors.NewValidation("plan %s is no longer offered", plan.Name)
	}
	if plan.AgencyId != agencyId {
		return nil, apperrors.NewValidation("plan does not belong to the selected agency")
	}

	draft := &entity.SubscriptionDraft{
		UserId:   userId,
		AgencyId: agencyId,
		PlanId:   plan.Id,
		Amount:   plan.Price,
		Currency: plan.Currency,
	}

	if plan.PlanType == entity.PlanTypeCustom {
		validated, err := validateCustomDates(dates, time.Now())
		if err != nil {
			return nil, err
		}
		draft.CustomCollectionDates = validated
		return draft, nil
	}

	// Standard plans ignore any submitted dates and take the agency's fixed
	// pickup schedule.
	agency, err := catalog.FindAgency(ctx, agencyId)
	if err != nil {
		return nil, apperrors.NewPersistence("agency lookup", err)
	}
	if agency == nil {
		return nil, apperrors.NewNotFound("agency", agencyId.String())
	}
	draft.CollectionDays = agency.CollectionDays
	return draft, nil
}

func validateCustomDates(dates []time.Time, now time.Time) ([]time.Time, error) {
	if len(dates) != entity.CustomDateCount {
		return nil, apperrors.NewValidation("custom plans require exactly %d collection dates, got %d",
			entity.CustomDateCount, len(dates))
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	latest := today.AddDate(0, 0, entity.CustomDateWindowDays)

	seen := make(map[string]bool, len(dates))
	validated := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
		key := day.Format("2006-01-02")
		if seen[key] {
			return nil, apperrors.NewValidation("collection dates must be distinct, %s repeats", key)
		}
		seen[key] = true
		if day.Before(today) {
			return nil, apperrors.NewValidation("collection date %s is in the past", key)
		}
		if day.After(latest) {
			return nil, apperrors.NewValidation("collection date %s is more than %d days out",
				key, entity.CustomDateWindowDays)
		}
		validated = append(validated, day)
	}
	return validated, nil
}

func (s *subscriptionService) Subscribe(ctx context.Context, userId uuid.UUID, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, apperrors.NewPersistence("user lookup", err)
	}
	if user == nil {
		return nil, apperrors.NewAuthentication("no identified user for subscription request")
	}

	dates, err := parseCollectionDates(req.CollectionDates)
	if err != nil {
		return nil, err
	}

	draft, err := s.BuildDraft(ctx, userId, req.AgencyId, req.PlanId, dates)
	if err != nil {
		return nil, err
	}

	sub := &entity.Subscription{
		Id:                    uuid.New(),
		UserId:                draft.UserId,
		AgencyId:              draft.AgencyId,
		PlanId:                draft.PlanId,
		Status:                entity.SubscriptionStatusPending,
		PaymentStatus:         entity.PaymentStatusPending,
		PaymentMethod:         req.PaymentMethod,
		Amount:                draft.Amount,
		Currency:              draft.Currency,
		CollectionDays:        draft.CollectionDays,
		CustomCollectionDates: draft.CustomCollectionDates,
		Metadata:              map[string]interface{}{},
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}

	if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
		return nil, apperrors.NewPersistence("subscription create", err)
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeSubscriptionCreated,
			Data: map[string]interface{}{
				"subscription_id": sub.Id,
				"user_id":         userId,
				"agency_id":       sub.AgencyId,
				"plan_id":         sub.PlanId,
				"amount":          sub.Amount,
				"currency":        sub.Currency,
				"occurred_at":     time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("SUBSCRIPTION", "failed to publish subscription created event", map[string]interface{}{
				"subscription_id": sub.Id,
				"error":           err.Error(),
			})
		}
	}

	return &dto.SubscribeResponse{
		SubscriptionId:        sub.Id,
		Status:                string(sub.Status),
		PaymentStatus:         string(sub.PaymentStatus),
		Amount:                sub.Amount,
		Currency:              sub.Currency,
		CollectionDays:        sub.CollectionDays,
		CustomCollectionDates: formatCollectionDates(sub.CustomCollectionDates),
	}, nil
}

func parseCollectionDates(values []string) ([]time.Time, error) {
	if len(values) == 0 {
		return nil, nil
	}
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, apperrors.NewValidation("collection date %q is not a valid date", v)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func formatCollectionDates(dates []time.Time) []string {
	if len(dates) == 0 {
		return nil
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

// Activate is the only transition that sets the subscription's lifetime.
// Calling it again on an already-active subscription is a no-op so duplicate
// verification callbacks cannot re-date a running subscription.
func (s *subscriptionService) Activate(ctx context.Context, subscriptionId uuid.UUID, startDate time.Time, durationDays int) (*entity.Subscription, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SubscriptionRepository()

	sub, err := repo.FindOne(ctx, specification.ByID{ID: subscriptionId})
	if err != nil {
		return nil, apperrors.NewPersistence("subscription lookup", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFound("subscription", subscriptionId.String())
	}
	if sub.IsActivated() {
		return sub, nil
	}

	endDate := startDate.AddDate(0, 0, durationDays)
	sub.Status = entity.SubscriptionStatusActive
	sub.PaymentStatus = entity.PaymentStatusCompleted
	sub.StartDate = &startDate
	sub.EndDate = &endDate
	sub.UpdatedAt = time.Now()

	if err := repo.Update(ctx, sub); err != nil {
		return nil, apperrors.NewPersistence("subscription activate", err)
	}

	s.log.Info("SUBSCRIPTION", "subscription activated", map[string]interface{}{
		"subscription_id": sub.Id,
		"start_date":      startDate,
		"end_date":        endDate,
	})
	return sub, nil
}

// MarkPaymentFailed records a definite payment failure. The subscription stays
// pending so the user can retry payment without re-selecting a plan.
func (s *subscriptionService) MarkPaymentFailed(ctx context.Context, subscriptionId uuid.UUID) (*entity.Subscription, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SubscriptionRepository()

	sub, err := repo.FindOne(ctx, specification.ByID{ID: subscriptionId})
	if err != nil {
		return nil, apperrors.NewPersistence("subscription lookup", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFound("subscription", subscriptionId.String())
	}

	sub.PaymentStatus = entity.PaymentStatusFailed
	sub.UpdatedAt = time.Now()

	if err := repo.Update(ctx, sub); err != nil {
		return nil, apperrors.NewPersistence("subscription update", err)
	}
	return sub, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SubscriptionRepository()

	subs, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return apperrors.NewPersistence("subscription lookup", err)
	}

	var active *entity.Subscription
	for _, sub := range subs {
		if sub.Status == entity.SubscriptionStatusActive {
			active = sub
			break
		}
	}
	if active == nil {
		return apperrors.NewNotFound("active subscription", "")
	}

	active.Status = entity.SubscriptionStatusCancelled
	active.UpdatedAt = time.Now()
	if err := repo.Update(ctx, active); err != nil {
		return apperrors.NewPersistence("subscription cancel", err)
	}
	return nil
}

func (s *subscriptionService) GetStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	subs, err := uow.SubscriptionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperrors.NewPersistence("subscription lookup", err)
	}
	if len(subs) == 0 {
		return nil, apperrors.NewNotFound("subscription", "")
	}

	// Prefer the most recent running subscription; fall back to the latest row
	// so a pending/failed payment is still visible to the client.
	current := subs[0]
	for _, sub := range subs {
		if sub.Status == entity.SubscriptionStatusActive && sub.EndDate != nil && sub.EndDate.After(time.Now()) {
			current = sub
			break
		}
	}

	planName := ""
	if plan, err := uow.PlanRepository().FindOnePlan(ctx, specification.ByID{ID: current.PlanId}); err == nil && plan != nil {
		planName = plan.Name
	}

	return &dto.SubscriptionStatusResponse{
		SubscriptionId: current.Id,
		PlanName:       planName,
		Status:         string(current.Status),
		PaymentStatus:  string(current.PaymentStatus),
		StartDate:      current.StartDate,
		EndDate:        current.EndDate,
		IsActive:       current.Status == entity.SubscriptionStatusActive && current.EndDate != nil && current.EndDate.After(time.Now()),
	}, nil
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type PaymentStatus string
type PlanType string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"

	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"

	PlanTypeStandard PlanType = "standard"
	PlanTypeCustom   PlanType = "custom"
)

// CustomDateCount is how many pickup dates a custom plan must carry, and
// CustomDateWindowDays how far ahead each of them may be scheduled.
const (
	CustomDateCount      = 2
	CustomDateWindowDays = 30
)

type SubscriptionPlan struct {
	Id           uuid.UUID
	AgencyId     uuid.UUID
	Name         string
	Description  string
	Price        float64
	Currency     string
	DurationDays int
	PlanType     PlanType
	Features     []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Agency struct {
	Id             uuid.UUID
	Name           string
	CollectionDays []string // fixed weekly pickup days for standard plans
	County         string
	IsActive       bool
}

type Subscription struct {
	Id                    uuid.UUID
	UserId                uuid.UUID
	AgencyId              uuid.UUID
	PlanId                uuid.UUID
	Status                SubscriptionStatus
	PaymentStatus         PaymentStatus
	PaymentMethod         string
	Amount                float64
	Currency              string
	CollectionDays        []string
	CustomCollectionDates []time.Time // present only for custom plans
	StartDate             *time.Time
	EndDate               *time.Time
	Metadata              map[string]interface{}
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsActivated reports whether the activation transition already ran.
// StartDate and EndDate are only ever set together by that transition.
func (s *Subscription) IsActivated() bool {
	return s.Status == SubscriptionStatusActive && s.StartDate != nil && s.EndDate != nil
}

// SubscriptionDraft is the validated output of the request builder. It carries
// everything CreateSubscription needs and has no identity yet.
type SubscriptionDraft struct {
	UserId                uuid.UUID
	AgencyId              uuid.UUID
	PlanId                uuid.UUID
	Amount                float64
	Currency              string
	CollectionDays        []string
	CustomCollectionDates []time.Time
}

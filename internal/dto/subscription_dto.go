package dto

import (
	"time"

	"github.com/google/uuid"
)

type PlanResponse struct {
	Id           uuid.UUID `json:"id"`
	AgencyId     uuid.UUID `json:"agency_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	DurationDays int       `json:"duration_days"`
	PlanType     string    `json:"plan_type"`
	Features     []string  `json:"features"`
}

type SubscribeRequest struct {
	AgencyId      uuid.UUID `json:"agency_id" validate:"required"`
	PlanId        uuid.UUID `json:"plan_id" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required"`
	// CollectionDates ("2006-01-02") is required for custom plans only.
	CollectionDates []string `json:"collection_dates" validate:"omitempty,dive,datetime=2006-01-02"`
}

type SubscribeResponse struct {
	SubscriptionId        uuid.UUID `json:"subscription_id"`
	Status                string    `json:"status"`
	PaymentStatus         string    `json:"payment_status"`
	Amount                float64   `json:"amount"`
	Currency              string    `json:"currency"`
	CollectionDays        []string  `json:"collection_days,omitempty"`
	CustomCollectionDates []string  `json:"custom_collection_dates,omitempty"`
}

type SubscriptionStatusResponse struct {
	SubscriptionId uuid.UUID  `json:"subscription_id"`
	PlanName       string     `json:"plan_name"`
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	IsActive       bool       `json:"is_active"`
}

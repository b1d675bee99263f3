package dto

import (
	"github.com/google/uuid"
)

type CustomerDetails struct {
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Name        string `json:"name" validate:"required"`
}

type InitiatePaymentRequest struct {
	SubscriptionId uuid.UUID              `json:"subscription_id" validate:"required"`
	Amount         float64                `json:"amount" validate:"omitempty,gt=0"`
	Currency       string                 `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod  string                 `json:"payment_method" validate:"required"`
	Provider       string                 `json:"provider"`
	Customer       CustomerDetails        `json:"customer" validate:"required"`
	Metadata       map[string]interface{} `json:"metadata"`
}

type InitiatePaymentResponse struct {
	CheckoutUrl string `json:"checkout_url"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
}

// VerifyPaymentRequest polls for the outcome of the latest payment attempt.
// Reference is optional; when set it must name that attempt.
type VerifyPaymentRequest struct {
	Reference      string    `json:"reference" validate:"omitempty"`
	SubscriptionId uuid.UUID `json:"subscription_id" validate:"required"`
}

type VerifyPaymentResponse struct {
	Success        bool                   `json:"success"`
	IsSuccessful   bool                   `json:"is_successful"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Message        string                 `json:"message"`
	SubscriptionId uuid.UUID              `json:"subscription_id"`
}

// PaymentReceiptMessage rides the in-process pubsub from the verifier to the
// receipt mailer.
type PaymentReceiptMessage struct {
	Email     string  `json:"email"`
	PlanName  string  `json:"plan_name"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Reference string  `json:"reference"`
}

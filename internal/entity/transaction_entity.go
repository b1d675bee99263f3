package entity

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// PaymentTransaction records one attempt to collect payment for a subscription.
// Rows are never deleted; they are the audit trail of every charge attempt.
type PaymentTransaction struct {
	Id                uuid.UUID
	SubscriptionId    uuid.UUID
	UserId            uuid.UUID
	Amount            float64
	Currency          string
	PaymentMethod     string
	PaymentProvider   string
	ProviderReference *string
	CheckoutUrl       *string
	Status            TransactionStatus
	ProviderResponse  map[string]interface{}
	VerifiedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsTerminal reports whether the transaction reached a final outcome.
// Terminal transactions absorb further updates as no-ops.
func (t *PaymentTransaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// CanTransitionTo enforces the forward-only status machine:
// pending -> processing -> {completed, failed}. Pending may also jump straight
// to a terminal outcome when the gateway answers synchronously.
func (t *PaymentTransaction) CanTransitionTo(next TransactionStatus) bool {
	if t.IsTerminal() {
		return false
	}
	switch t.Status {
	case TransactionStatusPending:
		return next == TransactionStatusProcessing ||
			next == TransactionStatusCompleted ||
			next == TransactionStatusFailed
	case TransactionStatusProcessing:
		return next == TransactionStatusCompleted || next == TransactionStatusFailed
	}
	return false
}

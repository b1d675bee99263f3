package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySubscription filters payment transactions by their funding subscription.
type BySubscription struct {
	SubscriptionID uuid.UUID
}

func (s BySubscription) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id = ?", s.SubscriptionID)
}

// ByProviderReference filters transactions by the gateway's reference.
type ByProviderReference struct {
	Reference string
}

func (s ByProviderReference) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("provider_reference = ?", s.Reference)
}

// OpenTransactions matches transactions still awaiting a terminal outcome.
// Mirrors the predicate of the uniq_payment_transactions_open partial index.
type OpenTransactions struct{}

func (s OpenTransactions) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []string{"pending", "processing"})
}

// ByAgency filters plans by the agency that owns them.
type ByAgency struct {
	AgencyID uuid.UUID
}

func (s ByAgency) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("agency_id = ?", s.AgencyID)
}

// ActiveOnly filters records carrying an is_active flag.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

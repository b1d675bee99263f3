package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaymentTransaction rows are append-mostly: status only moves forward and
// terminal rows are never touched again. The partial unique index
// uniq_payment_transactions_open (created in cmd/migrate) allows at most one
// open (pending/processing) transaction per subscription, which is what makes
// get-or-create idempotent under concurrent initiation requests.
type PaymentTransaction struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubscriptionId    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId            uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount            float64   `gorm:"type:decimal(10,2);not null"`
	Currency          string    `gorm:"type:varchar(3);not null"`
	PaymentMethod     string    `gorm:"type:varchar(50);not null"`
	PaymentProvider   string    `gorm:"type:varchar(50);not null"`
	ProviderReference *string   `gorm:"type:varchar(255);index"`
	CheckoutUrl       *string   `gorm:"type:text"`
	Status            string    `gorm:"type:varchar(50);not null"`
	ProviderResponse  datatypes.JSON `gorm:"type:jsonb"`
	VerifiedAt        *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

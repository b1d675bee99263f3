package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubscriptionPlan struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AgencyId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name         string         `gorm:"type:varchar(255);not null"`
	Description  string         `gorm:"type:text"`
	Price        float64        `gorm:"type:decimal(10,2);not null"`
	Currency     string         `gorm:"type:varchar(3);not null;default:'KES'"`
	DurationDays int            `gorm:"not null"`
	PlanType     string         `gorm:"type:varchar(20);not null;default:'standard'"`
	Features     datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	IsActive     bool           `gorm:"default:true"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

type Agency struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string         `gorm:"type:varchar(255);not null"`
	CollectionDays datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	County         string         `gorm:"type:varchar(255)"`
	IsActive       bool           `gorm:"default:true"`
}

func (Agency) TableName() string {
	return "agencies"
}

type UserSubscription struct {
	Id                    uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                uuid.UUID      `gorm:"type:uuid;not null;index"`
	AgencyId              uuid.UUID      `gorm:"type:uuid;not null;index"`
	PlanId                uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status                string         `gorm:"type:varchar(50);not null"`
	PaymentStatus         string         `gorm:"type:varchar(50);not null"`
	PaymentMethod         string         `gorm:"type:varchar(50)"`
	Amount                float64        `gorm:"type:decimal(10,2);not null"`
	Currency              string         `gorm:"type:varchar(3);not null"`
	CollectionDays        datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	CustomCollectionDates datatypes.JSON `gorm:"type:jsonb"`
	StartDate             *time.Time
	EndDate               *time.Time
	Metadata              datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt             time.Time      `gorm:"autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

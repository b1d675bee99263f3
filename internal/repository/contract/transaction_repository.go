package contract

import (
	"context"

	"takahub-be/internal/entity"
	"takahub-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TransactionRepository interface {
	// Create inserts a new transaction. When another open transaction already
	// exists for the same subscription, the partial unique index rejects the
	// insert and Create returns ErrDuplicateOpenTransaction.
	Create(ctx context.Context, transaction *entity.PaymentTransaction) error
	Update(ctx context.Context, transaction *entity.PaymentTransaction) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentTransaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentTransaction, error)
	// FindOpenBySubscription returns the most recent pending/processing
	// transaction for a subscription, or nil when none is outstanding.
	FindOpenBySubscription(ctx context.Context, subscriptionId uuid.UUID) (*entity.PaymentTransaction, error)
}

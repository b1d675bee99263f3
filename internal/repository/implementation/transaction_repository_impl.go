package implementation

import (
	"context"
	"errors"

	"takahub-be/internal/entity"
	"takahub-be/internal/mapper"
	"takahub-be/internal/model"
	"takahub-be/internal/repository/contract"
	"takahub-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TransactionMapper
}

func NewTransactionRepository(db *gorm.DB) contract.TransactionRepository {
	return &TransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTransactionMapper(),
	}
}

func (r *TransactionRepositoryImpl) Create(ctx context.Context, transaction *entity.PaymentTransaction) error {
	m := r.mapper.ToModel(transaction)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrDuplicateOpenTransaction
		}
		return err
	}
	*transaction = *r.mapper.ToEntity(m)
	return nil
}

func (r *TransactionRepositoryImpl) Update(ctx context.Context, transaction *entity.PaymentTransaction) error {
	m := r.mapper.ToModel(transaction)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*transaction = *r.mapper.ToEntity(m)
	return nil
}

func (r *TransactionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentTransaction, error) {
	var m model.PaymentTransaction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TransactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentTransaction, error) {
	var models []*model.PaymentTransaction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.PaymentTransaction, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *TransactionRepositoryImpl) FindOpenBySubscription(ctx context.Context, subscriptionId uuid.UUID) (*entity.PaymentTransaction, error) {
	return r.FindOne(ctx,
		specification.BySubscription{SubscriptionID: subscriptionId},
		specification.OpenTransactions{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}

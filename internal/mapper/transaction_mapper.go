package mapper

import (
	"takahub-be/internal/entity"
	"takahub-be/internal/model"
)

type TransactionMapper struct{}

func NewTransactionMapper() *TransactionMapper {
	return &TransactionMapper{}
}

func (m *TransactionMapper) ToEntity(t *model.PaymentTransaction) *entity.PaymentTransaction {
	if t == nil {
		return nil
	}
	return &entity.PaymentTransaction{
		Id:                t.Id,
		SubscriptionId:    t.SubscriptionId,
		UserId:            t.UserId,
		Amount:            t.Amount,
		Currency:          t.Currency,
		PaymentMethod:     t.PaymentMethod,
		PaymentProvider:   t.PaymentProvider,
		ProviderReference: t.ProviderReference,
		CheckoutUrl:       t.CheckoutUrl,
		Status:            entity.TransactionStatus(t.Status),
		ProviderResponse:  decodeMap(t.ProviderResponse),
		VerifiedAt:        t.VerifiedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func (m *TransactionMapper) ToModel(t *entity.PaymentTransaction) *model.PaymentTransaction {
	if t == nil {
		return nil
	}
	return &model.PaymentTransaction{
		Id:                t.Id,
		SubscriptionId:    t.SubscriptionId,
		UserId:            t.UserId,
		Amount:            t.Amount,
		Currency:          t.Currency,
		PaymentMethod:     t.PaymentMethod,
		PaymentProvider:   t.PaymentProvider,
		ProviderReference: t.ProviderReference,
		CheckoutUrl:       t.CheckoutUrl,
		Status:            string(t.Status),
		ProviderResponse:  encodeMap(t.ProviderResponse),
		VerifiedAt:        t.VerifiedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

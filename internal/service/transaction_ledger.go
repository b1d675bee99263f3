package service

import (
	"context"
	"errors"
	"time"

	"takahub-be/internal/entity"
	"takahub-be/internal/pkg/apperrors"
	"takahub-be/internal/pkg/logger"
	"takahub-be/internal/repository/contract"
	"takahub-be/internal/repository/specification"
	"takahub-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ErrTransactionTerminal is returned when a caller tries to advance a
// transaction that already reached completed or failed.
var ErrTransactionTerminal = errors.New("payment transaction already terminal")

// ITransactionLedger is the idempotency boundary for payment attempts. While a
// transaction for a subscription is open (pending/processing), repeated
// initiation requests get that same transaction back instead of a duplicate.
type ITransactionLedger interface {
	GetOrCreatePending(ctx context.Context, subscriptionId, userId uuid.UUID, amount float64, currency, method, provider string) (*entity.PaymentTransaction, error)
	RecordGatewayAccepted(ctx context.Context, transactionId uuid.UUID, providerReference, checkoutUrl string, rawResponse map[string]interface{}) error
	MarkTerminal(ctx context.Context, transactionId uuid.UUID, outcome entity.TransactionStatus, rawResponse map[string]interface{}) (*entity.PaymentTransaction, error)
}

type transactionLedger struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewTransactionLedger(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ITransactionLedger {
	return &transactionLedger{
		uowFactory: uowFactory,
		log:        log,
	}
}

func (l *transactionLedger) GetOrCreatePending(ctx context.Context, subscriptionId, userId uuid.UUID, amount float64, currency, method, provider string) (*entity.PaymentTransaction, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	repo := uow.TransactionRepository()

	open, err := repo.FindOpenBySubscription(ctx, subscriptionId)
	if err != nil {
		return nil, apperrors.NewPersistence("transaction lookup", err)
	}
	if open != nil {
		return open, nil
	}

	tx := &entity.PaymentTransaction{
		Id:              uuid.New(),
		SubscriptionId:  subscriptionId,
		UserId:          userId,
		Amount:          amount,
		Currency:        currency,
		PaymentMethod:   method,
		PaymentProvider: provider,
		Status:          entity.TransactionStatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	err = repo.Create(ctx, tx)
	if errors.Is(err, contract.ErrDuplicateOpenTransaction) {
		// Lost a race against a concurrent initiation; the unique index kept
		// exactly one open row. Use the winner.
		open, lookupErr := repo.FindOpenBySubscription(ctx, subscriptionId)
		if lookupErr != nil {
			return nil, apperrors.NewPersistence("transaction lookup after conflict", lookupErr)
		}
		if open == nil {
			return nil, apperrors.NewPersistence("transaction create", err)
		}
		return open, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistence("transaction create", err)
	}
	return tx, nil
}

func (l *transactionLedger) RecordGatewayAccepted(ctx context.Context, transactionId uuid.UUID, providerReference, checkoutUrl string, rawResponse map[string]interface{}) error {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	repo := uow.TransactionRepository()

	tx, err := repo.FindOne(ctx, specification.ByID{ID: transactionId})
	if err != nil {
		return apperrors.NewPersistence("transaction lookup", err)
	}
	if tx == nil {
		return apperrors.NewNotFound("transaction", transactionId.String())
	}
	if !tx.CanTransitionTo(entity.TransactionStatusProcessing) {
		// The gateway call already happened and cannot be unwound; surface the
		// conflict instead of silently overwriting a terminal row.
		return ErrTransactionTerminal
	}

	tx.Status = entity.TransactionStatusProcessing
	tx.ProviderReference = &providerReference
	tx.CheckoutUrl = &checkoutUrl
	tx.ProviderResponse = rawResponse
	tx.UpdatedAt = time.Now()

	if err := repo.Update(ctx, tx); err != nil {
		return apperrors.NewPersistence("transaction update", err)
	}
	return nil
}

func (l *transactionLedger) MarkTerminal(ctx context.Context, transactionId uuid.UUID, outcome entity.TransactionStatus, rawResponse map[string]interface{}) (*entity.PaymentTransaction, error) {
	if outcome != entity.TransactionStatusCompleted && outcome != entity.TransactionStatusFailed {
		return nil, apperrors.NewValidation("outcome %q is not terminal", outcome)
	}

	uow := l.uowFactory.NewUnitOfWork(ctx)
	repo := uow.TransactionRepository()

	tx, err := repo.FindOne(ctx, specification.ByID{ID: transactionId})
	if err != nil {
		return nil, apperrors.NewPersistence("transaction lookup", err)
	}
	if tx == nil {
		return nil, apperrors.NewNotFound("transaction", transactionId.String())
	}
	if tx.IsTerminal() {
		// Duplicate webhook or concurrent poll; the first terminal write wins.
		l.log.Info("LEDGER", "skipping terminal update on settled transaction", map[string]interface{}{
			"transaction_id": transactionId,
			"status":         tx.Status,
			"requested":      outcome,
		})
		return tx, nil
	}

	tx.Status = outcome
	if rawResponse != nil {
		tx.ProviderResponse = rawResponse
	}
	if outcome == entity.TransactionStatusCompleted {
		now := time.Now()
		tx.VerifiedAt = &now
	}
	tx.UpdatedAt = time.Now()

	if err := repo.Update(ctx, tx); err != nil {
		return nil, apperrors.NewPersistence("transaction update", err)
	}
	return tx, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"takahub-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreatePending_CreatesNewTransaction(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	subId := uuid.New()
	userId := uuid.New()

	tx, err := ledger.GetOrCreatePending(context.Background(), subId, userId, 1000, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, entity.TransactionStatusPending, tx.Status)
	assert.Equal(t, subId, tx.SubscriptionId)
	assert.Equal(t, userId, tx.UserId)
	assert.Equal(t, 1000.0, tx.Amount)
	assert.Equal(t, "KES", tx.Currency)
}

func TestGetOrCreatePending_ReusesOpenTransaction(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	subId := uuid.New()
	userId := uuid.New()

	first, err := ledger.GetOrCreatePending(context.Background(), subId, userId, 1000, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)

	second, err := ledger.GetOrCreatePending(context.Background(), subId, userId, 1000, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id, "repeated initiation must reuse the open transaction")
	assert.Len(t, factory.uow.txs.txs, 1)
}

func TestGetOrCreatePending_NewTransactionAfterTerminal(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	subId := uuid.New()
	userId := uuid.New()

	first, err := ledger.GetOrCreatePending(context.Background(), subId, userId, 1000, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)

	_, err = ledger.MarkTerminal(context.Background(), first.Id, entity.TransactionStatusFailed, nil)
	require.NoError(t, err)

	second, err := ledger.GetOrCreatePending(context.Background(), subId, userId, 1000, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)

	assert.NotEqual(t, first.Id, second.Id, "a settled attempt must not block a retry")
	assert.Len(t, factory.uow.txs.txs, 2)
}

func TestRecordGatewayAccepted_MovesToProcessing(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	tx, err := ledger.GetOrCreatePending(context.Background(), uuid.New(), uuid.New(), 500, "KES", "card", "paystack")
	require.NoError(t, err)

	err = ledger.RecordGatewayAccepted(context.Background(), tx.Id, "ps_ref_1", "https://checkout.test/x", map[string]interface{}{"status": true})
	require.NoError(t, err)

	stored := factory.uow.txs.txs[tx.Id]
	assert.Equal(t, entity.TransactionStatusProcessing, stored.Status)
	require.NotNil(t, stored.ProviderReference)
	assert.Equal(t, "ps_ref_1", *stored.ProviderReference)
	require.NotNil(t, stored.CheckoutUrl)
	assert.Equal(t, "https://checkout.test/x", *stored.CheckoutUrl)
}

func TestRecordGatewayAccepted_RejectsTerminalTransaction(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	tx, err := ledger.GetOrCreatePending(context.Background(), uuid.New(), uuid.New(), 500, "KES", "card", "paystack")
	require.NoError(t, err)

	_, err = ledger.MarkTerminal(context.Background(), tx.Id, entity.TransactionStatusCompleted, nil)
	require.NoError(t, err)

	err = ledger.RecordGatewayAccepted(context.Background(), tx.Id, "late_ref", "https://late", nil)
	assert.ErrorIs(t, err, ErrTransactionTerminal)
}

func TestMarkTerminal_SetsVerifiedAtOnCompletion(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	tx, err := ledger.GetOrCreatePending(context.Background(), uuid.New(), uuid.New(), 500, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)

	before := time.Now()
	settled, err := ledger.MarkTerminal(context.Background(), tx.Id, entity.TransactionStatusCompleted, map[string]interface{}{"status": "successful"})
	require.NoError(t, err)

	assert.Equal(t, entity.TransactionStatusCompleted, settled.Status)
	require.NotNil(t, settled.VerifiedAt)
	assert.False(t, settled.VerifiedAt.Before(before))
}

func TestMarkTerminal_TerminalStateIsSticky(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	tx, err := ledger.GetOrCreatePending(context.Background(), uuid.New(), uuid.New(), 500, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)

	_, err = ledger.MarkTerminal(context.Background(), tx.Id, entity.TransactionStatusCompleted, nil)
	require.NoError(t, err)

	// A late failure webhook must not flip the settled outcome.
	settled, err := ledger.MarkTerminal(context.Background(), tx.Id, entity.TransactionStatusFailed, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusCompleted, settled.Status)
}

func TestMarkTerminal_RejectsNonTerminalOutcome(t *testing.T) {
	factory := newFakeFactory()
	ledger := NewTransactionLedger(factory, noopLogger{})

	tx, err := ledger.GetOrCreatePending(context.Background(), uuid.New(), uuid.New(), 500, "KES", "mpesa", "flutterwave")
	require.NoError(t, err)

	_, err = ledger.MarkTerminal(context.Background(), tx.Id, entity.TransactionStatusProcessing, nil)
	assert.Error(t, err)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"takahub-be/internal/dto"
	"takahub-be/internal/entity"
	"takahub-be/internal/pkg/apperrors"
	"takahub-be/internal/pkg/logger"
	"takahub-be/internal/repository/specification"
	"takahub-be/internal/repository/unitofwork"
	"takahub-be/pkg/events"
	"takahub-be/pkg/payment"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ReceiptTopic carries settled-payment notifications from the verifier to the
// receipt mailer.
const ReceiptTopic = "payment.receipts"

type IPaymentService interface {
	InitiatePayment(ctx context.Context, userId uuid.UUID, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
	VerifyPayment(ctx context.Context, subscriptionId uuid.UUID, reference string) (*dto.VerifyPaymentResponse, error)
	HandleWebhook(ctx context.Context, provider string, body []byte, signature string) error
}

type paymentService struct {
	uowFactory      unitofwork.RepositoryFactory
	ledger          ITransactionLedger
	subscriptions   ISubscriptionService
	registry        *payment.Registry
	eventPublisher  EventPublisher
	receiptProducer message.Publisher
	callbackBaseURL string
	log             logger.ILogger
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	ledger ITransactionLedger,
	subscriptions ISubscriptionService,
	registry *payment.Registry,
	eventPublisher EventPublisher,
	receiptProducer message.Publisher,
	callbackBaseURL string,
	log logger.ILogger,
) IPaymentService {
	return &paymentService{
		uowFactory:      uowFactory,
		ledger:          ledger,
		subscriptions:   subscriptions,
		registry:        registry,
		eventPublisher:  eventPublisher,
		receiptProducer: receiptProducer,
		callbackBaseURL: callbackBaseURL,
		log:             log,
	}
}

// InitiatePayment starts (or resumes) collection for a pending subscription.
// Repeated calls while a gateway attempt is outstanding return the original
// checkout URL instead of opening a second charge.
func (s *paymentService) InitiatePayment(ctx context.Context, userId uuid.UUID, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.ByID{ID: req.SubscriptionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, apperrors.NewPersistence("subscription lookup", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFound("subscription", req.SubscriptionId.String())
	}
	if sub.IsActivated() {
		return nil, apperrors.NewValidation("subscription is already paid and active")
	}
	// Clients may echo the amount for display; when they do it must match what
	// the subscription actually charges.
	if req.Amount != 0 && math.Abs(req.Amount-sub.Amount) > 0.009 {
		return nil, apperrors.NewValidation("amount %.2f does not match the subscription charge of %.2f %s",
			req.Amount, sub.Amount, sub.Currency)
	}

	gateway, err := s.registry.Resolve(req.Provider, req.PaymentMethod)
	if err != nil {
		return nil, apperrors.NewValidation("%s", err.Error())
	}

	tx, err := s.ledger.GetOrCreatePending(ctx, sub.Id, userId, sub.Amount, sub.Currency, req.PaymentMethod, gateway.Name())
	if err != nil {
		return nil, err
	}

	if tx.Status == entity.TransactionStatusProcessing && tx.CheckoutUrl != nil {
		// A gateway attempt is already outstanding; hand back the same
		// checkout session.
		s.log.Info("PAYMENT", "reusing open payment attempt", map[string]interface{}{
			"subscription_id": sub.Id,
			"transaction_id":  tx.Id,
		})
		return &dto.InitiatePaymentResponse{
			CheckoutUrl: *tx.CheckoutUrl,
			Reference:   merchantReference(tx.Id),
			Status:      string(tx.Status),
		}, nil
	}

	reference := merchantReference(tx.Id)
	metadata := map[string]interface{}{
		"subscription_id": sub.Id.String(),
		"transaction_id":  tx.Id.String(),
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	initRes, err := gateway.Initiate(ctx, &payment.InitiateRequest{
		Reference: reference,
		Amount:    sub.Amount,
		Currency:  sub.Currency,
		Customer: payment.Customer{
			Email: req.Customer.Email,
			Phone: req.Customer.PhoneNumber,
			Name:  req.Customer.Name,
		},
		RedirectURL: s.completionURL(sub.Id),
		Metadata:    metadata,
	})
	if err != nil {
		if _, recordErr := s.ledger.MarkTerminal(ctx, tx.Id, entity.TransactionStatusFailed, nil); recordErr != nil {
			s.log.Error("PAYMENT", "failed to record gateway rejection", map[string]interface{}{
				"transaction_id": tx.Id,
				"error":          recordErr.Error(),
			})
		}
		return nil, providerError(gateway.Name(), err)
	}

	if err := s.ledger.RecordGatewayAccepted(ctx, tx.Id, initRes.ProviderReference, initRes.CheckoutUrl, initRes.RawResponse); err != nil {
		return nil, err
	}

	sub.PaymentStatus = entity.PaymentStatusProcessing
	sub.PaymentMethod = req.PaymentMethod
	if sub.Metadata == nil {
		sub.Metadata = map[string]interface{}{}
	}
	sub.Metadata["last_transaction_id"] = tx.Id.String()
	sub.Metadata["payment_provider"] = gateway.Name()
	sub.UpdatedAt = time.Now()
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, apperrors.NewPersistence("subscription update", err)
	}

	s.log.Info("PAYMENT", "payment initiated", map[string]interface{}{
		"subscription_id": sub.Id,
		"transaction_id":  tx.Id,
		"provider":        gateway.Name(),
		"reference":       reference,
	})

	return &dto.InitiatePaymentResponse{
		CheckoutUrl: initRes.CheckoutUrl,
		Reference:   reference,
		Status:      string(entity.TransactionStatusProcessing),
	}, nil
}

// completionURL is where the gateway sends the customer once checkout
// finishes. The completion endpoint bridges back into the app's deep link.
func (s *paymentService) completionURL(subscriptionId uuid.UUID) string {
	if s.callbackBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/payment/complete?subscription_id=%s", s.callbackBaseURL, subscriptionId)
}

// VerifyPayment asks the authoritative gateway for the latest transaction's
// outcome and settles local state accordingly. Safe to call any number of
// times; terminal transactions short-circuit without a gateway round trip.
// A non-empty reference must name the latest transaction, so a stale client
// cannot trigger verification of an attempt it never started.
func (s *paymentService) VerifyPayment(ctx context.Context, subscriptionId uuid.UUID, reference string) (*dto.VerifyPaymentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	txs, err := uow.TransactionRepository().FindAll(ctx,
		specification.BySubscription{SubscriptionID: subscriptionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 1, Offset: 0},
	)
	if err != nil {
		return nil, apperrors.NewPersistence("transaction lookup", err)
	}
	if len(txs) == 0 {
		return nil, apperrors.NewNotFound("payment transaction for subscription", subscriptionId.String())
	}
	tx := txs[0]

	if reference != "" && !referenceMatches(tx, reference) {
		return nil, apperrors.NewValidation("reference %s does not match the latest payment attempt", reference)
	}

	if tx.IsTerminal() {
		return &dto.VerifyPaymentResponse{
			Success:        true,
			IsSuccessful:   tx.Status == entity.TransactionStatusCompleted,
			Data:           tx.ProviderResponse,
			Message:        terminalMessage(tx.Status),
			SubscriptionId: subscriptionId,
		}, nil
	}

	gateway, err := s.registry.Get(tx.PaymentProvider)
	if err != nil {
		return nil, apperrors.NewValidation("%s", err.Error())
	}

	// Every adapter verifies by our merchant reference, which all three
	// providers accept as the transaction lookup key.
	result, err := gateway.Verify(ctx, merchantReference(tx.Id))
	if err != nil {
		return nil, providerError(gateway.Name(), err)
	}

	if result.Pending {
		// Provider has not settled yet. Leave everything untouched so
		// whichever of webhook or poll settles first writes the outcome.
		return &dto.VerifyPaymentResponse{
			Success:        true,
			IsSuccessful:   false,
			Data:           result.RawResponse,
			Message:        "payment is still being processed, try again shortly",
			SubscriptionId: subscriptionId,
		}, nil
	}

	if result.IsSuccessful {
		return s.settleSuccess(ctx, tx, result.RawResponse)
	}
	return s.settleFailure(ctx, tx, result.RawResponse)
}

func (s *paymentService) settleSuccess(ctx context.Context, tx *entity.PaymentTransaction, raw map[string]interface{}) (*dto.VerifyPaymentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: tx.SubscriptionId})
	if err != nil {
		return nil, apperrors.NewPersistence("subscription lookup", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFound("subscription", tx.SubscriptionId.String())
	}

	// The plan's duration decides the subscription lifetime, so it must be
	// resolved before anything is settled. Failing here leaves the
	// transaction open and the next webhook or poll retries settlement.
	plan, err := uow.PlanRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
	if err != nil {
		return nil, apperrors.NewPersistence("plan lookup", err)
	}
	if plan == nil {
		return nil, apperrors.NewNotFound("plan", sub.PlanId.String())
	}

	settled, err := s.ledger.MarkTerminal(ctx, tx.Id, entity.TransactionStatusCompleted, raw)
	if err != nil {
		return nil, err
	}

	if _, err := s.subscriptions.Activate(ctx, tx.SubscriptionId, time.Now(), plan.DurationDays); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypePaymentCompleted, map[string]interface{}{
		"subscription_id": tx.SubscriptionId,
		"transaction_id":  tx.Id,
		"amount":          tx.Amount,
		"currency":        tx.Currency,
		"provider":        tx.PaymentProvider,
	})
	s.publishEvent(ctx, events.TypeSubscriptionActivated, map[string]interface{}{
		"subscription_id": tx.SubscriptionId,
		"user_id":         tx.UserId,
		"duration_days":   plan.DurationDays,
	})
	s.queueReceipt(ctx, tx, plan.Name)

	return &dto.VerifyPaymentResponse{
		Success:        true,
		IsSuccessful:   true,
		Data:           settled.ProviderResponse,
		Message:        "payment confirmed, subscription is active",
		SubscriptionId: tx.SubscriptionId,
	}, nil
}

func (s *paymentService) settleFailure(ctx context.Context, tx *entity.PaymentTransaction, raw map[string]interface{}) (*dto.VerifyPaymentResponse, error) {
	settled, err := s.ledger.MarkTerminal(ctx, tx.Id, entity.TransactionStatusFailed, raw)
	if err != nil {
		return nil, err
	}

	if _, err := s.subscriptions.MarkPaymentFailed(ctx, tx.SubscriptionId); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TypePaymentFailed, map[string]interface{}{
		"subscription_id": tx.SubscriptionId,
		"transaction_id":  tx.Id,
		"provider":        tx.PaymentProvider,
	})

	return &dto.VerifyPaymentResponse{
		Success:        true,
		IsSuccessful:   false,
		Data:           settled.ProviderResponse,
		Message:        "payment not confirmed",
		SubscriptionId: tx.SubscriptionId,
	}, nil
}

// HandleWebhook authenticates and applies a provider notification. The
// signature check belongs to the adapter; resolution and settlement reuse the
// same verification path the polling endpoint takes, so both arrival orders
// converge on the same state.
func (s *paymentService) HandleWebhook(ctx context.Context, provider string, body []byte, signature string) error {
	gateway, err := s.registry.Get(provider)
	if err != nil {
		return apperrors.NewNotFound("payment provider", provider)
	}

	evt, err := gateway.ParseWebhook(body, signature)
	if err != nil {
		return apperrors.NewAuthentication("webhook rejected: %s", err.Error())
	}

	subscriptionId, err := s.resolveWebhookSubscription(ctx, evt)
	if err != nil {
		return err
	}

	s.log.Info("PAYMENT", "webhook received", map[string]interface{}{
		"provider":        provider,
		"reference":       evt.Reference,
		"subscription_id": subscriptionId,
	})

	_, err = s.VerifyPayment(ctx, subscriptionId, evt.Reference)
	return err
}

func (s *paymentService) resolveWebhookSubscription(ctx context.Context, evt *payment.WebhookEvent) (uuid.UUID, error) {
	if evt.SubscriptionId != "" {
		id, err := uuid.Parse(evt.SubscriptionId)
		if err == nil {
			return id, nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	tx, err := uow.TransactionRepository().FindOne(ctx,
		specification.ByProviderReference{Reference: evt.Reference},
	)
	if err != nil {
		return uuid.Nil, apperrors.NewPersistence("transaction lookup", err)
	}
	if tx == nil {
		return uuid.Nil, apperrors.NewNotFound("transaction for reference", evt.Reference)
	}
	return tx.SubscriptionId, nil
}

func (s *paymentService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	err := s.eventPublisher.Publish(ctx, events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	})
	if err != nil {
		s.log.Warn("PAYMENT", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func (s *paymentService) queueReceipt(ctx context.Context, tx *entity.PaymentTransaction, planName string) {
	if s.receiptProducer == nil {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: tx.UserId})
	if err != nil || user == nil || user.Email == "" {
		s.log.Warn("PAYMENT", "no recipient for payment receipt", map[string]interface{}{
			"transaction_id": tx.Id,
		})
		return
	}

	payload, err := json.Marshal(dto.PaymentReceiptMessage{
		Email:     user.Email,
		PlanName:  planName,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Reference: merchantReference(tx.Id),
	})
	if err != nil {
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.receiptProducer.Publish(ReceiptTopic, msg); err != nil {
		s.log.Warn("PAYMENT", "failed to queue receipt email", map[string]interface{}{
			"transaction_id": tx.Id,
			"error":          err.Error(),
		})
	}
}

func terminalMessage(status entity.TransactionStatus) string {
	if status == entity.TransactionStatusCompleted {
		return "payment confirmed, subscription is active"
	}
	return "payment not confirmed"
}

// providerError keeps adapter-typed errors intact and wraps anything else a
// gateway implementation might return.
func providerError(name string, err error) error {
	var pe *apperrors.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return apperrors.NewProvider(name, "gateway call failed", 0, err)
}

// merchantReference derives the reference sent to gateways from the ledger
// transaction id, so a reference always maps back to exactly one row.
func merchantReference(id uuid.UUID) string {
	return fmt.Sprintf("THB-%s", id.String())
}

// referenceMatches accepts either side of the reference pair: the merchant
// reference we sent out, or the provider's own reference recorded when the
// gateway accepted the charge.
func referenceMatches(tx *entity.PaymentTransaction, reference string) bool {
	if reference == merchantReference(tx.Id) {
		return true
	}
	return tx.ProviderReference != nil && *tx.ProviderReference == reference
}

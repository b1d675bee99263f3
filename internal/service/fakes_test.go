package service

import (
	"context"
	"sort"
	"sync"

	"takahub-be/internal/entity"
	"takahub-be/internal/repository/contract"
	"takahub-be/internal/repository/specification"
	"takahub-be/internal/repository/unitofwork"
	"takahub-be/pkg/events"
	"takahub-be/pkg/payment"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// The fakes interpret the same specification values the GORM implementations
// translate to SQL, so service tests exercise real query intent.

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return r.users[byId.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.Id] = user
	return nil
}

type fakePlanRepo struct {
	plans    map[uuid.UUID]*entity.SubscriptionPlan
	agencies map[uuid.UUID]*entity.Agency
}

func (r *fakePlanRepo) FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return r.plans[byId.ID], nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error) {
	var agencyId *uuid.UUID
	activeOnly := false
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByAgency:
			id := s.AgencyID
			agencyId = &id
		case specification.ActiveOnly:
			activeOnly = true
		}
	}

	var out []*entity.SubscriptionPlan
	for _, p := range r.plans {
		if agencyId != nil && p.AgencyId != *agencyId {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (r *fakePlanRepo) FindAgency(ctx context.Context, id uuid.UUID) (*entity.Agency, error) {
	return r.agencies[id], nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*entity.Subscription
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *sub
	r.subs[sub.Id] = &copied
	return nil
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *sub
	r.subs[sub.Id] = &copied
	return nil
}

func (r *fakeSubscriptionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

func (r *fakeSubscriptionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Subscription
	for _, sub := range r.subs {
		match := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				if sub.Id != s.ID {
					match = false
				}
			case specification.UserOwnedBy:
				if sub.UserId != s.UserID {
					match = false
				}
			}
		}
		if match {
			copied := *sub
			out = append(out, &copied)
		}
	}
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "created_at" && order.Desc {
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		}
	}
	return out, nil
}

type fakeTransactionRepo struct {
	mu  sync.Mutex
	txs map[uuid.UUID]*entity.PaymentTransaction
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *entity.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.SubscriptionId == tx.SubscriptionId && !existing.IsTerminal() {
			return contract.ErrDuplicateOpenTransaction
		}
	}
	copied := *tx
	r.txs[tx.Id] = &copied
	return nil
}

func (r *fakeTransactionRepo) Update(ctx context.Context, tx *entity.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *tx
	r.txs[tx.Id] = &copied
	return nil
}

func (r *fakeTransactionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentTransaction, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

func (r *fakeTransactionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.PaymentTransaction
	for _, tx := range r.txs {
		match := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				if tx.Id != s.ID {
					match = false
				}
			case specification.BySubscription:
				if tx.SubscriptionId != s.SubscriptionID {
					match = false
				}
			case specification.ByProviderReference:
				if tx.ProviderReference == nil || *tx.ProviderReference != s.Reference {
					match = false
				}
			case specification.OpenTransactions:
				if tx.IsTerminal() {
					match = false
				}
			}
		}
		if match {
			copied := *tx
			out = append(out, &copied)
		}
	}
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "created_at" && order.Desc {
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		}
	}
	for _, spec := range specs {
		if page, ok := spec.(specification.Pagination); ok && page.Limit > 0 && len(out) > page.Limit {
			out = out[:page.Limit]
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) FindOpenBySubscription(ctx context.Context, subscriptionId uuid.UUID) (*entity.PaymentTransaction, error) {
	return r.FindOne(ctx,
		specification.BySubscription{SubscriptionID: subscriptionId},
		specification.OpenTransactions{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}

type fakeUnitOfWork struct {
	users *fakeUserRepo
	plans *fakePlanRepo
	subs  *fakeSubscriptionRepo
	txs   *fakeTransactionRepo
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository { return u.users }
func (u *fakeUnitOfWork) PlanRepository() contract.PlanRepository { return u.plans }
func (u *fakeUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return u.subs
}
func (u *fakeUnitOfWork) TransactionRepository() contract.TransactionRepository { return u.txs }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		uow: &fakeUnitOfWork{
			users: &fakeUserRepo{users: map[uuid.UUID]*entity.User{}},
			plans: &fakePlanRepo{
				plans:    map[uuid.UUID]*entity.SubscriptionPlan{},
				agencies: map[uuid.UUID]*entity.Agency{},
			},
			subs: &fakeSubscriptionRepo{subs: map[uuid.UUID]*entity.Subscription{}},
			txs:  &fakeTransactionRepo{txs: map[uuid.UUID]*entity.PaymentTransaction{}},
		},
	}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type recordedEvent struct {
	Type string
	Data map[string]interface{}
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakeEventPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: event.EventType(), Data: event.Payload()})
	return nil
}

func (p *fakeEventPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type fakeReceiptPublisher struct {
	mu       sync.Mutex
	messages []*message.Message
}

func (p *fakeReceiptPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *fakeReceiptPublisher) Close() error { return nil }

// fakeGateway is scripted per test: initiate and verify results are set up
// front and calls are counted.
type fakeGateway struct {
	name string

	initiateResponse *payment.InitiateResponse
	initiateErr      error
	initiateCalls    int
	lastInitiate     *payment.InitiateRequest

	verifyResult *payment.VerifyResult
	verifyErr    error
	verifyCalls  int

	webhookEvent *payment.WebhookEvent
	webhookErr   error
}

func (g *fakeGateway) Name() string {
	if g.name == "" {
		return "fakepay"
	}
	return g.name
}

func (g *fakeGateway) Initiate(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResponse, error) {
	g.initiateCalls++
	g.lastInitiate = req
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	return g.initiateResponse, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*payment.VerifyResult, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyResult, nil
}

func (g *fakeGateway) ParseWebhook(body []byte, signature string) (*payment.WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.webhookEvent, nil
}

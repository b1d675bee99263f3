package implementation

import (
	"context"
	"time"

	"takahub-be/internal/entity"
	"takahub-be/internal/repository/contract"
	"takahub-be/internal/repository/specification"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// CachedPlanRepository decorates PlanRepository with a short TTL cache.
// The catalog is read-mostly (plans change when agencies re-price, not per
// request), so single-plan and agency lookups during checkout hit memory.
// List queries stay uncached because specifications vary per call.
type CachedPlanRepository struct {
	inner contract.PlanRepository
	cache *gocache.Cache
}

// planCache is shared process-wide; repositories are rebuilt per unit of work
// and must not each start with a cold cache.
var planCache = gocache.New(5*time.Minute, 10*time.Minute)

func NewCachedPlanRepository(inner contract.PlanRepository) contract.PlanRepository {
	return &CachedPlanRepository{
		inner: inner,
		cache: planCache,
	}
}

func (r *CachedPlanRepository) FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error) {
	if len(specs) == 1 {
		if byId, ok := specs[0].(specification.ByID); ok {
			key := "plan:" + byId.ID.String()
			if cached, found := r.cache.Get(key); found {
				plan := cached.(entity.SubscriptionPlan)
				return &plan, nil
			}
			plan, err := r.inner.FindOnePlan(ctx, specs...)
			if err != nil || plan == nil {
				return plan, err
			}
			r.cache.Set(key, *plan, gocache.DefaultExpiration)
			return plan, nil
		}
	}
	return r.inner.FindOnePlan(ctx, specs...)
}

func (r *CachedPlanRepository) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error) {
	return r.inner.FindAllPlans(ctx, specs...)
}

func (r *CachedPlanRepository) FindAgency(ctx context.Context, id uuid.UUID) (*entity.Agency, error) {
	key := "agency:" + id.String()
	if cached, found := r.cache.Get(key); found {
		agency := cached.(entity.Agency)
		return &agency, nil
	}
	agency, err := r.inner.FindAgency(ctx, id)
	if err != nil || agency == nil {
		return agency, err
	}
	r.cache.Set(key, *agency, gocache.DefaultExpiration)
	return agency, nil
}

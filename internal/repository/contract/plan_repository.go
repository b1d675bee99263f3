package contract

import (
	"context"

	"takahub-be/internal/entity"
	"takahub-be/internal/repository/specification"

	"github.com/google/uuid"
)

// PlanRepository is the read-only plan catalog. Plans are maintained by the
// agency-onboarding collaborators, never written by this service.
type PlanRepository interface {
	FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.SubscriptionPlan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionPlan, error)
	FindAgency(ctx context.Context, id uuid.UUID) (*entity.Agency, error)
}

package contract

import (
	"context"

	"takahub-be/internal/entity"
	"takahub-be/internal/repository/specification"
)

type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
}

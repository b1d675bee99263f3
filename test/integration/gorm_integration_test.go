package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"takahub-be/internal/entity"
	"takahub-be/internal/repository/contract"
	"takahub-be/internal/repository/specification"
	"takahub-be/internal/repository/unitofwork"
	"takahub-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.SubscriptionRepository())
	assert.NotNil(t, uow.TransactionRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Open Transaction Uniqueness", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		user := &entity.User{
			Id:       userId,
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     "user",
			Status:   "active",
		}
		require.NoError(t, uow.UserRepository().Create(ctx, user))

		subId := uuid.New()
		sub := &entity.Subscription{
			Id:            subId,
			UserId:        userId,
			AgencyId:      uuid.New(),
			PlanId:        uuid.New(),
			Status:        entity.SubscriptionStatusPending,
			PaymentStatus: entity.PaymentStatusPending,
			Amount:        1000,
			Currency:      "KES",
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		require.NoError(t, uow.SubscriptionRepository().Create(ctx, sub))

		first := &entity.PaymentTransaction{
			Id:              uuid.New(),
			SubscriptionId:  subId,
			UserId:          userId,
			Amount:          1000,
			Currency:        "KES",
			PaymentMethod:   "mpesa",
			PaymentProvider: "flutterwave",
			Status:          entity.TransactionStatusPending,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		require.NoError(t, uow.TransactionRepository().Create(ctx, first))

		// A second open transaction for the same subscription must hit the
		// partial unique index.
		second := &entity.PaymentTransaction{
			Id:              uuid.New(),
			SubscriptionId:  subId,
			UserId:          userId,
			Amount:          1000,
			Currency:        "KES",
			PaymentMethod:   "mpesa",
			PaymentProvider: "flutterwave",
			Status:          entity.TransactionStatusPending,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		err := uow.TransactionRepository().Create(ctx, second)
		assert.ErrorIs(t, err, contract.ErrDuplicateOpenTransaction)

		// Settling the first row reopens the slot.
		first.Status = entity.TransactionStatusFailed
		require.NoError(t, uow.TransactionRepository().Update(ctx, first))
		assert.NoError(t, uow.TransactionRepository().Create(ctx, second))

		open, err := uow.TransactionRepository().FindOpenBySubscription(ctx, subId)
		require.NoError(t, err)
		require.NotNil(t, open)
		assert.Equal(t, second.Id, open.Id)
	})

	t.Run("Subscription Round Trip", func(t *testing.T) {
		ctx := context.Background()

		subId := uuid.New()
		start := time.Now()
		end := start.AddDate(0, 0, 30)
		sub := &entity.Subscription{
			Id:                    subId,
			UserId:                uuid.New(),
			AgencyId:              uuid.New(),
			PlanId:                uuid.New(),
			Status:                entity.SubscriptionStatusActive,
			PaymentStatus:         entity.PaymentStatusCompleted,
			Amount:                1500,
			Currency:              "KES",
			CustomCollectionDates: []time.Time{start.AddDate(0, 0, 3), start.AddDate(0, 0, 10)},
			StartDate:             &start,
			EndDate:               &end,
			Metadata:              map[string]interface{}{"payment_provider": "paystack"},
			CreatedAt:             time.Now(),
			UpdatedAt:             time.Now(),
		}
		require.NoError(t, uow.SubscriptionRepository().Create(ctx, sub))

		loaded, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: subId})
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, entity.SubscriptionStatusActive, loaded.Status)
		assert.Len(t, loaded.CustomCollectionDates, 2)
		assert.Equal(t, "paystack", loaded.Metadata["payment_provider"])
		require.NotNil(t, loaded.EndDate)
		assert.WithinDuration(t, end, *loaded.EndDate, time.Second)
	})
}

package bootstrap

import (
	"log"

	"takahub-be/internal/config"
	"takahub-be/internal/controller"
	"takahub-be/internal/pkg/logger"
	"takahub-be/internal/pkg/mailer"
	"takahub-be/internal/pkg/serverutils"
	"takahub-be/internal/repository/unitofwork"
	"takahub-be/internal/service"
	"takahub-be/pkg/payment"

	natspkg "takahub-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PaymentController      controller.IPaymentController
	SubscriptionController controller.ISubscriptionController

	// Background services, run from main
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	serverutils.SetJWTSecret(cfg.App.JWTSecret)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// In-process event bus for the receipt pipeline
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS feeds the agency dashboard and notification collaborators. The
	// service stays up without it; events are then dropped with a warning.
	var eventPublisher service.EventPublisher
	natsPub, err := natspkg.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
	}

	// Payment gateways
	registry := payment.NewRegistry(payment.Config{
		SandboxMode:          cfg.Payment.SandboxMode,
		CountryCallingCode:   cfg.Payment.CountryCallingCode,
		FlutterwaveSecretKey: cfg.Payment.FlutterwaveSecretKey,
		PaystackSecretKey:    cfg.Payment.PaystackSecretKey,
		MidtransServerKey:    cfg.Payment.MidtransServerKey,
	}, cfg.Payment.DefaultProvider)

	// Services
	ledger := service.NewTransactionLedger(uowFactory, sysLogger)
	subscriptionService := service.NewSubscriptionService(uowFactory, eventPublisher, sysLogger)
	paymentService := service.NewPaymentService(
		uowFactory,
		ledger,
		subscriptionService,
		registry,
		eventPublisher,
		pubSub,
		cfg.Payment.CallbackBaseURL,
		sysLogger,
	)
	consumerService := service.NewConsumerService(pubSub, service.ReceiptTopic, emailService, sysLogger)

	// Controllers
	paymentController := controller.NewPaymentController(paymentService, subscriptionService, cfg.App.ClientURL, sysLogger)
	subscriptionController := controller.NewSubscriptionController(subscriptionService)

	return &Container{
		PaymentController:      paymentController,
		SubscriptionController: subscriptionController,
		ConsumerService:        consumerService,
		Logger:                 sysLogger,
	}
}

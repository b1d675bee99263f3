package service

import (
	"context"
	"encoding/json"

	"takahub-be/internal/dto"
	"takahub-be/internal/pkg/logger"
	"takahub-be/internal/pkg/mailer"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the receipt topic and sends one email per settled
// payment. Mail delivery is best effort; a payment never fails because SMTP
// was down, but failed sends are nacked so the channel retries them.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	mail      mailer.IEmailService
	log       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	mail mailer.IEmailService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		mail:      mail,
		log:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.PaymentReceiptMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("RECEIPT", "failed to unmarshal receipt message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Malformed payloads never become valid; ack to stop the retry loop.
		msg.Ack()
		return
	}

	if err := cs.mail.SendPaymentReceipt(payload.Email, payload.PlanName, payload.Amount, payload.Currency, payload.Reference); err != nil {
		cs.log.Warn("RECEIPT", "failed to send payment receipt", map[string]interface{}{
			"reference": payload.Reference,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	cs.log.Info("RECEIPT", "payment receipt sent", map[string]interface{}{
		"reference": payload.Reference,
	})
	msg.Ack()
}

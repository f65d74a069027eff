package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	"github.com/swayaa-dev/storefront-backend/pkg/logger"
	"github.com/swayaa-dev/storefront-backend/pkg/mail"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/idempotency"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/payloads"
)

const emailNotificationConsumer = "email-notifications"

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer turns domain events into outgoing emails. Every handled event
// type maps to exactly one message; unknown events are acked and skipped.
type Consumer struct {
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	composer     *Composer
	sender       mail.Sender
	users        userReader
	logg         *logger.Logger
}

// NewConsumer builds the email notification consumer.
func NewConsumer(
	subscription *pubsub.Subscriber,
	manager *idempotency.Manager,
	composer *Composer,
	sender mail.Sender,
	users userReader,
	logg *logger.Logger,
) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if composer == nil {
		return nil, fmt.Errorf("composer required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		idempotency:  manager,
		composer:     composer,
		sender:       sender,
		users:        users,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, emailNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	message, handled, err := c.compose(ctx, eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to compose message", err)
		_ = c.idempotency.Delete(ctx, emailNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if !handled {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	if err := c.sender.Send(ctx, message); err != nil {
		c.logg.Error(logCtx, "failed to send email", err)
		_ = c.idempotency.Delete(ctx, emailNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "recipient", message.To), "notification email sent")
	return processResult{ack: true}
}

func (c *Consumer) compose(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) (mail.Message, bool, error) {
	switch eventType {
	case enums.OutboxEventOrderPlaced:
		var payload payloads.OrderPlacedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return mail.Message{}, false, err
		}
		return c.composer.OrderConfirmation(payload), true, nil

	case enums.OutboxEventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return mail.Message{}, false, err
		}
		user, err := c.users.FindByID(ctx, payload.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return mail.Message{}, false, nil
			}
			return mail.Message{}, false, err
		}
		return c.composer.StatusUpdate(payload, user.Email), true, nil

	case enums.OutboxEventContactMessage:
		var payload payloads.ContactMessageEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return mail.Message{}, false, err
		}
		return c.composer.ContactForward(payload), true, nil

	case enums.OutboxEventUserRegistered:
		var payload payloads.UserRegisteredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return mail.Message{}, false, err
		}
		return c.composer.Welcome(payload), true, nil

	default:
		return mail.Message{}, false, nil
	}
}

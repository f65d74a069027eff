package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
	"github.com/swayaa-dev/storefront-backend/pkg/logger"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service accepts contact form submissions and queues them for delivery.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) error
}

type service struct {
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the contact submission service.
func NewService(tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{tx: tx, outbox: outboxSvc, logg: logg}, nil
}

// Submit records the message as an outbox event. Delivery happens async;
// the caller only learns whether the message was durably queued.
func (s *service) Submit(ctx context.Context, req SubmitRequest) error {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if name == "" || email == "" || subject == "" || message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "all contact fields are required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventContactMessage,
			AggregateType: enums.OutboxAggregateContact,
			AggregateID:   uuid.New(),
			Version:       1,
			Data: payloads.ContactMessageEvent{
				Name:    name,
				Email:   email,
				Subject: subject,
				Message: message,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue contact message")
	}

	if s.logg != nil {
		s.logg.Info(ctx, "contact message queued")
	}
	return nil
}

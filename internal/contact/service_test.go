package contact

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/payloads"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func TestSubmitQueuesContactMessage(t *testing.T) {
	sink := &recordingOutbox{}
	svc, err := NewService(fakeTx{}, sink, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = svc.Submit(context.Background(), SubmitRequest{
		Name:    "  Jamie  ",
		Email:   " Jamie@Example.COM ",
		Subject: "Order question",
		Message: "Where is my tee?",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.EventType != enums.OutboxEventContactMessage {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if event.AggregateType != enums.OutboxAggregateContact {
		t.Fatalf("unexpected aggregate type %s", event.AggregateType)
	}
	payload, ok := event.Data.(payloads.ContactMessageEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.Name != "Jamie" {
		t.Fatalf("name not trimmed: %q", payload.Name)
	}
	if payload.Email != "jamie@example.com" {
		t.Fatalf("email not normalized: %q", payload.Email)
	}
}

func TestSubmitRequiresAllFields(t *testing.T) {
	sink := &recordingOutbox{}
	svc, err := NewService(fakeTx{}, sink, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cases := []SubmitRequest{
		{Email: "a@b.c", Subject: "s", Message: "m"},
		{Name: "n", Subject: "s", Message: "m"},
		{Name: "n", Email: "a@b.c", Message: "m"},
		{Name: "n", Email: "a@b.c", Subject: "s"},
		{Name: "  ", Email: "a@b.c", Subject: "s", Message: "m"},
	}
	for _, req := range cases {
		err := svc.Submit(context.Background(), req)
		if err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
		if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation code, got %s", pkgerrors.As(err).Code())
		}
	}
	if len(sink.events) != 0 {
		t.Fatalf("invalid submissions must not queue events")
	}
}

func TestSubmitSurfacesQueueFailure(t *testing.T) {
	sink := &recordingOutbox{err: errors.New("db down")}
	svc, err := NewService(fakeTx{}, sink, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = svc.Submit(context.Background(), SubmitRequest{
		Name:    "Jamie",
		Email:   "jamie@example.com",
		Subject: "s",
		Message: "m",
	})
	if err == nil {
		t.Fatal("expected error when the queue write fails")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %s", pkgerrors.As(err).Code())
	}
}

package notifications

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/payloads"
)

func TestOrderConfirmation(t *testing.T) {
	composer := NewComposer("support@swayaa.example")
	orderID := uuid.New()

	msg := composer.OrderConfirmation(payloads.OrderPlacedEvent{
		OrderID:     orderID,
		UserEmail:   "buyer@example.com",
		UserName:    "Jamie",
		TotalAmount: decimal.RequireFromString("25.98"),
		Items: []payloads.OrderPlacedItem{
			{ProductName: "Graphic Tee", Quantity: 2, Price: decimal.RequireFromString("12.99")},
		},
	})

	if msg.To != "buyer@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Subject, orderID.String()[:8]) {
		t.Fatalf("subject should carry the short order id: %q", msg.Subject)
	}
	for _, want := range []string{"Jamie", "2x Graphic Tee", "12.99", "Total: 25.98"} {
		if !strings.Contains(msg.TextBody, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.TextBody)
		}
	}
}

func TestStatusUpdate(t *testing.T) {
	composer := NewComposer("support@swayaa.example")
	orderID := uuid.New()

	msg := composer.StatusUpdate(payloads.OrderStatusChangedEvent{
		OrderID:    orderID,
		FromStatus: enums.OrderStatusProcessing,
		ToStatus:   enums.OrderStatusShipped,
	}, "buyer@example.com")

	if msg.To != "buyer@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "shipped") {
		t.Fatalf("subject should name the new status: %q", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "shipped") {
		t.Fatalf("body should name the new status:\n%s", msg.TextBody)
	}
}

func TestContactForwardGoesToInbox(t *testing.T) {
	composer := NewComposer("support@swayaa.example")

	msg := composer.ContactForward(payloads.ContactMessageEvent{
		Name:    "Jamie",
		Email:   "jamie@example.com",
		Subject: "Sizing question",
		Message: "Does the tee run small?",
	})

	if msg.To != "support@swayaa.example" {
		t.Fatalf("contact mail must go to the support inbox, got %q", msg.To)
	}
	if msg.Subject != "[Contact] Sizing question" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	// The sender address is embedded so support can reply.
	if !strings.Contains(msg.TextBody, "jamie@example.com") {
		t.Fatalf("body should carry the sender address:\n%s", msg.TextBody)
	}
}

func TestWelcome(t *testing.T) {
	composer := NewComposer("support@swayaa.example")

	msg := composer.Welcome(payloads.UserRegisteredEvent{
		UserID: uuid.New(),
		Email:  "new@example.com",
		Name:   "Newcomer",
	})

	if msg.To != "new@example.com" {
		t.Fatalf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.TextBody, "Newcomer") {
		t.Fatalf("body should greet the user by name:\n%s", msg.TextBody)
	}
}

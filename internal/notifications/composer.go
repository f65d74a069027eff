package notifications

import (
	"fmt"
	"strings"

	"github.com/swayaa-dev/storefront-backend/pkg/mail"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/payloads"
)

// Composer renders domain events into outgoing emails.
type Composer struct {
	contactInbox string
}

// NewComposer builds a composer. contactInbox receives forwarded contact
// form submissions.
func NewComposer(contactInbox string) *Composer {
	return &Composer{contactInbox: contactInbox}
}

// OrderConfirmation renders the email sent after checkout commits.
func (c *Composer) OrderConfirmation(event payloads.OrderPlacedEvent) mail.Message {
	var lines strings.Builder
	for _, item := range event.Items {
		fmt.Fprintf(&lines, "  %dx %s @ %s\n", item.Quantity, item.ProductName, item.Price.StringFixed(2))
	}

	text := fmt.Sprintf(
		"Hi %s,\n\nThanks for your order!\n\nOrder %s\n%s\nTotal: %s\n\nWe'll let you know when it ships.\n",
		event.UserName,
		event.OrderID,
		lines.String(),
		event.TotalAmount.StringFixed(2),
	)

	return mail.Message{
		To:       event.UserEmail,
		Subject:  fmt.Sprintf("Order confirmation %s", shortID(event.OrderID.String())),
		TextBody: text,
	}
}

// StatusUpdate renders the email sent when an order advances its lifecycle.
func (c *Composer) StatusUpdate(event payloads.OrderStatusChangedEvent, recipient string) mail.Message {
	text := fmt.Sprintf(
		"Your order %s is now %s.\n",
		event.OrderID,
		event.ToStatus,
	)
	return mail.Message{
		To:       recipient,
		Subject:  fmt.Sprintf("Order %s update: %s", shortID(event.OrderID.String()), event.ToStatus),
		TextBody: text,
	}
}

// ContactForward relays a contact form submission to the support inbox.
// Reply-To semantics are emulated by embedding the sender in the body.
func (c *Composer) ContactForward(event payloads.ContactMessageEvent) mail.Message {
	text := fmt.Sprintf(
		"From: %s <%s>\nSubject: %s\n\n%s\n",
		event.Name,
		event.Email,
		event.Subject,
		event.Message,
	)
	return mail.Message{
		To:       c.contactInbox,
		Subject:  fmt.Sprintf("[Contact] %s", event.Subject),
		TextBody: text,
	}
}

// Welcome renders the email sent to freshly registered accounts.
func (c *Composer) Welcome(event payloads.UserRegisteredEvent) mail.Message {
	text := fmt.Sprintf(
		"Hi %s,\n\nWelcome aboard. Your account is ready to use.\n",
		event.Name,
	)
	return mail.Message{
		To:       event.Email,
		Subject:  "Welcome to Swayaa",
		TextBody: text,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package enums

// OutboxEventType enumerates the domain events shipped through the outbox.
type OutboxEventType string

const (
	OutboxEventOrderPlaced        OutboxEventType = "order.placed"
	OutboxEventOrderStatusChanged OutboxEventType = "order.status_changed"
	OutboxEventContactMessage     OutboxEventType = "contact.message"
	OutboxEventUserRegistered     OutboxEventType = "user.registered"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder   OutboxAggregateType = "order"
	OutboxAggregateContact OutboxAggregateType = "contact"
	OutboxAggregateUser    OutboxAggregateType = "user"
)

// OutboxDLQErrorReason classifies why an event landed in the DLQ.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts_exceeded"
	OutboxDLQReasonBadPayload  OutboxDLQErrorReason = "bad_payload"
)

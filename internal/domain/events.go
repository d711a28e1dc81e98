package domain

import "time"

// OutboxEventType classifies side-effect events produced by lifecycle
// transitions. Events are advisory: their dispatch is fire-and-forget
// and never blocks or rolls back the transition that produced them.
type OutboxEventType string

const (
	// EventLateDeliveryReport is raised against the assigned agent when a
	// session is marked performed after the same-day 23:59 cutoff.
	EventLateDeliveryReport OutboxEventType = "late_delivery_report"

	// EventBookingNotification asks the notification layer to inform the
	// involved parties about a lifecycle change.
	EventBookingNotification OutboxEventType = "booking_notification"

	// EventWalletLimitExceeded flags a prepaid confirmation that drove the
	// wallet below the configured negative-balance floor.
	EventWalletLimitExceeded OutboxEventType = "wallet_limit_exceeded"
)

// OutboxEvent is returned by lifecycle operations alongside the mutated
// booking and drained asynchronously by the calling layer.
type OutboxEvent struct {
	Type      OutboxEventType
	BookingID int64
	ClientID  int64
	AgentID   *int64
	Note      string
	CreatedAt time.Time
}

// Package queue defines message payloads exchanged over the message
// broker and the background worker that delivers them.  Platform
// notifications are decoupled from the state transitions that produce
// them: the facade publishes fire-and-forget, the worker delivers with
// its own retry/reconnect behavior, and a delivery failure never rolls
// back a transition.
package queue

import "time"

// NotificationQueueName is the durable queue carrying outbound
// platform notifications.
const NotificationQueueName = "platform.notifications"

// PlatformNotification tells the originating marketplace platform that
// one of its orders changed status.  It carries enough denormalized
// data for the platform callback without another database read.
type PlatformNotification struct {
	OrderID        int       `json:"order_id"`
	PlatformID     string    `json:"platform_id"`
	OrderType      string    `json:"order_type"`
	NewStatus      string    `json:"new_status"`
	PreviousStatus string    `json:"previous_status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

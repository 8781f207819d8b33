package model

import "time"

// EventType tags a broadcast event sent to all connected terminals.
type EventType string

const (
	EventNewSale              EventType = "NEW_SALE"
	EventKitchenOrder         EventType = "KITCHEN_ORDER"
	EventOnlineOrder          EventType = "ONLINE_ORDER"
	EventOrderStatusUpdated   EventType = "ORDER_STATUS_UPDATED"
	EventOrderCancelled       EventType = "ORDER_CANCELLED"
	EventTableUpdated         EventType = "TABLE_UPDATED"
	EventModificationRequest  EventType = "MODIFICATION_REQUEST"
	EventTerminalConnected    EventType = "TERMINAL_CONNECTED"
	EventTerminalDisconnected EventType = "TERMINAL_DISCONNECTED"
)

// Envelope is the wire format of every broadcast.  It exists only in
// transit; nothing stores or replays envelopes.  ActiveTerminals is the
// registry size at the moment of publication, so every recipient of one
// publish sees the same count.
type Envelope struct {
	Type            EventType `json:"type"`
	Data            any       `json:"data"`
	ServerTimestamp time.Time `json:"serverTimestamp"`
	ActiveTerminals int       `json:"activeTerminals"`
}

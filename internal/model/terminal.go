package model

import "time"

// Terminal describes one live point-of-sale device connection.  It is
// process-wide transient state: a record is created on the websocket
// handshake, mutated by heartbeat and TERMINAL_INFO messages, and
// destroyed on disconnect.  Nothing here is persisted; a reconnecting
// terminal starts from a fresh record and re-fetches business state
// through the pull endpoints.
//
// Fields:
//  ID             – terminal identifier (validated or server-generated).
//  Name           – display name reported by the terminal.
//  Location       – location label (e.g. "bar", "kitchen pass").
//  User           – user currently signed in on the device.
//  ConnectedAt    – when the websocket handshake completed.
//  LastActivityAt – last inbound message of any kind.
type Terminal struct {
	ID             string    `json:"terminal_id"`
	Name           string    `json:"name,omitempty"`
	Location       string    `json:"location,omitempty"`
	User           string    `json:"user,omitempty"`
	ConnectedAt    time.Time `json:"connected_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// TerminalInfo carries the optional descriptive fields a terminal may
// report after connecting.  Empty fields are ignored on merge.
type TerminalInfo struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	User     string `json:"user"`
}

package models

import "encoding/json"

// Stream event types pushed by the backend.
const (
	EventInitialData = "initial_data"
	EventDataUpdate  = "data_update"

	// Outbound hint asking the backend to push a fresh snapshot.
	// Fire-and-forget: no acknowledgment contract.
	EventRequestUpdate = "request_update"

	// Synthetic transport transitions, no payload.
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

// StreamEvent is the wire envelope for every message on the stream.
type StreamEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Snapshot is the initial_data payload. Every field is optional: the
// backend may omit unchanged top-level collections even in a "full"
// push, and absence means "unchanged from current cache", never "empty".
// A nil slice is an absent key; a non-nil empty slice is an explicit
// clear. encoding/json preserves exactly this distinction (absent/null
// decode to nil, [] decodes to an empty non-nil slice), so the sparse
// protocol needs no extra presence flags.
//
// Settings stay raw so the settings resolver can distinguish leaves the
// server actually sent from leaves it omitted.
type Snapshot struct {
	Signals   []Signal        `json:"signals"`
	News      []NewsItem      `json:"news"`
	Portfolio *Portfolio      `json:"portfolio"`
	Settings  json.RawMessage `json:"settings,omitempty"`
}

// Update is the data_update payload. Present collections replace the
// cached ones wholesale; absent collections are untouched. Collections
// are never deep-merged field-by-field: the backend always sends a
// complete recomputed collection when anything in it changed.
type Update struct {
	Signals   []Signal   `json:"signals"`
	News      []NewsItem `json:"news"`
	Portfolio *Portfolio `json:"portfolio"`
}

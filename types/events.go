package types

import "encoding/json"

// EventKind classifies an inbound push message after tag normalization.
type EventKind string

// Event kinds. The wire carries a free-form tag; Classify in the dispatch
// package folds insert/update variants into one kind.
const (
	EventGroupedResults  EventKind = "grouped_results"
	EventDetailedResults EventKind = "detailed_results"
	EventElection        EventKind = "election"
	EventRegions         EventKind = "regions"
	EventHeartbeat       EventKind = "heartbeat"
	EventUnknown         EventKind = ""
)

// Envelope is the raw inbound WebSocket message. Producers disagree on the
// tag field name: newer ones send "event", legacy ones send "type". The
// payload likewise arrives under "payload" or "data".
type Envelope struct {
	Event   string          `json:"event"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Data    json.RawMessage `json:"data"`
}

// Tag returns the message tag, preferring the primary field name.
// Empty means neither field was present.
func (e *Envelope) Tag() string {
	if e.Event != "" {
		return e.Event
	}
	return e.Type
}

// Body returns the payload, preferring the primary field name.
func (e *Envelope) Body() json.RawMessage {
	if len(e.Payload) > 0 {
		return e.Payload
	}
	return e.Data
}

// InboundEvent is a classified push message. Constructed per message and
// discarded after dispatch; never stored.
type InboundEvent struct {
	// Kind is the normalized event kind. EventUnknown for unrecognized
	// tags and for malformed payloads delivered as raw text.
	Kind EventKind
	// Tag is the original wire tag, kept for logging.
	Tag string
	// Payload is the opaque type-specific payload.
	Payload json.RawMessage
	// Raw is the unparsed message text when JSON decoding failed.
	Raw []byte
}

// ElectionPayload is the payload of an election event. Active uses a
// pointer so that an explicit false (deactivation) is distinguishable
// from an absent field.
type ElectionPayload struct {
	ElectionID int64 `json:"id_election"`
	Active     *bool `json:"active"`
}

// Deactivated reports whether the payload explicitly carries active=false.
func (p *ElectionPayload) Deactivated() bool {
	return p.Active != nil && !*p.Active
}

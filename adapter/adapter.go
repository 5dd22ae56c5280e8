// Package adapter defines the event relay boundary.
//
// Relays re-publish classified push events to downstream systems (ops
// dashboards, audit trails) so integrations do not need their own socket
// to the results backend. The watch session owns the relay lifecycle;
// users provide configuration only. Relay failures are logged and never
// feed back into the refresh pipeline.
package adapter

import (
	"context"
	"encoding/json"

	"github.com/scrutin-io/scrutin/types"
)

// ElectionEvent is the payload relayed for each classified push event.
type ElectionEvent struct {
	ContractVersion string          `json:"contract_version"`
	Kind            string          `json:"kind"`
	Tag             string          `json:"tag"`
	ElectionID      int64           `json:"id_election,omitempty"`
	ConstituencyID  int64           `json:"id_cir,omitempty"`
	ReceivedAt      string          `json:"received_at"` // ISO 8601
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// NewElectionEvent builds a relay payload from a classified event and the
// current fetch parameters.
func NewElectionEvent(ev types.InboundEvent, p types.Params, receivedAt string) *ElectionEvent {
	return &ElectionEvent{
		ContractVersion: types.Version,
		Kind:            string(ev.Kind),
		Tag:             ev.Tag,
		ElectionID:      p.ElectionID,
		ConstituencyID:  p.ConstituencyID,
		ReceivedAt:      receivedAt,
		Payload:         ev.Payload,
	}
}

// Relay publishes election events to a downstream system.
type Relay interface {
	// Publish sends one event downstream. Must respect context
	// cancellation and deadlines.
	Publish(ctx context.Context, event *ElectionEvent) error

	// Close releases relay resources.
	Close() error
}

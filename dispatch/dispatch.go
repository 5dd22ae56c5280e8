// Package dispatch classifies inbound push messages and maps them to
// refresh intents.
//
// Classification and routing are pure over the message and the current
// parameter snapshot; the only side effects are debug logs and counters.
// Unrecognized tags and heartbeats route to an empty intent list, never
// to an error.
package dispatch

import (
	"encoding/json"

	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/socket"
	"github.com/scrutin-io/scrutin/types"
)

// kindByTag maps known wire tags to event kinds. Insert and update
// variants of a record class fold into the same kind: the client refetches
// either way.
var kindByTag = map[string]types.EventKind{
	"resultats_groupes_insert":   types.EventGroupedResults,
	"resultats_groupes_update":   types.EventGroupedResults,
	"resultats_detailles_insert": types.EventDetailedResults,
	"resultats_detailles_update": types.EventDetailedResults,
	"election_update":            types.EventElection,
	"regions_update":             types.EventRegions,
	"heartbeat":                  types.EventHeartbeat,
	"ping":                       types.EventHeartbeat,
}

// Classify turns a raw delivery into a typed inbound event. Messages with
// neither tag field, and raw-text deliveries from malformed payloads,
// classify as EventUnknown.
func Classify(msg socket.Message) types.InboundEvent {
	if msg.Envelope == nil {
		return types.InboundEvent{Kind: types.EventUnknown, Raw: msg.Raw}
	}
	tag := msg.Envelope.Tag()
	return types.InboundEvent{
		Kind:    kindByTag[tag],
		Tag:     tag,
		Payload: msg.Envelope.Body(),
	}
}

// Router maps classified events to refresh intents.
type Router struct {
	params  func() types.Params
	log     *log.Logger
	metrics *metrics.Collector
}

// NewRouter creates a router. params supplies the current fetch parameters
// (active election, selected scope) at dispatch time.
func NewRouter(params func() types.Params, logger *log.Logger, m *metrics.Collector) *Router {
	return &Router{params: params, log: logger, metrics: m}
}

// Dispatch classifies and routes one delivery.
func (r *Router) Dispatch(msg socket.Message) []types.Intent {
	return r.Route(Classify(msg))
}

// Route returns the refresh intents for one event.
//
// The silent/visible flag is first-class on every intent: background
// refetches triggered by push traffic must not flash loading indicators,
// while election and region list changes are surfaced to the user.
func (r *Router) Route(ev types.InboundEvent) []types.Intent {
	p := r.params()

	switch ev.Kind {
	case types.EventGroupedResults:
		r.metrics.IncEventDispatched(string(ev.Kind))
		return []types.Intent{
			{Target: types.TargetDepartmentResults, Silent: true, Params: p},
			{Target: types.TargetConstituencyTotals, Silent: true, Params: p},
			{Target: types.TargetCandidateRoster, Silent: true, Params: p},
			{Target: types.TargetLocationResults, Silent: true, Params: p},
		}

	case types.EventDetailedResults:
		r.metrics.IncEventDispatched(string(ev.Kind))
		return []types.Intent{
			{Target: types.TargetLocationResults, Silent: true, Params: p},
			{Target: types.TargetDepartmentResults, Silent: true, Params: p},
			{Target: types.TargetConstituencyTotals, Silent: true, Params: p},
		}

	case types.EventElection:
		r.metrics.IncEventDispatched(string(ev.Kind))
		var payload types.ElectionPayload
		if len(ev.Payload) > 0 {
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				r.log.Warn("election payload undecodable, treating as list update", map[string]any{"error": err.Error()})
			}
		}
		if payload.Deactivated() {
			// Hard reset: surfaced to the user, regardless of selection.
			return []types.Intent{{Target: types.TargetReset, Silent: false, Params: p}}
		}
		return []types.Intent{{Target: types.TargetElections, Silent: false, Params: p}}

	case types.EventRegions:
		r.metrics.IncEventDispatched(string(ev.Kind))
		return []types.Intent{{Target: types.TargetRegions, Silent: false, Params: p}}

	case types.EventHeartbeat:
		r.log.Debug("heartbeat", map[string]any{"tag": ev.Tag})
		return nil

	default:
		if ev.Raw != nil {
			r.metrics.IncMalformedEvent()
			r.log.Debug("unparseable message ignored", map[string]any{"raw": string(ev.Raw)})
			return nil
		}
		r.log.Debug("unrecognized event tag", map[string]any{"tag": ev.Tag})
		return nil
	}
}

// SilentRefreshSet is the intent set shared by the push-triggered result
// branches and the polling fallback: every result slice, silently.
func SilentRefreshSet(p types.Params) []types.Intent {
	return []types.Intent{
		{Target: types.TargetDepartmentResults, Silent: true, Params: p},
		{Target: types.TargetConstituencyTotals, Silent: true, Params: p},
		{Target: types.TargetCandidateRoster, Silent: true, Params: p},
		{Target: types.TargetLocationResults, Silent: true, Params: p},
	}
}

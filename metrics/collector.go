// Package metrics provides in-process counters for the scrutin client.
//
// The Collector accumulates counts for the lifetime of one watch session.
// It is a leaf package with no internal dependencies; the TUI footer and
// the final session log line read it through Snapshot.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Push channel
	EventsDispatched int64
	EventsByKind     map[string]int64
	MalformedEvents  int64
	Reconnects       int64

	// Refresh execution
	RefreshesStarted  int64
	RefreshesByTarget map[string]int64
	RefreshesSkipped  int64
	RefreshFailures   int64

	// Polling fallback
	PollTicks int64
}

// Collector accumulates counters. Thread-safe via sync.Mutex; all
// increment methods are nil-receiver safe so wiring it stays optional.
type Collector struct {
	mu sync.Mutex

	eventsDispatched int64
	eventsByKind     map[string]int64
	malformedEvents  int64
	reconnects       int64

	refreshesStarted  int64
	refreshesByTarget map[string]int64
	refreshesSkipped  int64
	refreshFailures   int64

	pollTicks int64
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		eventsByKind:      make(map[string]int64),
		refreshesByTarget: make(map[string]int64),
	}
}

// IncEventDispatched records one classified push event.
func (c *Collector) IncEventDispatched(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventsDispatched++
	c.eventsByKind[kind]++
}

// IncMalformedEvent records one raw-text delivery.
func (c *Collector) IncMalformedEvent() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.malformedEvents++
}

// IncReconnect records one redial attempt.
func (c *Collector) IncReconnect() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
}

// IncRefresh records one started refresh for a target.
func (c *Collector) IncRefresh(target string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshesStarted++
	c.refreshesByTarget[target]++
}

// IncRefreshSkipped records an intent skipped for missing parameters.
func (c *Collector) IncRefreshSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshesSkipped++
}

// IncRefreshFailure records one failed fetch.
func (c *Collector) IncRefreshFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshFailures++
}

// IncPollTick records one polling fallback cycle.
func (c *Collector) IncPollTick() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollTicks++
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{
			EventsByKind:      map[string]int64{},
			RefreshesByTarget: map[string]int64{},
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.eventsByKind))
	for k, v := range c.eventsByKind {
		byKind[k] = v
	}
	byTarget := make(map[string]int64, len(c.refreshesByTarget))
	for k, v := range c.refreshesByTarget {
		byTarget[k] = v
	}

	return Snapshot{
		EventsDispatched:  c.eventsDispatched,
		EventsByKind:      byKind,
		MalformedEvents:   c.malformedEvents,
		Reconnects:        c.reconnects,
		RefreshesStarted:  c.refreshesStarted,
		RefreshesByTarget: byTarget,
		RefreshesSkipped:  c.refreshesSkipped,
		RefreshFailures:   c.refreshFailures,
		PollTicks:         c.pollTicks,
	}
}

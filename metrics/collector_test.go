package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector()

	c.IncEventDispatched("grouped_results")
	c.IncEventDispatched("grouped_results")
	c.IncEventDispatched("regions")
	c.IncMalformedEvent()
	c.IncReconnect()
	c.IncReconnect()
	c.IncRefresh("department_results")
	c.IncRefresh("department_results")
	c.IncRefresh("elections")
	c.IncRefreshSkipped()
	c.IncRefreshFailure()
	c.IncPollTick()
	c.IncPollTick()
	c.IncPollTick()

	s := c.Snapshot()

	if s.EventsDispatched != 3 {
		t.Errorf("EventsDispatched = %d, want 3", s.EventsDispatched)
	}
	if s.EventsByKind["grouped_results"] != 2 {
		t.Errorf("EventsByKind[grouped_results] = %d, want 2", s.EventsByKind["grouped_results"])
	}
	if s.MalformedEvents != 1 {
		t.Errorf("MalformedEvents = %d, want 1", s.MalformedEvents)
	}
	if s.Reconnects != 2 {
		t.Errorf("Reconnects = %d, want 2", s.Reconnects)
	}
	if s.RefreshesStarted != 3 {
		t.Errorf("RefreshesStarted = %d, want 3", s.RefreshesStarted)
	}
	if s.RefreshesByTarget["department_results"] != 2 {
		t.Errorf("RefreshesByTarget[department_results] = %d, want 2", s.RefreshesByTarget["department_results"])
	}
	if s.RefreshesSkipped != 1 {
		t.Errorf("RefreshesSkipped = %d, want 1", s.RefreshesSkipped)
	}
	if s.RefreshFailures != 1 {
		t.Errorf("RefreshFailures = %d, want 1", s.RefreshFailures)
	}
	if s.PollTicks != 3 {
		t.Errorf("PollTicks = %d, want 3", s.PollTicks)
	}
}

func TestCollector_NilReceiverSafe(t *testing.T) {
	var c *Collector

	// None of these may panic; wiring metrics is optional everywhere.
	c.IncEventDispatched("x")
	c.IncMalformedEvent()
	c.IncReconnect()
	c.IncRefresh("x")
	c.IncRefreshSkipped()
	c.IncRefreshFailure()
	c.IncPollTick()

	s := c.Snapshot()
	if s.EventsDispatched != 0 || s.EventsByKind == nil {
		t.Errorf("nil snapshot = %+v, want empty zero snapshot", s)
	}
}

func TestCollector_ConcurrentUse(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.IncEventDispatched("grouped_results")
				c.IncPollTick()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.EventsDispatched != 1000 {
		t.Errorf("EventsDispatched = %d, want 1000", s.EventsDispatched)
	}
	if s.PollTicks != 1000 {
		t.Errorf("PollTicks = %d, want 1000", s.PollTicks)
	}
}

func TestSnapshot_Immutable(t *testing.T) {
	c := NewCollector()
	c.IncEventDispatched("regions")

	s := c.Snapshot()
	s.EventsByKind["regions"] = 99

	if got := c.Snapshot().EventsByKind["regions"]; got != 1 {
		t.Errorf("EventsByKind[regions] = %d, snapshot mutation leaked in", got)
	}
}

// Package refresh executes refresh intents against the data store.
//
// Intents are independent: they run concurrently, with no ordering
// guarantee between them or across batches. Overlapping requests for the
// same target are not deduplicated. The poller and the push path may
// both fire, and the store's wholesale slice replacement makes the last
// response to resolve win. A failed fetch marks its own slice and never
// disturbs its siblings.
package refresh

import (
	"context"
	"errors"
	"sync"

	"github.com/scrutin-io/scrutin/api"
	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/store"
	"github.com/scrutin-io/scrutin/types"
)

// Fetcher is the REST surface the orchestrator needs. *api.Client
// implements it; tests substitute fakes.
type Fetcher interface {
	Elections(ctx context.Context) ([]types.Election, error)
	Regions(ctx context.Context) ([]types.Region, error)
	DepartmentResults(ctx context.Context, p types.Params) (*types.DepartmentResults, error)
	ConstituencyTotals(ctx context.Context, p types.Params) (*types.ConstituencyTotals, error)
	Roster(ctx context.Context, p types.Params) ([]types.Party, error)
	LocationResults(ctx context.Context, department string) ([]types.Locality, error)
}

var _ Fetcher = (*api.Client)(nil)

// Orchestrator maps intents to fetches and store updates.
type Orchestrator struct {
	fetcher Fetcher
	store   *store.Store
	log     *log.Logger
	metrics *metrics.Collector

	// onReset runs extra side effects of the deactivation reset
	// (persisted scope clear, snapshot cache removal). Optional.
	onReset func()
}

// New creates an orchestrator.
func New(fetcher Fetcher, st *store.Store, logger *log.Logger, m *metrics.Collector) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, store: st, log: logger, metrics: m}
}

// OnReset registers the extra reset side effects.
func (o *Orchestrator) OnReset(fn func()) {
	o.onReset = fn
}

// Execute runs all intents concurrently and returns when every one has
// settled. It never returns an error: failures land on the slices.
func (o *Orchestrator) Execute(ctx context.Context, intents []types.Intent) {
	var wg sync.WaitGroup
	for _, intent := range intents {
		wg.Add(1)
		go func(in types.Intent) {
			defer wg.Done()
			o.execute(ctx, in)
		}(intent)
	}
	wg.Wait()
}

// execute runs one intent. Missing prerequisite parameters make it a
// silent skip, never an error.
func (o *Orchestrator) execute(ctx context.Context, in types.Intent) {
	p := in.Params

	switch in.Target {
	case types.TargetReset:
		o.log.Info("election deactivated, resetting state", nil)
		o.store.Reset()
		if o.onReset != nil {
			o.onReset()
		}
		return

	case types.TargetElections:
		o.begin(in)
		elections, err := o.fetcher.Elections(ctx)
		o.finish(in, err, func() { o.store.SetElections(elections) })

	case types.TargetRegions:
		// Region pushes invalidate the cache before the refetch.
		o.store.ClearRegions()
		o.begin(in)
		regions, err := o.fetcher.Regions(ctx)
		o.finish(in, err, func() { o.store.SetRegions(regions) })

	case types.TargetDepartmentResults:
		if p.ElectionID == 0 || p.ConstituencyID == 0 {
			o.skip(in)
			return
		}
		o.begin(in)
		results, err := o.fetcher.DepartmentResults(ctx, p)
		o.finish(in, err, func() { o.store.SetDepartmentResults(results) })

	case types.TargetConstituencyTotals:
		if p.ElectionID == 0 || p.ConstituencyID == 0 {
			o.skip(in)
			return
		}
		o.begin(in)
		totals, err := o.fetcher.ConstituencyTotals(ctx, p)
		o.finish(in, err, func() { o.store.SetConstituencyTotals(totals) })

	case types.TargetCandidateRoster:
		if p.ElectionID == 0 || p.ConstituencyID == 0 {
			o.skip(in)
			return
		}
		o.begin(in)
		roster, err := o.fetcher.Roster(ctx, p)
		o.finish(in, err, func() { o.store.SetRoster(roster) })

	case types.TargetLocationResults:
		if p.Department == "" {
			o.skip(in)
			return
		}
		o.begin(in)
		localities, err := o.fetcher.LocationResults(ctx, p.Department)
		o.finish(in, err, func() { o.store.SetLocalities(localities) })

	default:
		o.log.Warn("unknown refresh target", map[string]any{"target": int(in.Target)})
	}
}

func (o *Orchestrator) begin(in types.Intent) {
	o.metrics.IncRefresh(in.Target.String())
	o.store.BeginLoad(in.Target, in.Silent)
}

func (o *Orchestrator) skip(in types.Intent) {
	o.metrics.IncRefreshSkipped()
	o.log.Debug("refresh skipped, missing parameters", map[string]any{"target": in.Target.String()})
}

// finish applies the store update on success or records the failure.
// Auth failures already fired the logout hook inside the client; here
// they only mark the slice like any other error.
func (o *Orchestrator) finish(in types.Intent, err error, apply func()) {
	if err != nil {
		o.metrics.IncRefreshFailure()
		if errors.Is(err, api.ErrNoToken) || errors.Is(err, api.ErrUnauthorized) {
			o.log.Debug("refresh rejected for authentication", map[string]any{"target": in.Target.String()})
		} else {
			o.log.Warn("refresh failed", map[string]any{"target": in.Target.String(), "error": err.Error()})
		}
		o.store.Fail(in.Target, err)
		return
	}
	apply()
}

package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/scrutin-io/scrutin/dispatch"
	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/types"
)

// DefaultPollInterval is the fixed polling cadence.
const DefaultPollInterval = 15 * time.Second

// Poller re-issues the silent refresh set on a fixed interval, regardless
// of push channel health. It deliberately duplicates the push path:
// redundant network calls are the price of resilience to missed or
// dropped push messages. It runs for the lifetime of the owning view and
// stops on teardown.
type Poller struct {
	interval time.Duration
	orch     *Orchestrator
	params   func() types.Params
	log      *log.Logger
	metrics  *metrics.Collector

	started  bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewPoller creates a poller. interval zero means DefaultPollInterval;
// non-default intervals exist for tests only.
func NewPoller(interval time.Duration, orch *Orchestrator, params func() types.Params, logger *log.Logger, m *metrics.Collector) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval: interval,
		orch:     orch,
		params:   params,
		log:      logger,
		metrics:  m,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	if p.started {
		return
	}
	p.started = true
	go p.run(ctx)
}

// Stop tears the poller down and waits for the loop to drain. No intent
// fires after Stop returns; safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.started {
		<-p.done
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A stop racing a tick must win: teardown means silence.
			select {
			case <-p.stop:
				return
			default:
			}
			p.metrics.IncPollTick()
			p.orch.Execute(ctx, dispatch.SilentRefreshSet(p.params()))
		}
	}
}

// Package session wires one watch session: socket → dispatcher →
// orchestrator → store, with the polling fallback, the persisted
// preferences, the snapshot cache, and the optional event relay and PV
// archiver around it.
//
// The session is the unit the CLI starts and stops; the TUI only reads
// the store and the connection state through it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scrutin-io/scrutin/adapter"
	adapterredis "github.com/scrutin-io/scrutin/adapter/redis"
	adapterwebhook "github.com/scrutin-io/scrutin/adapter/webhook"
	"github.com/scrutin-io/scrutin/api"
	"github.com/scrutin-io/scrutin/archive"
	"github.com/scrutin-io/scrutin/auth"
	"github.com/scrutin-io/scrutin/cache"
	"github.com/scrutin-io/scrutin/cli/config"
	"github.com/scrutin-io/scrutin/dispatch"
	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/prefs"
	"github.com/scrutin-io/scrutin/refresh"
	"github.com/scrutin-io/scrutin/socket"
	"github.com/scrutin-io/scrutin/store"
	"github.com/scrutin-io/scrutin/types"
)

// cacheSaveInterval throttles snapshot writes during busy refresh bursts.
const cacheSaveInterval = 10 * time.Second

// Session owns the live update pipeline for one watch.
type Session struct {
	cfg     *config.Config
	log     *log.Logger
	metrics *metrics.Collector

	store    *store.Store
	prefs    *prefs.Store
	client   *api.Client
	sock     *socket.Manager
	router   *dispatch.Router
	orch     *refresh.Orchestrator
	poller   *refresh.Poller
	relay    adapter.Relay
	archiver *archive.Archiver

	cachePath string

	mu       sync.Mutex
	lastSave time.Time
	onUpdate func()
	onLogout func()
}

// New builds a session from configuration. The store is seeded from the
// persisted preferences and the snapshot cache before any network I/O.
func New(cfg *config.Config, logger *log.Logger, m *metrics.Collector) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		log:     logger,
		metrics: m,
		store:   store.New(),
	}

	prefsPath := cfg.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	p, err := prefs.Open(prefsPath)
	if err != nil {
		return nil, err
	}
	s.prefs = p

	s.cachePath = cfg.CachePath
	if s.cachePath == "" {
		s.cachePath = cache.DefaultPath()
	}

	s.rehydrate()

	client, err := api.New(api.Config{
		BaseURL:        cfg.RESTRoot(),
		Timeout:        cfg.HTTPTimeout.Duration,
		Token:          s.usableToken,
		OnUnauthorized: s.forceLogout,
	}, logger)
	if err != nil {
		return nil, err
	}
	s.client = client

	socketURL, err := cfg.SocketURL()
	if err != nil {
		return nil, err
	}
	s.sock = socket.NewManager(socket.Config{URL: socketURL}, logger, m)

	s.router = dispatch.NewRouter(s.store.Params, logger, m)
	s.orch = refresh.New(client, s.store, logger, m)
	s.orch.OnReset(s.clearPersisted)
	s.poller = refresh.NewPoller(0, s.orch, s.store.Params, logger, m)

	relay, err := newRelay(cfg.Relay)
	if err != nil {
		return nil, err
	}
	s.relay = relay

	if cfg.Archive.Bucket != "" {
		archiver, err := archive.New(context.Background(), archive.Config{
			Bucket:       cfg.Archive.Bucket,
			Prefix:       cfg.Archive.Prefix,
			Region:       cfg.Archive.Region,
			Endpoint:     cfg.Archive.Endpoint,
			UsePathStyle: cfg.Archive.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		s.archiver = archiver
	}

	s.store.OnChange(s.storeChanged)
	return s, nil
}

// newRelay builds the configured event relay, nil when disabled.
func newRelay(cfg config.RelayConfig) (adapter.Relay, error) {
	retries := func() int {
		if cfg.Retries != nil {
			return *cfg.Retries
		}
		return -1
	}

	switch cfg.Type {
	case "":
		return nil, nil
	case "redis":
		c := adapterredis.Config{URL: cfg.URL, Channel: cfg.Channel, Timeout: cfg.Timeout.Duration}
		if r := retries(); r >= 0 {
			c.Retries = r
		} else {
			c.Retries = adapterredis.DefaultRetries
		}
		return adapterredis.New(c)
	case "webhook":
		c := adapterwebhook.Config{URL: cfg.URL, Headers: cfg.Headers, Timeout: cfg.Timeout.Duration}
		if r := retries(); r >= 0 {
			c.Retries = r
		} else {
			c.Retries = adapterwebhook.DefaultRetries
		}
		return adapterwebhook.New(c)
	default:
		return nil, fmt.Errorf("unknown relay type %q", cfg.Type)
	}
}

// rehydrate seeds the store from persisted scope and the snapshot cache.
func (s *Session) rehydrate() {
	scope, err := s.prefs.Scope()
	if err != nil {
		s.log.Warn("persisted scope unreadable", map[string]any{"error": err.Error()})
	} else if !scope.IsZero() {
		s.store.SetScope(scope)
	}

	snap, err := cache.Load(s.cachePath)
	if err != nil {
		s.log.Warn("snapshot cache unreadable", map[string]any{"error": err.Error()})
		return
	}
	if snap == nil || snap.Scope != s.store.Scope() {
		return
	}
	if snap.ActiveElection != nil {
		s.store.SetElections([]types.Election{*snap.ActiveElection})
	}
	if snap.Roster != nil {
		s.store.SetRoster(snap.Roster)
	}
	if snap.DepartmentResults != nil {
		s.store.SetDepartmentResults(snap.DepartmentResults)
	}
	if snap.ConstituencyTotals != nil {
		s.store.SetConstituencyTotals(snap.ConstituencyTotals)
	}
	if snap.Localities != nil {
		s.store.SetLocalities(snap.Localities)
	}
	s.log.Info("store seeded from snapshot cache", map[string]any{"saved_at": snap.SavedAt})
}

// Start connects the push channel, runs the initial visible fetches, and
// launches the polling fallback.
func (s *Session) Start(ctx context.Context) {
	s.sock.OnMessage(func(msg socket.Message) {
		ev := dispatch.Classify(msg)
		intents := s.router.Route(ev)
		if len(intents) > 0 {
			go s.orch.Execute(ctx, intents)
		}
		s.publish(ctx, ev)
	})
	s.sock.Connect()

	s.Refresh(ctx)
	s.poller.Start(ctx)
}

// Refresh kicks a full refetch: the visible elections and regions
// fetches plus the silent result set.
func (s *Session) Refresh(ctx context.Context) {
	go s.orch.Execute(ctx, []types.Intent{
		{Target: types.TargetElections, Params: s.store.Params()},
		{Target: types.TargetRegions, Params: s.store.Params()},
	})
	go s.orch.Execute(ctx, dispatch.SilentRefreshSet(s.store.Params()))
}

// Stop tears the session down: poller first so no intent fires into a
// closing pipeline, then the socket, then a final snapshot save.
func (s *Session) Stop() {
	s.poller.Stop()
	s.sock.Close()
	if s.relay != nil {
		_ = s.relay.Close()
	}
	s.saveSnapshot()
	_ = s.prefs.Close()
}

// publish relays one classified event downstream, off the hot path.
func (s *Session) publish(ctx context.Context, ev types.InboundEvent) {
	if s.relay == nil || ev.Kind == types.EventUnknown || ev.Kind == types.EventHeartbeat {
		return
	}
	event := adapter.NewElectionEvent(ev, s.store.Params(), time.Now().UTC().Format(time.RFC3339))
	go func() {
		if err := s.relay.Publish(ctx, event); err != nil {
			s.log.Warn("event relay failed", map[string]any{"error": err.Error()})
		}
	}()
}

// storeChanged is the single store subscriber: it throttles snapshot
// saves and fans the change out to the view.
func (s *Session) storeChanged() {
	s.mu.Lock()
	due := time.Since(s.lastSave) >= cacheSaveInterval
	if due {
		s.lastSave = time.Now()
	}
	fn := s.onUpdate
	s.mu.Unlock()

	if due {
		s.saveSnapshot()
	}
	if fn != nil {
		fn()
	}
}

func (s *Session) saveSnapshot() {
	v := s.store.Snapshot()
	snap := &cache.Snapshot{
		SavedAt:            time.Now().UTC(),
		Scope:              v.Scope,
		ActiveElection:     v.ActiveElection,
		DepartmentResults:  v.DepartmentResults,
		ConstituencyTotals: v.ConstituencyTotals,
		Roster:             v.Roster,
		Localities:         v.Localities,
	}
	if err := cache.Save(s.cachePath, snap); err != nil {
		s.log.Warn("snapshot save failed", map[string]any{"error": err.Error()})
	}
}

// clearPersisted is the extra work of the deactivation reset: persisted
// state and the snapshot cache go with the in-memory state.
func (s *Session) clearPersisted() {
	if err := s.prefs.Reset(); err != nil {
		s.log.Warn("prefs reset failed", map[string]any{"error": err.Error()})
	}
	if err := cache.Remove(s.cachePath); err != nil {
		s.log.Warn("cache remove failed", map[string]any{"error": err.Error()})
	}
}

// usableToken returns the persisted token, or empty when absent or
// expired so the client short-circuits to the unauthorized path.
func (s *Session) usableToken() string {
	token, err := s.prefs.Token()
	if err != nil {
		s.log.Warn("token unreadable", map[string]any{"error": err.Error()})
		return ""
	}
	if !auth.Usable(token, time.Now()) {
		return ""
	}
	return token
}

// forceLogout clears the persisted token and notifies the view. Fired on
// 401 responses and on the missing-token sentinel.
func (s *Session) forceLogout() {
	if err := s.prefs.Reset(); err != nil {
		s.log.Warn("logout cleanup failed", map[string]any{"error": err.Error()})
	}
	s.mu.Lock()
	fn := s.onLogout
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// OnUpdate registers the view's change subscriber. Last registration wins.
func (s *Session) OnUpdate(fn func()) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// OnLogout registers the forced-logout subscriber. Last registration wins.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = fn
	s.mu.Unlock()
}

// Store exposes the data store for rendering.
func (s *Session) Store() *store.Store { return s.store }

// Metrics exposes the session counters for the footer and the final log line.
func (s *Session) Metrics() *metrics.Collector { return s.metrics }

// ConnectionState reports the push channel state.
func (s *Session) ConnectionState() socket.State { return s.sock.State() }

// SetScope selects a new administrative scope, persists it, and kicks a
// silent refresh of every result slice.
func (s *Session) SetScope(ctx context.Context, scope types.Scope) {
	s.store.SetScope(scope)
	if err := s.prefs.SetScope(scope); err != nil {
		s.log.Warn("scope persist failed", map[string]any{"error": err.Error()})
	}
	go s.orch.Execute(ctx, dispatch.SilentRefreshSet(s.store.Params()))
}

// Login persists a fresh auth token.
func (s *Session) Login(token string) error {
	if !auth.Usable(token, time.Now()) {
		return fmt.Errorf("token is expired or undecodable")
	}
	return s.prefs.SetToken(token)
}

// Package socket owns the persistent push channel to the results backend.
//
// The Manager holds a single WebSocket connection, delivers parsed inbound
// messages to one subscriber, and redials automatically on non-deliberate
// closes: a fixed number of attempts with a fixed delay, no backoff. Once
// the budget is exhausted the Manager settles in StateClosed and stays
// there until a fresh Connect.
//
// Malformed inbound payloads are never dropped: they are delivered to the
// subscriber with Envelope nil and the raw bytes intact, so the dispatcher
// can log them instead of the read loop crashing the subscription.
package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scrutin-io/scrutin/log"
	"github.com/scrutin-io/scrutin/metrics"
	"github.com/scrutin-io/scrutin/types"
)

// Reconnection policy defaults. Fixed constants, not environment-driven;
// the Config fields exist so tests can compress time.
const (
	DefaultRetryAttempts    = 10
	DefaultRetryDelay       = 3 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultReadLimit        = 512 * 1024
)

// Message is one inbound delivery. Envelope is nil when the payload was
// not valid JSON; Raw always holds the original bytes.
type Message struct {
	Envelope *types.Envelope
	Raw      []byte
}

// Config configures the connection manager.
type Config struct {
	// URL is the ws:// or wss:// endpoint (required).
	URL string
	// RetryAttempts is the redial budget after a non-deliberate close.
	RetryAttempts int
	// RetryDelay is the fixed spacing between redial attempts.
	RetryDelay time.Duration
	// HandshakeTimeout bounds the WebSocket handshake.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each outbound write.
	WriteTimeout time.Duration
	// ReadLimit caps inbound message size in bytes.
	ReadLimit int64
}

func (c *Config) applyDefaults() {
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ReadLimit == 0 {
		c.ReadLimit = DefaultReadLimit
	}
}

// Manager owns one WebSocket connection and its retry lifecycle.
// All exported methods are safe for concurrent use and never panic
// across the boundary.
type Manager struct {
	cfg     Config
	log     *log.Logger
	metrics *metrics.Collector

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	deliberate bool
	running    bool
	gen        uint64
	onState    func(State)
	onMessage  func(Message)

	writeMu sync.Mutex

	// Test seams. Production code never touches these.
	sleep func(time.Duration)
	dial  func(url string) (*websocket.Conn, error)
}

// NewManager creates a connection manager. The metrics collector may be
// nil; its increment methods are nil-receiver safe.
func NewManager(cfg Config, logger *log.Logger, m *metrics.Collector) *Manager {
	cfg.applyDefaults()
	mgr := &Manager{
		cfg:     cfg,
		log:     logger,
		metrics: m,
		state:   StateClosed,
		sleep:   time.Sleep,
	}
	mgr.dial = func(url string) (*websocket.Conn, error) {
		dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
		conn, _, err := dialer.Dial(url, nil)
		return conn, err
	}
	return mgr
}

// OnStateChange registers the state subscriber. A single subscriber is
// active at a time; the last registration wins.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// OnMessage registers the message subscriber. A single subscriber is
// active at a time; the last registration wins.
func (m *Manager) OnMessage(fn func(Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = fn
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether Send would currently deliver.
func (m *Manager) IsConnected() bool {
	return m.State() == StateOpen
}

// Connect starts the connection loop. Idempotent: a no-op while a
// connection is already establishing or open.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.deliberate = false
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.setState(StateConnecting)
	go m.run(gen)
}

// Close shuts the connection down deliberately. No redial follows.
func (m *Manager) Close() {
	m.mu.Lock()
	m.deliberate = true
	conn := m.conn
	m.mu.Unlock()

	m.setState(StateClosing)
	if conn != nil {
		_ = conn.Close()
		return
	}
	// No live connection: the run loop (if any) observes deliberate on its
	// next iteration; settle the state here for callers that never dialed.
	m.setState(StateClosed)
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

// Send marshals v and writes it when the connection is open. Outside
// StateOpen it is a deliberate no-op: no error, no queueing. Callers
// treat delivery as fire and forget.
func (m *Manager) Send(v any) {
	m.mu.Lock()
	conn := m.conn
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || conn == nil {
		m.log.Debug("send skipped, connection not open", nil)
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		m.log.Warn("send skipped, payload not marshalable", map[string]any{"error": err.Error()})
		return
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.log.Warn("send failed", map[string]any{"error": err.Error()})
	}
}

// run dials, serves the read loop, and redials within the retry budget.
// The attempt counter resets after every successful open.
//
// gen stamps the loop: a Close while no connection is live leaves the
// loop parked in its retry wait, and a fresh Connect starts a new loop
// under a new generation. The stale loop must exit on wake without
// dialing or touching shared state, or two loops would own the channel.
func (m *Manager) run(gen uint64) {
	defer func() {
		m.mu.Lock()
		if m.gen == gen {
			m.running = false
		}
		m.mu.Unlock()
	}()

	attempts := 0
	for {
		if m.stale(gen) {
			return
		}
		if m.isDeliberate() {
			m.setState(StateClosed)
			return
		}

		conn, err := m.dial(m.cfg.URL)
		if err != nil {
			m.log.Warn("dial failed", map[string]any{"url": m.cfg.URL, "error": err.Error()})
			if !m.awaitRetry(&attempts) {
				if !m.stale(gen) {
					m.setState(StateClosed)
				}
				return
			}
			continue
		}

		attempts = 0
		conn.SetReadLimit(m.cfg.ReadLimit)
		m.mu.Lock()
		if m.gen != gen || m.deliberate {
			halted := m.deliberate && m.gen == gen
			m.mu.Unlock()
			_ = conn.Close()
			if halted {
				m.setState(StateClosed)
			}
			return
		}
		m.conn = conn
		m.mu.Unlock()
		m.setState(StateOpen)

		m.serve(conn)

		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()

		if m.stale(gen) {
			return
		}
		if m.isDeliberate() {
			m.setState(StateClosed)
			return
		}
		if !m.awaitRetry(&attempts) {
			m.setState(StateClosed)
			return
		}
	}
}

// serve reads until the connection drops, delivering every message.
func (m *Manager) serve(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.Warn("connection lost", map[string]any{"error": err.Error()})
			}
			_ = conn.Close()
			return
		}
		if len(data) == 0 {
			continue
		}
		m.deliver(data)
	}
}

// deliver parses one inbound message and hands it to the subscriber.
// Parse failures are not dropped: the subscriber receives the raw text.
func (m *Manager) deliver(data []byte) {
	var env types.Envelope
	msg := Message{Raw: data}
	if err := json.Unmarshal(data, &env); err == nil {
		msg.Envelope = &env
	} else {
		m.log.Debug("malformed payload delivered raw", map[string]any{"error": err.Error()})
	}

	m.mu.Lock()
	fn := m.onMessage
	m.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// awaitRetry consumes one attempt from the budget: waits the fixed delay
// and reports whether another dial may proceed.
func (m *Manager) awaitRetry(attempts *int) bool {
	*attempts++
	if *attempts > m.cfg.RetryAttempts {
		m.log.Warn("retry budget exhausted", map[string]any{"attempts": m.cfg.RetryAttempts})
		return false
	}
	m.metrics.IncReconnect()
	m.setState(StateConnecting)
	m.sleep(m.cfg.RetryDelay)
	return !m.isDeliberate()
}

func (m *Manager) isDeliberate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliberate
}

// stale reports whether a newer Connect has superseded this loop.
func (m *Manager) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen != gen
}

// setState records a transition, logs it, and notifies the subscriber.
func (m *Manager) setState(next State) {
	m.mu.Lock()
	if m.state == next {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = next
	fn := m.onState
	m.mu.Unlock()

	m.log.Info("state transition", map[string]any{"from": prev.String(), "to": next.String()})
	if fn != nil {
		fn(next)
	}
}

// Package hass implements the session core for the Home Assistant
// WebSocket API: connection supervision with automatic reconnection, the
// authentication handshake, a liveness-probe loop, a receiver loop that
// demultiplexes inbound frames, id-based request/response correlation, and
// the event-driven cache pipeline.
package hass

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jamalex/home-assistant-customizations/errors"
	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/metric"
	"github.com/jamalex/home-assistant-customizations/store"
)

// Status represents the state of the session
type Status int32

// Possible session states
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusAuthenticating
	StatusReady
	StatusStopping
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusAuthenticating:
		return "authenticating"
	case StatusReady:
		return "ready"
	case StatusStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Callback receives the decoded response frame for a correlated request
type Callback func(*frame.Frame)

// Client manages the WebSocket session to a Home Assistant hub. Three
// concurrent activities share it: the receiver loop, the liveness monitor,
// and callers issuing outbound requests. The connection handle is owned by
// the client acting as supervisor; the loops only borrow it per operation.
type Client struct {
	url     string
	token   string
	verbose bool
	logger  Logger

	// Connection handle; nil when absent. Guarded by connMu, never held
	// across a blocking read or write.
	conn   *websocket.Conn
	connMu sync.RWMutex

	// Serializes writes to the current connection (the websocket package
	// permits only one concurrent writer).
	writeMu sync.Mutex

	status atomic.Int32

	// Correlator state
	nextID    atomic.Int64
	pending   map[int64]Callback
	pendingMu sync.Mutex

	// Probe tracker: at most one outstanding probe at a time
	probeMu       sync.Mutex
	lastProbeID   int64
	lastProbeTime time.Time

	// Lifecycle
	lifecycleMu sync.Mutex
	started     bool
	manualStop  atomic.Bool
	stopCh      chan struct{}
	stopOnce    *sync.Once
	wg          sync.WaitGroup
	fatalErr    atomic.Pointer[error]

	// Tunables
	probeInterval  time.Duration
	connectTimeout time.Duration
	reconnectDelay time.Duration
	tickInterval   time.Duration

	dialer     *websocket.Dialer
	store      *store.Store
	metricsReg *metric.Registry
	metrics    *Metrics
}

// NewClient creates a client for the given WebSocket URL and access token
func NewClient(url, token string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("missing hub URL"), "Client", "NewClient", "validate config")
	}
	if token == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("missing access token"), "Client", "NewClient", "validate config")
	}

	c := &Client{
		url:     url,
		token:   token,
		logger:  &defaultLogger{},
		pending: make(map[int64]Callback),
		// Sensible defaults; probe and connect timeouts follow the hub's
		// conventional 10 second cadence
		probeInterval:  10 * time.Second,
		connectTimeout: 10 * time.Second,
		reconnectDelay: time.Second,
		tickInterval:   time.Second,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}

	if c.dialer == nil {
		c.dialer = &websocket.Dialer{HandshakeTimeout: c.connectTimeout}
	}

	var storeOpts []store.Option
	if c.metricsReg != nil {
		metrics, err := newMetrics(c.metricsReg)
		if err != nil {
			return nil, err
		}
		c.metrics = metrics
		storeOpts = append(storeOpts, store.WithMetrics(c.metricsReg))
	}

	st, err := store.New(storeOpts...)
	if err != nil {
		return nil, err
	}
	c.store = st

	c.status.Store(int32(StatusDisconnected))
	c.logger.Debugf("Created client for %s", url)
	return c, nil
}

// URL returns the hub WebSocket URL
func (c *Client) URL() string {
	return c.url
}

// Store returns the local cache of registries, states, and services
func (c *Client) Store() *store.Store {
	return c.store
}

// Status returns the current session state
func (c *Client) Status() Status {
	return Status(c.status.Load())
}

func (c *Client) setStatus(status Status) {
	c.status.Store(int32(status))
	if c.metrics != nil {
		c.metrics.sessionStatus.Set(float64(status))
	}
}

// Err returns the fatal error that terminated the session, if any
func (c *Client) Err() error {
	if p := c.fatalErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Connect starts the session: it attempts an initial connection and spawns
// the receiver and liveness-monitor loops. An initial connection failure is
// not fatal - the monitor keeps retrying until Stop is called. The context
// bounds only the initial connection attempt.
func (c *Client) Connect(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.started {
		return errors.WrapInvalid(
			fmt.Errorf("already connected"), "Client", "Connect", "check state")
	}

	c.manualStop.Store(false)
	c.fatalErr.Store(nil)
	c.stopCh = make(chan struct{})
	c.stopOnce = &sync.Once{}

	if err := c.establish(ctx); err != nil {
		// The monitor loop drives reconnection from here
		c.logger.Errorf("Initial connect failed: %v", err)
	}

	c.wg.Add(2)
	go c.receiverLoop()
	go c.monitorLoop()

	c.started = true
	return nil
}

// establish opens a new connection. It never leaves a half-open handle on
// failure, and publishes the new handle for the receiver and senders.
func (c *Client) establish(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	c.logger.Printf("Connecting to %s...", c.url)

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, c.url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		c.setStatus(StatusDisconnected)
		return errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrConnectFailed, err),
			"Client", "establish", "open websocket")
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	// Authenticated only once the handshake completes
	c.setStatus(StatusAuthenticating)
	return nil
}

// tearDown closes the current handle if any and resets authenticated
// state. Idempotent.
func (c *Client) tearDown() {
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	if s := c.Status(); s != StatusStopping && s != StatusDisconnected {
		c.setStatus(StatusDisconnected)
	}
}

// tearDownIf closes and clears the handle only while it is still the given
// one, so a loop acting on a stale read or write error cannot close a
// successor connection
func (c *Client) tearDownIf(conn *websocket.Conn) {
	c.connMu.Lock()
	cleared := c.conn != nil && c.conn == conn
	if cleared {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	if !cleared {
		return
	}
	if s := c.Status(); s != StatusStopping && s != StatusDisconnected {
		c.setStatus(StatusDisconnected)
	}
}

// currentConn borrows the connection handle for one operation
func (c *Client) currentConn() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

// reconnect tears down any existing connection and tries to establish a
// fresh one after a short delay. On failure the handle stays absent so the
// monitor retries on its next tick; there is no internal retry loop.
func (c *Client) reconnect() {
	c.tearDown()

	if c.manualStop.Load() {
		return
	}

	select {
	case <-time.After(c.reconnectDelay):
	case <-c.stopCh:
		return
	}

	if c.metrics != nil {
		c.metrics.reconnects.Inc()
	}

	if err := c.establish(context.Background()); err != nil {
		c.logger.Errorf("Reconnection failed: %v", err)
		c.tearDown()
		return
	}

	// A stop may have landed while the dial was in flight; a connection
	// published after that must not outlive it
	if c.manualStop.Load() {
		c.tearDown()
		return
	}

	c.logger.Printf("Reconnected successfully.")

	// Fresh connection, fresh probe cycle
	c.probeMu.Lock()
	c.lastProbeID = 0
	c.probeMu.Unlock()
}

// stopSignal returns the current stop channel. Connect replaces the field
// on each run, so callers that outlive a Stop/Connect cycle must take a
// snapshot instead of reading the field directly.
func (c *Client) stopSignal() <-chan struct{} {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	return c.stopCh
}

// beginStop signals the loops to exit without waiting for them. Safe to
// call from the loops themselves.
func (c *Client) beginStop() {
	c.manualStop.Store(true)
	if c.stopOnce != nil {
		c.stopOnce.Do(func() { close(c.stopCh) })
	}
	c.setStatus(StatusStopping)
	c.tearDown()
}

// Stop terminates the session and waits for the receiver and monitor loops
// to fully exit; no cache mutation happens after Stop returns. Idempotent.
func (c *Client) Stop() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if !c.started {
		return nil
	}

	c.beginStop()
	c.wg.Wait()

	// The monitor may have published a fresh handle between beginStop's
	// teardown and the loops observing the stop signal
	c.tearDown()

	c.setStatus(StatusDisconnected)
	c.started = false
	c.logger.Printf("Client stopped.")
	return nil
}

// WaitForReady blocks until the session reaches Ready, the session
// terminates fatally, or the context expires
func (c *Client) WaitForReady(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.WrapTransient(ctx.Err(), "Client", "WaitForReady", "wait for session")
		case <-ticker.C:
			if err := c.Err(); err != nil {
				return err
			}
			switch c.Status() {
			case StatusReady:
				return nil
			case StatusStopping:
				return errors.WrapInvalid(
					errors.ErrStopped, "Client", "WaitForReady", "wait for session")
			}
		}
	}
}

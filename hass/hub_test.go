package hass

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
)

// hubRequest is one id-bearing request as seen by the fake hub, tagged
// with the index of the connection it arrived on.
type hubRequest struct {
	connIndex int
	msg       map[string]any
}

func (r hubRequest) reqType() string {
	s, _ := r.msg["type"].(string)
	return s
}

// hubConn serializes writes to one upgraded connection.
type hubConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (hc *hubConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.conn.WriteMessage(websocket.TextMessage, data)
}

// fakeHub is an in-process hub standing in for a real Home Assistant
// instance: it runs the auth handshake and answers requests with canned
// results so session behavior can be observed from the outside.
type fakeHub struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*hubConn
	requests []hubRequest

	// Behavior knobs, set before the client connects.
	authInvalid bool
	dropPongs   atomic.Bool
	silentTypes map[string]bool // request types never answered
	failTypes   map[string]bool // request types answered with success=false
	cannedData  map[string]any  // result payload per request type
}

func newFakeHub(t *testing.T) *fakeHub {
	t.Helper()

	hub := &fakeHub{
		t:           t,
		silentTypes: make(map[string]bool),
		failTypes:   make(map[string]bool),
		cannedData:  make(map[string]any),
	}
	hub.server = httptest.NewServer(http.HandlerFunc(hub.handle))
	t.Cleanup(hub.server.Close)
	return hub
}

func (h *fakeHub) url() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http")
}

func (h *fakeHub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	hc := &hubConn{conn: conn}

	h.mu.Lock()
	h.conns = append(h.conns, hc)
	connIndex := len(h.conns) - 1
	h.mu.Unlock()

	if err := hc.writeJSON(map[string]any{"type": "auth_required"}); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		msgType, _ := msg["type"].(string)

		if msgType == "auth" {
			if h.authInvalid {
				_ = hc.writeJSON(map[string]any{"type": "auth_invalid", "message": "Invalid access token"})
				return
			}
			_ = hc.writeJSON(map[string]any{"type": "auth_ok", "ha_version": "2024.1.0"})
			continue
		}

		h.mu.Lock()
		h.requests = append(h.requests, hubRequest{connIndex: connIndex, msg: msg})
		h.mu.Unlock()

		h.respond(hc, msgType, msg)
	}
}

func (h *fakeHub) respond(hc *hubConn, msgType string, msg map[string]any) {
	id := msg["id"]

	if msgType == "ping" {
		if !h.dropPongs.Load() {
			_ = hc.writeJSON(map[string]any{"id": id, "type": "pong"})
		}
		return
	}
	if h.silentTypes[msgType] {
		return
	}
	if h.failTypes[msgType] {
		_ = hc.writeJSON(map[string]any{
			"id": id, "type": "result", "success": false,
			"error": map[string]any{"code": "unknown_error", "message": "it broke"},
		})
		return
	}

	var result any
	if canned, ok := h.cannedData[msgType]; ok {
		result = canned
	}
	_ = hc.writeJSON(map[string]any{"id": id, "type": "result", "success": true, "result": result})
}

// connCount reports how many connections the hub has accepted so far.
func (h *fakeHub) connCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// countRequests reports how many requests of the given type arrived,
// across all connections.
func (h *fakeHub) countRequests(reqType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, r := range h.requests {
		if r.reqType() == reqType {
			n++
		}
	}
	return n
}

// countRequestsOn is countRequests restricted to one connection.
func (h *fakeHub) countRequestsOn(connIndex int, reqType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, r := range h.requests {
		if r.connIndex == connIndex && r.reqType() == reqType {
			n++
		}
	}
	return n
}

func (h *fakeHub) requestCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.requests)
}

func (h *fakeHub) lastRequest(reqType string) (map[string]any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.requests) - 1; i >= 0; i-- {
		if h.requests[i].reqType() == reqType {
			return h.requests[i].msg, true
		}
	}
	return nil, false
}

// markRequests returns the current request count so later assertions can
// look only at requests that arrive afterwards.
func (h *fakeHub) markRequests() int {
	return h.requestCount()
}

// countRequestsSince counts requests of the given type that arrived after
// the given mark.
func (h *fakeHub) countRequestsSince(mark int, reqType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, r := range h.requests[mark:] {
		if r.reqType() == reqType {
			n++
		}
	}
	return n
}

// sendEvent pushes an event frame to the newest connection.
func (h *fakeHub) sendEvent(eventType string, data any) {
	h.mu.Lock()
	if len(h.conns) == 0 {
		h.mu.Unlock()
		h.t.Fatal("sendEvent: no connection")
		return
	}
	hc := h.conns[len(h.conns)-1]
	h.mu.Unlock()

	err := hc.writeJSON(map[string]any{
		"id":   1,
		"type": "event",
		"event": map[string]any{
			"event_type": eventType,
			"data":       data,
			"origin":     "LOCAL",
		},
	})
	if err != nil {
		h.t.Logf("sendEvent: %v", err)
	}
}

// sendRaw pushes a raw text frame to the newest connection.
func (h *fakeHub) sendRaw(text string) {
	h.mu.Lock()
	if len(h.conns) == 0 {
		h.mu.Unlock()
		h.t.Fatal("sendRaw: no connection")
		return
	}
	hc := h.conns[len(h.conns)-1]
	h.mu.Unlock()

	hc.mu.Lock()
	defer hc.mu.Unlock()
	if err := hc.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		h.t.Logf("sendRaw: %v", err)
	}
}

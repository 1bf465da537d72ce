package hass

import (
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/jamalex/home-assistant-customizations/errors"
	"github.com/jamalex/home-assistant-customizations/frame"
)

// Send assigns the next correlation id to the request, registers the
// optional callback, and writes the request over the current connection.
// It fails immediately with an invalid-state error when the session is not
// Ready; nothing is queued and no network write happens.
//
// Identifiers increase monotonically over the lifetime of the client and
// are not reset across reconnects. A callback registered here is invoked
// at most once; a reconnect does not purge pending callbacks, so a request
// whose response never arrives leaves its callback registered (callers
// needing a bound use Call).
func (c *Client) Send(req frame.Request, callback Callback) (int64, error) {
	if c.Status() != StatusReady {
		return 0, errors.WrapInvalid(
			fmt.Errorf("%w: session is %s", errors.ErrInvalidState, c.Status()),
			"Client", "Send", "check session state")
	}

	id := c.nextID.Add(1)

	data, err := frame.Encode(req, id)
	if err != nil {
		return 0, err
	}

	if callback != nil {
		c.pendingMu.Lock()
		c.pending[id] = callback
		c.pendingMu.Unlock()
		if c.metrics != nil {
			c.metrics.pendingCallbacks.Set(float64(c.PendingCount()))
		}
	}

	if c.verbose {
		c.logger.Debugf("Sending message: %s", data)
	}

	if err := c.write(data); err != nil {
		c.removePending(id)
		return 0, err
	}

	if c.metrics != nil {
		c.metrics.requestsSent.WithLabelValues(req.Type).Inc()
	}
	return id, nil
}

// write sends raw bytes over the borrowed connection handle. A write
// failure is treated as connection loss: the handle is cleared and the
// liveness monitor takes over.
func (c *Client) write(data []byte) error {
	conn := c.currentConn()
	if conn == nil {
		return errors.WrapTransient(
			errors.ErrNotConnected, "Client", "write", "borrow connection")
	}

	c.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()

	if err != nil {
		c.tearDownIf(conn)
		return errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrConnectionLost, err),
			"Client", "write", "write frame")
	}
	return nil
}

// resolve looks up and removes the pending callback for an id and invokes
// it with the response. Responses with no registered callback are silently
// discarded; each id is resolved at most once. Returns true if a callback
// was invoked.
func (c *Client) resolve(id int64, f *frame.Frame) bool {
	c.pendingMu.Lock()
	callback, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if !ok {
		return false
	}

	if c.metrics != nil {
		c.metrics.pendingCallbacks.Set(float64(c.PendingCount()))
	}
	callback(f)
	return true
}

// removePending deregisters a callback without invoking it. Returns true
// if the callback was still registered.
func (c *Client) removePending(id int64) bool {
	c.pendingMu.Lock()
	_, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if ok && c.metrics != nil {
		c.metrics.pendingCallbacks.Set(float64(c.PendingCount()))
	}
	return ok
}

// PendingCount returns the number of requests awaiting a response
func (c *Client) PendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

package hass

import (
	"time"

	"github.com/jamalex/home-assistant-customizations/frame"
)

// monitorLoop is the session's sole failure detector. On each tick it
// reconnects proactively when no connection exists; on an authenticated
// connection it sends a probe once per probe interval. A probe still
// unanswered when the next one is due marks the connection dead and forces
// a reconnect - a second probe is never sent while one is outstanding.
func (c *Client) monitorLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			c.logger.Debugf("Monitor loop exiting...")
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick runs one liveness check
func (c *Client) tick() {
	if c.currentConn() == nil {
		c.logger.Debugf("Monitor: no connection, reconnecting proactively...")
		c.reconnect()
		return
	}

	if c.Status() != StatusReady {
		// Connection is mid-handshake; give auth a chance
		return
	}

	c.probeMu.Lock()
	due := time.Since(c.lastProbeTime) >= c.probeInterval
	outstanding := c.lastProbeID != 0
	if due {
		c.lastProbeTime = time.Now()
	}
	c.probeMu.Unlock()

	if !due {
		return
	}

	if outstanding {
		c.logger.Printf("Monitor: previous probe unanswered, forcing reconnect...")
		if c.metrics != nil {
			c.metrics.probeTimeouts.Inc()
		}
		c.reconnect()
		return
	}

	c.sendProbe()
}

// sendProbe sends a new liveness probe and records it in the tracker
func (c *Client) sendProbe() {
	id, err := c.Send(frame.Request{Type: frame.TypePing}, nil)
	if err != nil {
		c.logger.Errorf("Monitor: probe send failed: %v", err)
		return
	}

	c.probeMu.Lock()
	c.lastProbeID = id
	c.probeMu.Unlock()
}

// ackProbe clears the probe tracker when the matching acknowledgment
// arrives
func (c *Client) ackProbe(id int64) {
	c.probeMu.Lock()
	if c.lastProbeID == id {
		c.lastProbeID = 0
	}
	c.probeMu.Unlock()
}

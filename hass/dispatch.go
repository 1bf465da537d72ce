package hass

import (
	"github.com/jamalex/home-assistant-customizations/frame"
)

// handleFrame decodes one raw inbound payload and routes it by kind. A
// payload that fails to parse is logged and discarded; one bad frame does
// not tear down a healthy session.
func (c *Client) handleFrame(raw []byte) {
	f, err := frame.Decode(raw)
	if err != nil {
		c.logger.Errorf("Dropping malformed frame: %v", err)
		if c.metrics != nil {
			c.metrics.malformedFrames.Inc()
		}
		return
	}

	if c.metrics != nil {
		c.metrics.framesReceived.WithLabelValues(f.Type).Inc()
	}

	switch f.Type {
	case frame.TypeAuthRequired:
		c.logger.Printf("Server requested auth, sending token.")
		c.sendAuth()

	case frame.TypeAuthOK:
		c.logger.Printf("Authenticated successfully.")
		c.handleAuthOK()

	case frame.TypeAuthInvalid:
		c.handleAuthRejected(f.Message)

	case frame.TypePong:
		c.ackProbe(f.ID)
		c.resolve(f.ID, f)

	case frame.TypeResult:
		// A failed result with no registered follow-up is dropped; the
		// fire-and-forget policy leaves failure handling to callers
		if f.Success {
			c.resolve(f.ID, f)
		} else {
			c.logger.Debugf("Request %d failed: %+v", f.ID, f.Error)
		}

	case frame.TypeEvent:
		if f.Event != nil {
			c.routeEvent(f.Event)
		}

	default:
		// Anything else with a matching pending id goes to its callback
		if f.ID > 0 && c.resolve(f.ID, f) {
			return
		}
		c.logger.Printf("Unhandled message: %s", raw)
	}
}

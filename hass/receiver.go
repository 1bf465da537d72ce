package hass

import (
	"time"
)

// receiverLoop continuously reads frames from the current connection.
// Reads block with no deadline; tearing the connection down closes it,
// which unblocks the pending read with an error. A read error is permanent
// for a websocket handle, so the loop clears the handle and never reads it
// again - reconnection policy lives entirely in the liveness monitor.
func (c *Client) receiverLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.Debugf("Receiver loop exiting...")
			return
		default:
		}

		conn := c.currentConn()
		if conn == nil {
			select {
			case <-time.After(100 * time.Millisecond):
			case <-c.stopCh:
				c.logger.Debugf("Receiver loop exiting...")
				return
			}
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if !c.manualStop.Load() {
				c.logger.Errorf("Receiver: connection read failed: %v", err)
			}
			c.tearDownIf(conn)
			continue
		}
		if len(message) == 0 {
			continue
		}

		c.handleFrame(message)
	}
}

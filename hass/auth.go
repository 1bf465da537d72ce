package hass

import (
	"encoding/json"
	"fmt"

	"github.com/jamalex/home-assistant-customizations/errors"
	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/store"
)

// sendAuth answers the server's challenge with the configured token. The
// credential frame carries no correlation id and is the only message
// allowed outside the Ready state. Credentials are sent once per
// connection attempt; there is no retry.
func (c *Client) sendAuth() {
	data, err := frame.Encode(frame.AuthRequest(c.token), 0)
	if err != nil {
		c.logger.Errorf("Auth: encode credentials failed: %v", err)
		return
	}

	c.logger.Debugf("Sending auth message with token...")
	if err := c.write(data); err != nil {
		c.logger.Errorf("Auth: send credentials failed: %v", err)
	}
}

// handleAuthOK marks the session Ready and runs the bootstrap sequence:
// subscribe to the push-event stream, list every configured registry,
// fetch the full state snapshot, and fetch the service catalog. The
// requests are independent; their responses land asynchronously in the
// store. Runs after the first connection and after every reconnection.
func (c *Client) handleAuthOK() {
	c.setStatus(StatusReady)

	if _, err := c.Send(frame.Request{Type: frame.TypeSubscribeEvents}, nil); err != nil {
		c.logger.Errorf("Bootstrap: subscribe to events failed: %v", err)
	}

	for _, kind := range frame.Kinds() {
		if _, err := c.RefreshRegistry(kind); err != nil {
			c.logger.Errorf("Bootstrap: refresh %s failed: %v", kind, err)
		}
	}

	if _, err := c.RefreshStates(); err != nil {
		c.logger.Errorf("Bootstrap: fetch states failed: %v", err)
	}

	if _, err := c.RefreshServices(); err != nil {
		c.logger.Errorf("Bootstrap: fetch services failed: %v", err)
	}
}

// handleAuthRejected terminates the session. Rejection is fatal, not
// retryable: invalid credentials will not become valid on reconnect.
func (c *Client) handleAuthRejected(message string) {
	err := errors.WrapFatal(
		fmt.Errorf("%w: %s", errors.ErrAuthRejected, message),
		"Client", "auth", "validate credentials")
	c.fatalErr.Store(&err)
	c.logger.Errorf("Authentication invalid: %s", message)
	c.beginStop()
}

// RefreshRegistry issues a full listing request for one registry kind and,
// on response, replaces the store's mapping for that kind wholesale.
// Returns the assigned request id.
func (c *Client) RefreshRegistry(kind frame.RegistryKind) (int64, error) {
	if _, err := kind.IDField(); err != nil {
		return 0, err
	}

	return c.Send(frame.Request{Type: kind.ListType()}, func(f *frame.Frame) {
		var records []store.Record
		if err := json.Unmarshal(f.Result, &records); err != nil {
			c.logger.Errorf("Refresh %s: decode listing failed: %v", kind, err)
			return
		}
		if len(records) == 0 {
			return
		}
		if err := c.store.ReplaceRegistry(kind, records); err != nil {
			c.logger.Errorf("Refresh %s: replace registry failed: %v", kind, err)
		}
	})
}

// RefreshStates requests the full state snapshot and replaces the state
// cache wholesale on response
func (c *Client) RefreshStates() (int64, error) {
	return c.Send(frame.Request{Type: frame.TypeGetStates}, func(f *frame.Frame) {
		var records []store.Record
		if err := json.Unmarshal(f.Result, &records); err != nil {
			c.logger.Errorf("Refresh states: decode snapshot failed: %v", err)
			return
		}
		c.store.ReplaceStates(records)
	})
}

// RefreshServices requests the service catalog and replaces it wholesale
// on response
func (c *Client) RefreshServices() (int64, error) {
	return c.Send(frame.Request{Type: frame.TypeGetServices}, func(f *frame.Frame) {
		var catalog map[string]map[string]store.ServiceDef
		if err := json.Unmarshal(f.Result, &catalog); err != nil {
			c.logger.Errorf("Refresh services: decode catalog failed: %v", err)
			return
		}
		c.store.ReplaceServices(catalog)
	})
}

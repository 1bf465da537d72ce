package hass

import (
	"context"
	"fmt"

	"github.com/jamalex/home-assistant-customizations/errors"
	"github.com/jamalex/home-assistant-customizations/frame"
)

// Call sends a request and blocks until its successful response arrives or
// the context expires. On expiry it deregisters its own pending callback
// so no late invocation can surprise the caller. The correlator itself
// enforces no timeout; this helper layers one on top.
func (c *Client) Call(ctx context.Context, req frame.Request) (*frame.Frame, error) {
	responseCh := make(chan *frame.Frame, 1)
	stopCh := c.stopSignal()

	id, err := c.Send(req, func(f *frame.Frame) {
		responseCh <- f
	})
	if err != nil {
		return nil, err
	}

	select {
	case f := <-responseCh:
		return f, nil
	case <-stopCh:
		c.removePending(id)
		return nil, errors.WrapInvalid(
			errors.ErrStopped, "Client", "Call", "wait for response")
	case <-ctx.Done():
		c.removePending(id)
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: request %d", errors.ErrCallTimeout, id),
			"Client", "Call", "wait for response")
	}
}

// CallService invokes a service on the hub, fire-and-forget. The
// serviceData map typically carries the target entity_id plus any
// service-specific parameters.
func (c *Client) CallService(domain, service string, serviceData map[string]any) (int64, error) {
	return c.Send(frame.CallServiceRequest(domain, service, serviceData), nil)
}

// UpdateRegistry sends an update for one record in a registry. When the
// update succeeds, the registry is re-listed so the local cache stays in
// sync before the caller's callback runs.
func (c *Client) UpdateRegistry(kind frame.RegistryKind, fields map[string]any, callback Callback) (int64, error) {
	if _, err := kind.IDField(); err != nil {
		return 0, err
	}

	return c.Send(frame.Request{Type: kind.UpdateType(), Fields: fields}, func(f *frame.Frame) {
		if _, err := c.RefreshRegistry(kind); err != nil {
			c.logger.Errorf("Update %s: follow-up refresh failed: %v", kind, err)
		}
		if callback != nil {
			callback(f)
		}
	})
}

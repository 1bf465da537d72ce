package hass

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jamalex/home-assistant-customizations/metric"
)

// Logger interface for injecting custom loggers
type Logger interface {
	Printf(format string, v ...any)
	Errorf(format string, v ...any)
	Debugf(format string, v ...any)
}

// defaultLogger implements Logger using the standard log package
type defaultLogger struct{}

func (l *defaultLogger) Printf(format string, v ...any) {
	log.Printf("[hass] "+format, v...)
}

func (l *defaultLogger) Errorf(format string, v ...any) {
	log.Printf("[hass error] "+format, v...)
}

func (l *defaultLogger) Debugf(_ string, _ ...any) {
	// Silent by default
}

// verboseLogger logs debug output through the standard log package
type verboseLogger struct {
	defaultLogger
}

func (l *verboseLogger) Debugf(format string, v ...any) {
	log.Printf("[hass debug] "+format, v...)
}

// ClientOption is a functional option for configuring the Client
type ClientOption func(*Client) error

// WithLogger sets a custom logger for the client
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) error {
		if logger == nil {
			logger = &defaultLogger{}
		}
		c.logger = logger
		return nil
	}
}

// WithVerbose enables debug logging of session activity, including
// outbound request payloads
func WithVerbose(verbose bool) ClientOption {
	return func(c *Client) error {
		c.verbose = verbose
		if verbose {
			if _, isDefault := c.logger.(*defaultLogger); isDefault {
				c.logger = &verboseLogger{}
			}
		}
		return nil
	}
}

// WithProbeInterval sets how often a liveness probe is sent on an
// authenticated connection
func WithProbeInterval(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d > 0 {
			c.probeInterval = d
		}
		return nil
	}
}

// WithConnectTimeout sets the timeout for opening a connection
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d > 0 {
			c.connectTimeout = d
		}
		return nil
	}
}

// WithReconnectDelay sets the fixed delay between tearing down a dead
// connection and attempting a new one
func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d >= 0 {
			c.reconnectDelay = d
		}
		return nil
	}
}

// WithMonitorTick sets the liveness monitor's tick period. The tick bounds
// how quickly an absent connection is noticed; the probe interval rides on
// top of it.
func WithMonitorTick(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d > 0 {
			c.tickInterval = d
		}
		return nil
	}
}

// WithDialer sets a custom websocket dialer (TLS configuration, proxies)
func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) error {
		if dialer != nil {
			c.dialer = dialer
		}
		return nil
	}
}

// WithMetrics enables Prometheus metrics for the session and its store
func WithMetrics(registry *metric.Registry) ClientOption {
	return func(c *Client) error {
		c.metricsReg = registry
		return nil
	}
}

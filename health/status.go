// Package health reports the session's health for liveness endpoints.
// Error messages are sanitized before exposure so hub URLs and access
// tokens never leave the process.
package health

import (
	"regexp"
	"time"

	"github.com/jamalex/home-assistant-customizations/frame"
	"github.com/jamalex/home-assistant-customizations/hass"
	"github.com/jamalex/home-assistant-customizations/store"
)

// Pre-compiled regexes for error message sanitization
var (
	wsURLRegex      = regexp.MustCompile(`wss?://[^\s]+`)
	httpURLRegex    = regexp.MustCompile(`https?://[^\s]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Health state constants
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

// Status is a point-in-time health report for the session
type Status struct {
	Healthy   bool      `json:"healthy"`
	Status    string    `json:"status"` // "healthy", "degraded", "unhealthy"
	Session   string    `json:"session"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Cache     *Cache    `json:"cache,omitempty"`
}

// Cache summarizes what the local cache currently holds
type Cache struct {
	Entities       int `json:"entities"`
	States         int `json:"states"`
	ServiceDomains int `json:"service_domains"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == StateHealthy
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == StateDegraded
}

// Session is the part of the client health needs. *hass.Client satisfies
// it.
type Session interface {
	Status() hass.Status
	Err() error
	Store() *store.Store
}

// FromSession builds a health report from the session's current state. A
// Ready session is healthy; one mid-connect or mid-handshake is degraded,
// since the liveness monitor is still working on it.
func FromSession(session Session) Status {
	sessionStatus := session.Status()

	state := StateUnhealthy
	switch sessionStatus {
	case hass.StatusReady:
		state = StateHealthy
	case hass.StatusConnecting, hass.StatusAuthenticating:
		state = StateDegraded
	}

	message := ""
	if err := session.Err(); err != nil {
		message = SanitizeMessage(err.Error())
	}

	st := session.Store()
	return Status{
		Healthy:   state == StateHealthy,
		Status:    state,
		Session:   sessionStatus.String(),
		Message:   message,
		Timestamp: time.Now().UTC(),
		Cache: &Cache{
			Entities:       st.RegistrySize(frame.RegistryEntity),
			States:         st.StateCount(),
			ServiceDomains: len(st.ServiceDomains()),
		},
	}
}

// SanitizeMessage strips hub URLs, addresses, and credential-shaped
// fragments from a message before it is exposed on an endpoint.
//
// Sanitization patterns:
//   - URLs (ws://, wss://, http://, https://) -> [URL]
//   - IP addresses (192.168.1.100) -> [IP]
//   - Credentials (token=X, password=X, secret=X) -> [REDACTED]
func SanitizeMessage(msg string) string {
	if msg == "" {
		return ""
	}

	sanitized := wsURLRegex.ReplaceAllString(msg, "[URL]")
	sanitized = httpURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	return sanitized
}

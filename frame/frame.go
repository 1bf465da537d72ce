// Package frame implements the wire codec for the Home Assistant WebSocket
// API: newline-free JSON objects exchanged over a single duplex connection.
// The package is a stateless leaf; it knows how to build outbound requests
// and parse inbound frames but holds no connection state.
package frame

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamalex/home-assistant-customizations/errors"
)

// Inbound frame types
const (
	TypeAuthRequired = "auth_required"
	TypeAuthOK       = "auth_ok"
	TypeAuthInvalid  = "auth_invalid"
	TypePong         = "pong"
	TypeResult       = "result"
	TypeEvent        = "event"
)

// Outbound request types
const (
	TypeAuth            = "auth"
	TypePing            = "ping"
	TypeSubscribeEvents = "subscribe_events"
	TypeGetStates       = "get_states"
	TypeGetServices     = "get_services"
	TypeCallService     = "call_service"
)

// Event types with dedicated handling in the event router
const (
	EventStateChanged = "state_changed"
)

// Frame is one decoded inbound JSON message from the hub
type Frame struct {
	ID      int64           `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success bool            `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Event   *Event          `json:"event,omitempty"`
	Error   *ResultError    `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ResultError carries the error detail of a failed result frame
type ResultError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Event is the payload of a push-event frame
type Event struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Origin    string          `json:"origin,omitempty"`
	TimeFired string          `json:"time_fired,omitempty"`
}

// StateChange is the data payload of a state_changed event
type StateChange struct {
	EntityID string          `json:"entity_id"`
	OldState json.RawMessage `json:"old_state,omitempty"`
	NewState json.RawMessage `json:"new_state,omitempty"`
}

// StateChange decodes the event data as a state_changed payload
func (e *Event) StateChange() (*StateChange, error) {
	var sc StateChange
	if err := json.Unmarshal(e.Data, &sc); err != nil {
		return nil, errors.WrapInvalid(err, "frame", "StateChange", "decode event data")
	}
	return &sc, nil
}

// Decode parses raw bytes into a Frame. A payload that is not a JSON object
// or lacks a type field is a malformed frame; the receiver logs and drops
// such frames without tearing down the connection.
func Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err),
			"frame", "Decode", "unmarshal message")
	}
	if f.Type == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: missing type field", errors.ErrMalformedFrame),
			"frame", "Decode", "validate frame")
	}
	return &f, nil
}

// Request is an outbound message. Fields holds request-specific keys
// (domain, service, service_data, registry update attributes) merged
// alongside id and type at the top level of the JSON object.
type Request struct {
	Type   string
	Fields map[string]any
}

// Encode serializes a request with its assigned correlation id. The auth
// handshake message carries no id; pass id 0 to omit it.
func Encode(req Request, id int64) ([]byte, error) {
	if req.Type == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("missing request type"),
			"frame", "Encode", "validate request")
	}

	payload := make(map[string]any, len(req.Fields)+2)
	for k, v := range req.Fields {
		payload[k] = v
	}
	payload["type"] = req.Type
	if id > 0 {
		payload["id"] = id
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapInvalid(err, "frame", "Encode", "marshal request")
	}
	return data, nil
}

// AuthRequest builds the credential message sent in response to auth_required
func AuthRequest(token string) Request {
	return Request{
		Type:   TypeAuth,
		Fields: map[string]any{"access_token": token},
	}
}

// CallServiceRequest builds a service invocation request
func CallServiceRequest(domain, service string, serviceData map[string]any) Request {
	fields := map[string]any{
		"domain":  domain,
		"service": service,
	}
	if serviceData != nil {
		fields["service_data"] = serviceData
	}
	return Request{Type: TypeCallService, Fields: fields}
}

// ParseEntityID splits an entity identifier of the form domain.object_id
func ParseEntityID(entityID string) (domain, objectID string, ok bool) {
	domain, objectID, ok = strings.Cut(entityID, ".")
	if !ok || domain == "" || objectID == "" {
		return "", "", false
	}
	return domain, objectID, true
}

// JoinEntityID builds an entity identifier from its parts
func JoinEntityID(domain, objectID string) string {
	return domain + "." + objectID
}

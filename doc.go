// Package hasscustomizations is the module root for a Go client for the
// Home Assistant WebSocket API. The client maintains a persistent
// authenticated session with automatic reconnection and liveness probing,
// correlates requests with responses by id, and keeps a local cache of
// entity, device, area, label, and floor registries plus entity states and
// the service catalog, updated by push events.
//
// Package layout:
//
//	hass    - session core: connection supervision, auth, correlation, events
//	frame   - wire format: frame decoding, request encoding, registry table
//	store   - the local cache of registries, states, and services
//	model   - entity and device object model over the cache
//	config  - JSON file plus environment configuration
//	health  - session health reporting for liveness endpoints
//	metric  - Prometheus metrics registry
//	errors  - error classification shared across packages
package hasscustomizations

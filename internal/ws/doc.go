// Package ws streams breaker state changes to WebSocket subscribers.
//
// A Hub holds the set of connected clients and fans each circuit
// breaker transition out to all of them as a JSON event. Transitions
// are queued through a buffered channel and written from a dedicated
// dispatch goroutine, so a slow subscriber never holds up the breaker
// that produced the event. The hub's StateHook composes with other
// OnStateChange callbacks so the same transition can feed metrics,
// logs, and live subscribers.
//
// Message Types (Server to Client):
//   - system: Welcome message on connect
//   - breaker_state_change: One breaker transition
//
// Example Usage:
//
//	hub := ws.NewHub(logger)
//	router.GET("/stream", hub.HandleConnection)
package ws

// Package saga holds the per-stage consumer runtime of the order saga.
// There is no orchestrator: each stage registers handlers for the topics it
// consumes and publishes its outcome events, and compensation is performed
// by the stage that receives the failure event.
package saga

// State is the processing state of a single delivered message:
// Received -> Deserialized -> Dispatched -> {Acknowledged | Redelivered | DeadLettered}
type State string

const (
	StateReceived     State = "received"
	StateDeserialized State = "deserialized"
	StateDispatched   State = "dispatched"
	StateAcknowledged State = "acknowledged"
	StateRedelivered  State = "redelivered"
	StateDeadLettered State = "dead_lettered"
)

// IsTerminal reports whether processing of the message ended
func (s State) IsTerminal() bool {
	switch s {
	case StateAcknowledged, StateRedelivered, StateDeadLettered:
		return true
	default:
		return false
	}
}

// Acknowledged reports whether the broker may drop the message
func (s State) Acknowledged() bool {
	return s == StateAcknowledged || s == StateDeadLettered
}

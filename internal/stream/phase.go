// internal/stream/phase.go
package stream

// Phase is the lifecycle stage of a streamed generation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseThinking
	PhaseEmitting
	PhaseDone
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseThinking:
		return "thinking"
	case PhaseEmitting:
		return "emitting"
	case PhaseDone:
		return "done"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Active reports whether a generation is still in flight.
func (p Phase) Active() bool {
	return p == PhaseThinking || p == PhaseEmitting
}

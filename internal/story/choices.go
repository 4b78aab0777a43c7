// internal/story/choices.go
package story

import "fable/internal/stream"

// Affordances lists the interactive actions available to the reader for
// the currently viewed entry.
type Affordances struct {
	Choices          bool // pick one of the server-provided options
	FreeText         bool // type a custom choice
	Regenerate       bool // redo the newest entry with the last choice
	RegeneratePrompt bool // redo the newest entry with a custom prompt
	Stop             bool // cancel the in-flight generation
}

// Gate computes the affordances from the generation phase, whether the
// cursor sits on the newest entry, and whether a prior choice exists to
// reuse. While a generation is in flight only Stop is offered; choices
// and free text require a finished generation viewed at the end; the
// regenerate pair additionally requires a recorded last choice.
func Gate(phase stream.Phase, atLast, hasPriorChoice bool) Affordances {
	if phase.Active() {
		return Affordances{Stop: true}
	}
	if phase != stream.PhaseDone || !atLast {
		return Affordances{}
	}
	return Affordances{
		Choices:          true,
		FreeText:         true,
		Regenerate:       hasPriorChoice,
		RegeneratePrompt: hasPriorChoice,
	}
}

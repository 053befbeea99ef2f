// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package agreement

import "fmt"

// Engine is the capability the node holds on the external agreement
// module. Implementations must yield decisions in a total order that
// every correct elder of the section observes identically.
type Engine interface {
	// SubmitObservation votes for an observation.
	SubmitObservation(Observation) error

	// PollDecision returns the next decided observation, if any.
	PollDecision() (Decision, bool)

	// Ready signals when PollDecision may have something. The node's
	// event loop selects on it.
	Ready() <-chan struct{}
}

// InMemory is a single-process Engine that decides every observation
// immediately, in submission order. It stands in for the BFT engine
// in tests and demos.
type InMemory struct {
	queue []Decision
	ready chan struct{}
}

var _ Engine = (*InMemory)(nil)

// NewInMemory returns an empty in-memory engine.
func NewInMemory() *InMemory {
	return &InMemory{ready: make(chan struct{}, 1)}
}

// SubmitObservation decides the observation at once.
func (e *InMemory) SubmitObservation(o Observation) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("agreement: rejecting observation: %w", err)
	}
	e.queue = append(e.queue, Decision{Observation: o})
	select {
	case e.ready <- struct{}{}:
	default:
	}
	return nil
}

// PollDecision pops the next decision in order.
func (e *InMemory) PollDecision() (Decision, bool) {
	if len(e.queue) == 0 {
		return Decision{}, false
	}
	d := e.queue[0]
	e.queue = e.queue[1:]
	if len(e.queue) > 0 {
		select {
		case e.ready <- struct{}{}:
		default:
		}
	}
	return d, true
}

// Ready returns the decision-availability signal.
func (e *InMemory) Ready() <-chan struct{} { return e.ready }

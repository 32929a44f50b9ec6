package carousel

import (
	stderrors "errors"
	"fmt"
)

var ErrInvalidTransition = stderrors.New("invalid transition")

type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

var slideTransitions = map[Status][]Status{
	StatusPending:    {StatusGenerating},
	StatusGenerating: {StatusCompleted, StatusError},
	StatusCompleted:  nil,
	StatusError:      nil,
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

func (s Status) CanTransition(to Status) bool {
	for _, allowed := range slideTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Phase is the run-level state of one carousel.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhasePlanning         Phase = "planning"
	PhaseGeneratingImages Phase = "generating-images"
	PhaseCompleted        Phase = "completed"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:             {PhasePlanning},
	PhasePlanning:         {PhaseIdle, PhaseGeneratingImages},
	PhaseGeneratingImages: {PhaseCompleted, PhaseIdle},
	PhaseCompleted:        {PhasePlanning},
}

func (p Phase) Active() bool {
	return p == PhasePlanning || p == PhaseGeneratingImages
}

func (p Phase) CanTransition(to Phase) bool {
	for _, allowed := range phaseTransitions[p] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PhaseMachine guards the run phase. It is not safe for concurrent use on
// its own; the orchestrator serializes access.
type PhaseMachine struct {
	current Phase
}

func NewPhaseMachine() *PhaseMachine {
	return &PhaseMachine{current: PhaseIdle}
}

func (m *PhaseMachine) Current() Phase {
	return m.current
}

func (m *PhaseMachine) To(next Phase) error {
	if !m.current.CanTransition(next) {
		return fmt.Errorf("%w: phase %s -> %s", ErrInvalidTransition, m.current, next)
	}
	m.current = next
	return nil
}

package runtrack

import (
	"errors"
	"fmt"
	"time"
)

type StopStatus string

const (
	StopPending    StopStatus = "PENDING"
	StopInProgress StopStatus = "IN_PROGRESS"
	StopCompleted  StopStatus = "COMPLETED"
	StopCanceled   StopStatus = "CANCELED"
)

var ErrInvalidTransition = errors.New("invalid stop transition")

func (s StopStatus) Valid() bool {
	switch s {
	case StopPending, StopInProgress, StopCompleted, StopCanceled:
		return true
	}
	return false
}

// IsTerminal is true for stops that will never change again.
func (s StopStatus) IsTerminal() bool {
	return s == StopCompleted || s == StopCanceled
}

// CanTransition reports whether a stop may move from s to next.
// The lifecycle is PENDING -> IN_PROGRESS -> COMPLETED,
// with CANCELED reachable from either non-terminal state.
func (s StopStatus) CanTransition(next StopStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case StopPending:
		return next == StopInProgress || next == StopCanceled
	case StopInProgress:
		return next == StopCompleted || next == StopCanceled
	}
	return false
}

// Stop is a planned checkpoint within a run.
type Stop struct {
	Name          string     `json:"name"`
	Status        StopStatus `json:"status"`
	ArrivalTime   *time.Time `json:"arrivalTime,omitempty"`
	DepartureTime *time.Time `json:"departureTime,omitempty"`
	MileageAtStop *float64   `json:"mileageAtStop,omitempty"`

	CollectedOccupiedCars *int `json:"collectedOccupiedCars,omitempty"`
	CollectedEmptyCars    *int `json:"collectedEmptyCars,omitempty"`
	// Occupancy is a percentage, 0-100.
	Occupancy *int `json:"occupancy,omitempty"`
}

// Reached is true for stops that can anchor a segment.
func (s Stop) Reached() bool {
	return (s.Status == StopCompleted || s.Status == StopInProgress) && s.ArrivalTime != nil
}

func (s Stop) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("stop %q: unknown status %q", s.Name, s.Status)
	}
	if s.ArrivalTime != nil && s.DepartureTime != nil && s.DepartureTime.Before(*s.ArrivalTime) {
		return fmt.Errorf("stop %q: departure %s before arrival %s",
			s.Name, s.DepartureTime.Format(time.RFC3339), s.ArrivalTime.Format(time.RFC3339))
	}
	if s.DepartureTime != nil && s.Status != StopCompleted {
		return fmt.Errorf("stop %q: departure set on %s stop", s.Name, s.Status)
	}
	if s.Occupancy != nil && (*s.Occupancy < 0 || *s.Occupancy > 100) {
		return fmt.Errorf("stop %q: occupancy %d out of range", s.Name, *s.Occupancy)
	}
	return nil
}

// Transition moves the stop to next, recording the arrival
// (on entering IN_PROGRESS or COMPLETED) and departure (on COMPLETED) at t.
func (s *Stop) Transition(next StopStatus, t time.Time) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, next)
	}
	switch next {
	case StopInProgress:
		if s.ArrivalTime == nil {
			s.ArrivalTime = &t
		}
	case StopCompleted:
		if s.ArrivalTime == nil {
			arrival := t
			s.ArrivalTime = &arrival
		}
		s.DepartureTime = &t
	}
	s.Status = next
	return nil
}

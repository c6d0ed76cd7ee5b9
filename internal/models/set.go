package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/ironlog/internal/apperr"
)

// SetType distinguishes how a set is performed.
type SetType string

const (
	SetNormal    SetType = "normal"
	SetDrop      SetType = "drop"
	SetRestPause SetType = "rest_pause"
)

// repsFailure is the wire encoding of a to-failure rep target.
const repsFailure = "failure"

// Reps is a rep target: either a positive count or "to failure".
// It serializes as a JSON number or the string "failure".
type Reps struct {
	ToFailure bool
	Count     int
}

// RepCount returns a counted rep target.
func RepCount(n int) Reps { return Reps{Count: n} }

// RepsToFailure returns the to-failure rep target.
func RepsToFailure() Reps { return Reps{ToFailure: true} }

func (r Reps) MarshalJSON() ([]byte, error) {
	if r.ToFailure {
		return json.Marshal(repsFailure)
	}
	return json.Marshal(r.Count)
}

func (r *Reps) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Reps{Count: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == repsFailure || s == "to failure" {
			*r = Reps{ToFailure: true}
			return nil
		}
		return fmt.Errorf("invalid reps value %q", s)
	}
	return fmt.Errorf("reps must be a number or %q", repsFailure)
}

func (r Reps) String() string {
	if r.ToFailure {
		return "to failure"
	}
	return fmt.Sprintf("%d", r.Count)
}

// DropWeight is one step of a drop set: a reduced weight with an optional
// rep target.
type DropWeight struct {
	Weight float64 `json:"weight"`
	Reps   *int    `json:"reps,omitempty"`
}

// Set is one planned (and possibly performed) unit of an exercise.
// RestPauseSeconds is meaningful only for rest_pause sets, DropSets only for
// drop sets; Validate enforces both.
type Set struct {
	Type             SetType      `json:"type"`
	Weight           float64      `json:"weight"`
	Reps             Reps         `json:"reps"`
	RestPauseSeconds *int         `json:"restPauseSeconds,omitempty"`
	DropSets         []DropWeight `json:"dropSets,omitempty"`
	IsCompleted      bool         `json:"isCompleted"`
	ActualWeight     *float64     `json:"actualWeight,omitempty"`
	ActualReps       *int         `json:"actualReps,omitempty"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty"`
}

// Validate checks the set's type-dependent invariants.
func (s *Set) Validate() error {
	switch s.Type {
	case SetNormal, SetDrop, SetRestPause:
	default:
		return apperr.Validation("invalid set type %q", s.Type)
	}
	if s.Weight < 0 {
		return apperr.Validation("set weight must be non-negative, got %v", s.Weight)
	}
	if !s.Reps.ToFailure && s.Reps.Count < 1 {
		return apperr.Validation("set reps must be a positive count or to-failure")
	}
	if s.Type != SetRestPause && s.RestPauseSeconds != nil {
		return apperr.Validation("restPauseSeconds is only valid for rest_pause sets")
	}
	if s.Type == SetRestPause {
		if s.RestPauseSeconds == nil || *s.RestPauseSeconds <= 0 {
			return apperr.Validation("rest_pause sets require a positive restPauseSeconds")
		}
	}
	if s.Type != SetDrop && len(s.DropSets) > 0 {
		return apperr.Validation("dropSets is only valid for drop sets")
	}
	if s.Type == SetDrop {
		// The first entry inherits the base weight, so a drop set needs at
		// least one further reduction to be a drop set at all.
		if len(s.DropSets) < 2 {
			return apperr.Validation("drop sets require at least 2 dropSets entries, got %d", len(s.DropSets))
		}
		for i, d := range s.DropSets {
			if d.Weight < 0 {
				return apperr.Validation("dropSets[%d] weight must be non-negative", i)
			}
			if d.Reps != nil && *d.Reps < 1 {
				return apperr.Validation("dropSets[%d] reps must be positive", i)
			}
		}
	}
	return nil
}

// ResetCompletion clears any performed state, leaving only the plan.
func (s *Set) ResetCompletion() {
	s.IsCompleted = false
	s.ActualWeight = nil
	s.ActualReps = nil
	s.CompletedAt = nil
}

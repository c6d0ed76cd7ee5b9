package models

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseEntry is one exercise's worth of sets within a session. Name and
// IsSystem are snapshots taken at session creation so later catalog edits
// cannot corrupt history. Progress is derived, never set independently.
type ExerciseEntry struct {
	ExerciseID uuid.UUID `json:"exerciseId"`
	IsSystem   bool      `json:"isSystem"`
	Name       string    `json:"name"`
	Sets       []Set     `json:"sets"`
	Progress   float64   `json:"progress"`
}

// Clone deep-copies the entry, including set slices.
func (e ExerciseEntry) Clone() ExerciseEntry {
	out := e
	out.Sets = make([]Set, len(e.Sets))
	for i, s := range e.Sets {
		cs := s
		if s.RestPauseSeconds != nil {
			v := *s.RestPauseSeconds
			cs.RestPauseSeconds = &v
		}
		if s.DropSets != nil {
			cs.DropSets = make([]DropWeight, len(s.DropSets))
			for j, d := range s.DropSets {
				cd := d
				if d.Reps != nil {
					r := *d.Reps
					cd.Reps = &r
				}
				cs.DropSets[j] = cd
			}
		}
		if s.ActualWeight != nil {
			w := *s.ActualWeight
			cs.ActualWeight = &w
		}
		if s.ActualReps != nil {
			r := *s.ActualReps
			cs.ActualReps = &r
		}
		if s.CompletedAt != nil {
			t := *s.CompletedAt
			cs.CompletedAt = &t
		}
		out.Sets[i] = cs
	}
	return out
}

// Session is an in-progress workout. At most one session per user is active
// at a time.
type Session struct {
	ID           uuid.UUID       `json:"id"`
	UserID       int             `json:"userId"`
	WorkoutID    uuid.UUID       `json:"workoutId"`
	StartTime    time.Time       `json:"startTime"`
	LastSaveTime time.Time       `json:"lastSaveTime"`
	IsActive     bool            `json:"isActive"`
	Exercises    []ExerciseEntry `json:"exercises"`
	Progress     float64         `json:"progress"`
}

// CloneExercises deep-copies the session's exercise entries.
func (s *Session) CloneExercises() []ExerciseEntry {
	out := make([]ExerciseEntry, len(s.Exercises))
	for i, e := range s.Exercises {
		out[i] = e.Clone()
	}
	return out
}

// Log is the immutable record of a finished session. Created exactly once
// per session termination and never mutated.
type Log struct {
	ID            uuid.UUID       `json:"id"`
	UserID        int             `json:"userId"`
	WorkoutID     uuid.UUID       `json:"workoutId"`
	StartTime     time.Time       `json:"startTime"`
	EndTime       time.Time       `json:"endTime"`
	DurationSec   float64         `json:"duration"`
	Exercises     []ExerciseEntry `json:"exercises"`
	TotalProgress float64         `json:"totalProgress"`
	TotalSets     int             `json:"totalSets"`
	CompletedSets int             `json:"completedSets"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Exercise is a catalog entry. System exercises are admin-curated and shared
// across all users; others are visible only to their owner.
type Exercise struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscleGroup"`
	IsSystem    bool      `json:"isSystem"`
	OwnerID     *int      `json:"ownerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TemplateExercise is one exercise slot in a workout template with its
// planned sets.
type TemplateExercise struct {
	ExerciseID uuid.UUID `json:"exerciseId"`
	Sets       []Set     `json:"sets"`
}

// WorkoutTemplate is a named, ordered list of exercises with target sets.
type WorkoutTemplate struct {
	ID        uuid.UUID          `json:"id"`
	UserID    int                `json:"userId"`
	Name      string             `json:"name"`
	Exercises []TemplateExercise `json:"exercises"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// WeekPlan maps weekdays (0 = Sunday) to workout template ids.
type WeekPlan struct {
	UserID int               `json:"userId"`
	Days   map[int]uuid.UUID `json:"days"`
}

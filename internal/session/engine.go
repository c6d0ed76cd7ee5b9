// Package session implements the live workout session lifecycle: starting a
// session from a workout's exercise list, tracking set completion, autosave,
// and finalizing a finished session into an immutable log.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// Engine drives session state transitions. All mutations go through the
// Store; a failed persistence write is reported as a failure of the whole
// operation even when the in-memory session was already mutated.
type Engine struct {
	store Store
	cache SnapshotCache // optional
	log   *slog.Logger
	now   func() time.Time
}

// New creates an Engine over the given store.
func New(store Store, log *slog.Logger) *Engine {
	return &Engine{store: store, log: log, now: time.Now}
}

// SetCache attaches a device-local snapshot cache used as a resume hint.
func (e *Engine) SetCache(c SnapshotCache) { e.cache = c }

// Start validates the exercise list, supersedes any prior active session of
// the user, and creates a new active session. Any completion state carried
// in the input entries is cleared; the session starts at 0 progress.
func (e *Engine) Start(ctx context.Context, userID int, workoutID uuid.UUID, entries []models.ExerciseEntry) (*models.Session, error) {
	if len(entries) == 0 {
		return nil, apperr.Validation("a workout session requires at least one exercise")
	}
	for i := range entries {
		if entries[i].Name == "" {
			return nil, apperr.Validation("exercise %d has no name", i)
		}
		for j := range entries[i].Sets {
			if err := entries[i].Sets[j].Validate(); err != nil {
				return nil, err
			}
			entries[i].Sets[j].ResetCompletion()
		}
		entries[i].Progress = 0
	}

	now := e.now()
	sess := &models.Session{
		ID:           uuid.New(),
		UserID:       userID,
		WorkoutID:    workoutID,
		StartTime:    now,
		LastSaveTime: now,
		IsActive:     true,
		Exercises:    entries,
	}
	Recompute(sess)

	if err := e.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	e.mirror(sess)
	e.log.Info("session started", "user_id", userID, "workout_id", workoutID, "exercises", len(entries))
	return sess, nil
}

// Active returns the user's current active session, or nil when none exists.
// When the primary store is unreachable and a snapshot cache is attached,
// the cached snapshot is returned as a resume hint.
func (e *Engine) Active(ctx context.Context, userID int) (*models.Session, error) {
	sess, err := e.store.LoadActiveSession(ctx, userID)
	if err != nil {
		if e.cache != nil {
			if snap, cerr := e.cache.Load(userID); cerr == nil && snap != nil {
				e.log.Warn("serving cached session snapshot, store unavailable", "user_id", userID, "error", err)
				return snap, nil
			}
		}
		return nil, err
	}
	if sess == nil {
		if e.cache != nil {
			if cerr := e.cache.Clear(userID); cerr != nil {
				e.log.Warn("snapshot clear failed", "user_id", userID, "error", cerr)
			}
		}
		return nil, nil
	}
	e.mirror(sess)
	return sess, nil
}

// CompleteSet marks one set of the active session completed, stamping the
// completion time and recording actual weight/reps (falling back to the
// targets when not supplied). Re-completing an already-completed set is a
// no-op success. Progress is recomputed from scratch on every mutation.
func (e *Engine) CompleteSet(ctx context.Context, sess *models.Session, exerciseIndex, setIndex int, actualWeight *float64, actualReps *int) (*models.Session, error) {
	if !sess.IsActive {
		return nil, apperr.Validation("session is not active")
	}
	if exerciseIndex < 0 || exerciseIndex >= len(sess.Exercises) {
		return nil, apperr.NotFound("exercise index %d out of range", exerciseIndex)
	}
	entry := &sess.Exercises[exerciseIndex]
	if setIndex < 0 || setIndex >= len(entry.Sets) {
		return nil, apperr.NotFound("set index %d out of range for exercise %q", setIndex, entry.Name)
	}

	set := &entry.Sets[setIndex]
	if set.IsCompleted {
		// Idempotent under autosave retry: keep the original completedAt and
		// actuals, report success.
		return sess, nil
	}

	now := e.now()
	set.IsCompleted = true
	set.CompletedAt = &now
	if actualWeight != nil {
		set.ActualWeight = actualWeight
	} else {
		w := set.Weight
		set.ActualWeight = &w
	}
	if actualReps != nil {
		set.ActualReps = actualReps
	} else if !set.Reps.ToFailure {
		r := set.Reps.Count
		set.ActualReps = &r
	}

	Recompute(sess)
	sess.LastSaveTime = now

	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}
	e.mirror(sess)
	return sess, nil
}

// Save persists the session's current state. Pure passthrough apart from
// refreshing the save timestamp; progress is recomputed defensively so a
// stale client value can never be stored.
func (e *Engine) Save(ctx context.Context, sess *models.Session) error {
	if !sess.IsActive {
		return apperr.Validation("session is not active")
	}
	Recompute(sess)
	sess.LastSaveTime = e.now()
	if err := e.store.UpdateSession(ctx, sess); err != nil {
		return err
	}
	e.mirror(sess)
	return nil
}

// End finalizes the session into an immutable Log and deactivates it. Valid
// at any progress level; ending below 100% simply records an abandoned
// workout. The log is written before the session is deactivated so a crash
// between the two steps cannot lose history.
func (e *Engine) End(ctx context.Context, sess *models.Session, endTime time.Time) (*models.Log, error) {
	if !sess.IsActive {
		return nil, apperr.Validation("session is not active")
	}
	duration := endTime.Sub(sess.StartTime).Seconds()
	if duration < 0 {
		return nil, apperr.Validation("end time %s precedes session start %s", endTime.Format(time.RFC3339), sess.StartTime.Format(time.RFC3339))
	}

	// Recount from the sets themselves rather than trusting stored progress.
	Recompute(sess)
	total, completed := CountSets(sess.Exercises)

	log := &models.Log{
		ID:            uuid.New(),
		UserID:        sess.UserID,
		WorkoutID:     sess.WorkoutID,
		StartTime:     sess.StartTime,
		EndTime:       endTime,
		DurationSec:   duration,
		Exercises:     sess.CloneExercises(),
		TotalProgress: sess.Progress,
		TotalSets:     total,
		CompletedSets: completed,
	}

	if err := e.store.InsertLog(ctx, log); err != nil {
		return nil, err
	}
	if err := e.store.DeactivateSessions(ctx, sess.UserID); err != nil {
		return nil, err
	}
	sess.IsActive = false
	e.clearMirror(sess.UserID)
	e.log.Info("session finished", "user_id", sess.UserID, "workout_id", sess.WorkoutID,
		"duration_sec", duration, "completed_sets", completed, "total_sets", total)
	return log, nil
}

// Abandon deactivates the user's active sessions without writing a log.
func (e *Engine) Abandon(ctx context.Context, userID int) error {
	if err := e.store.DeactivateSessions(ctx, userID); err != nil {
		return err
	}
	e.clearMirror(userID)
	return nil
}

// mirror writes the session to the snapshot cache, best effort.
func (e *Engine) mirror(sess *models.Session) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Save(sess.UserID, sess); err != nil {
		e.log.Warn("snapshot save failed", "user_id", sess.UserID, "error", err)
	}
}

func (e *Engine) clearMirror(userID int) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Clear(userID); err != nil {
		e.log.Warn("snapshot clear failed", "user_id", userID, "error", err)
	}
}

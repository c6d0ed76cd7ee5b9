package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/jackc/pgx/v5"
)

// LoadActiveSession returns the user's active session, or nil when none
// exists. If multiple rows are somehow active, the most recently started
// one wins.
func (db *DB) LoadActiveSession(ctx context.Context, userID int) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, workout_id, start_time, last_save_time, is_active, progress, exercises
		 FROM sessions
		 WHERE user_id = $1 AND is_active
		 ORDER BY start_time DESC
		 LIMIT 1`,
		userID)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Storage("querying active session", err)
	}
	return sess, nil
}

// CreateSession deactivates every prior active session of the user and
// inserts the new one in a single transaction, so no reader can ever
// observe two active sessions for one user.
func (db *DB) CreateSession(ctx context.Context, sess *models.Session) error {
	exercises, err := json.Marshal(sess.Exercises)
	if err != nil {
		return apperr.Storage("encoding exercises", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return apperr.Storage("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`,
		sess.UserID); err != nil {
		return apperr.Storage("deactivating prior sessions", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (id, user_id, workout_id, start_time, last_save_time, is_active, progress, exercises)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.ID, sess.UserID, sess.WorkoutID, sess.StartTime, sess.LastSaveTime,
		sess.IsActive, sess.Progress, exercises); err != nil {
		return apperr.Storage("inserting session", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage("committing session create", err)
	}
	return nil
}

// UpdateSession writes the session's mutable state to the active row
// matching (user_id, workout_id, is_active). A missing row is a not-found
// error: updates never resurrect a finished session.
func (db *DB) UpdateSession(ctx context.Context, sess *models.Session) error {
	exercises, err := json.Marshal(sess.Exercises)
	if err != nil {
		return apperr.Storage("encoding exercises", err)
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions
		 SET exercises = $3, progress = $4, last_save_time = $5
		 WHERE user_id = $1 AND workout_id = $2 AND is_active`,
		sess.UserID, sess.WorkoutID, exercises, sess.Progress, sess.LastSaveTime)
	if err != nil {
		return apperr.Storage("updating session", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("no active session for workout %s", sess.WorkoutID)
	}
	return nil
}

// DeactivateSessions clears the active flag on all of the user's sessions.
func (db *DB) DeactivateSessions(ctx context.Context, userID int) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`,
		userID); err != nil {
		return apperr.Storage("deactivating sessions", err)
	}
	return nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var sess models.Session
	var exercises []byte
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.WorkoutID, &sess.StartTime,
		&sess.LastSaveTime, &sess.IsActive, &sess.Progress, &exercises); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exercises, &sess.Exercises); err != nil {
		return nil, err
	}
	return &sess, nil
}

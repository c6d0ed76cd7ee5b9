package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListWorkouts returns the user's workout templates, newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID int) ([]models.WorkoutTemplate, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, exercises, created_at, updated_at
		 FROM workouts
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, apperr.Storage("querying workouts", err)
	}
	defer rows.Close()

	var result []models.WorkoutTemplate
	for rows.Next() {
		wt, err := scanWorkout(rows)
		if err != nil {
			return nil, apperr.Storage("scanning workout", err)
		}
		result = append(result, *wt)
	}
	return result, rows.Err()
}

// GetWorkout returns one workout template owned by the user.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID, userID int) (*models.WorkoutTemplate, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, exercises, created_at, updated_at
		 FROM workouts
		 WHERE id = $1 AND user_id = $2`,
		id, userID)

	wt, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("workout %s not found", id)
		}
		return nil, apperr.Storage("querying workout", err)
	}
	return wt, nil
}

// CreateWorkout inserts a workout template.
func (db *DB) CreateWorkout(ctx context.Context, wt *models.WorkoutTemplate) error {
	exercises, err := json.Marshal(wt.Exercises)
	if err != nil {
		return apperr.Storage("encoding workout exercises", err)
	}
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (id, user_id, name, exercises)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		wt.ID, wt.UserID, wt.Name, exercises).Scan(&wt.CreatedAt, &wt.UpdatedAt)
	if err != nil {
		return apperr.Storage("inserting workout", err)
	}
	return nil
}

// UpdateWorkout replaces a template's name and exercise list.
func (db *DB) UpdateWorkout(ctx context.Context, wt *models.WorkoutTemplate) error {
	exercises, err := json.Marshal(wt.Exercises)
	if err != nil {
		return apperr.Storage("encoding workout exercises", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workouts SET name = $3, exercises = $4, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		wt.ID, wt.UserID, wt.Name, exercises)
	if err != nil {
		return apperr.Storage("updating workout", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("workout %s not found", wt.ID)
	}
	return nil
}

// DeleteWorkout removes a template. Week plan rows referencing it are
// removed in the same transaction so the plan never points at a dead id.
func (db *DB) DeleteWorkout(ctx context.Context, id uuid.UUID, userID int) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return apperr.Storage("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM week_plan WHERE user_id = $1 AND workout_id = $2`,
		userID, id); err != nil {
		return apperr.Storage("clearing week plan entries", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return apperr.Storage("deleting workout", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("workout %s not found", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage("committing workout delete", err)
	}
	return nil
}

func scanWorkout(row pgx.Row) (*models.WorkoutTemplate, error) {
	var wt models.WorkoutTemplate
	var exercises []byte
	if err := row.Scan(&wt.ID, &wt.UserID, &wt.Name, &exercises, &wt.CreatedAt, &wt.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exercises, &wt.Exercises); err != nil {
		return nil, err
	}
	return &wt, nil
}

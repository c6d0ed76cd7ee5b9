package storage

import (
	"context"
	"errors"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListExercises returns every system exercise plus the user's own, system
// first, alphabetical within each group.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, muscle_group, is_system, owner_id, created_at
		 FROM exercises
		 WHERE is_system OR owner_id = $1
		 ORDER BY is_system DESC, name ASC`,
		userID)
	if err != nil {
		return nil, apperr.Storage("querying exercises", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.Name, &ex.MuscleGroup, &ex.IsSystem, &ex.OwnerID, &ex.CreatedAt); err != nil {
			return nil, apperr.Storage("scanning exercise", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}

// GetExercise returns one exercise visible to the user.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID, userID int) (*models.Exercise, error) {
	var ex models.Exercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, muscle_group, is_system, owner_id, created_at
		 FROM exercises
		 WHERE id = $1 AND (is_system OR owner_id = $2)`,
		id, userID).Scan(&ex.ID, &ex.Name, &ex.MuscleGroup, &ex.IsSystem, &ex.OwnerID, &ex.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("exercise %s not found", id)
		}
		return nil, apperr.Storage("querying exercise", err)
	}
	return &ex, nil
}

// CreateExercise inserts a catalog entry.
func (db *DB) CreateExercise(ctx context.Context, ex *models.Exercise) error {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, name, muscle_group, is_system, owner_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		ex.ID, ex.Name, ex.MuscleGroup, ex.IsSystem, ex.OwnerID).Scan(&ex.CreatedAt)
	if err != nil {
		return apperr.Storage("inserting exercise", err)
	}
	return nil
}

// UpdateExercise renames/recategorizes an exercise. System exercises match
// only when asAdmin is set; user exercises only for their owner.
func (db *DB) UpdateExercise(ctx context.Context, ex *models.Exercise, userID int, asAdmin bool) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises SET name = $2, muscle_group = $3
		 WHERE id = $1 AND ((is_system AND $4) OR owner_id = $5)`,
		ex.ID, ex.Name, ex.MuscleGroup, asAdmin, userID)
	if err != nil {
		return apperr.Storage("updating exercise", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("exercise %s not found", ex.ID)
	}
	return nil
}

// DeleteExercise removes a catalog entry under the same ownership rules as
// UpdateExercise. Session and log snapshots keep their name copies, so
// history survives catalog deletes.
func (db *DB) DeleteExercise(ctx context.Context, id uuid.UUID, userID int, asAdmin bool) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM exercises
		 WHERE id = $1 AND ((is_system AND $2) OR owner_id = $3)`,
		id, asAdmin, userID)
	if err != nil {
		return apperr.Storage("deleting exercise", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("exercise %s not found", id)
	}
	return nil
}

// UpsertSystemExercise inserts or refreshes a system catalog entry by name.
// Used by the seed importer; idempotent.
func (db *DB) UpsertSystemExercise(ctx context.Context, name, muscleGroup string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, name, muscle_group, is_system)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (name) WHERE is_system DO UPDATE
			SET muscle_group = EXCLUDED.muscle_group
		 RETURNING id`,
		uuid.New(), name, muscleGroup).Scan(&id)
	if err != nil {
		return uuid.Nil, apperr.Storage("upserting system exercise", err)
	}
	return id, nil
}

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

// InsertLog appends a history record. Logs are append-only; no update path
// exists.
func (db *DB) InsertLog(ctx context.Context, log *models.Log) error {
	exercises, err := json.Marshal(log.Exercises)
	if err != nil {
		return apperr.Storage("encoding log exercises", err)
	}

	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_logs (id, user_id, workout_id, start_time, end_time, duration_sec,
		 total_progress, total_sets, completed_sets, exercises)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		log.ID, log.UserID, log.WorkoutID, log.StartTime, log.EndTime, log.DurationSec,
		log.TotalProgress, log.TotalSets, log.CompletedSets, exercises); err != nil {
		return apperr.Storage("inserting workout log", err)
	}
	return nil
}

// QueryLogs returns the user's history, newest first.
func (db *DB) QueryLogs(ctx context.Context, userID, limit int) ([]models.Log, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, workout_id, start_time, end_time, duration_sec,
		 total_progress, total_sets, completed_sets, exercises
		 FROM workout_logs
		 WHERE user_id = $1
		 ORDER BY end_time DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, apperr.Storage("querying workout logs", err)
	}
	defer rows.Close()

	var result []models.Log
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, apperr.Storage("scanning workout log", err)
		}
		result = append(result, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("reading workout logs", err)
	}
	return result, nil
}

// GetLog returns one log owned by the user.
func (db *DB) GetLog(ctx context.Context, id uuid.UUID, userID int) (*models.Log, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, workout_id, start_time, end_time, duration_sec,
		 total_progress, total_sets, completed_sets, exercises
		 FROM workout_logs
		 WHERE id = $1 AND user_id = $2`,
		id, userID)

	log, err := scanLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("log %s not found", id)
		}
		return nil, apperr.Storage("querying workout log", err)
	}
	return log, nil
}

// DeleteLog removes one log owned by the user. The only mutation logs
// support.
func (db *DB) DeleteLog(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_logs WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return apperr.Storage("deleting workout log", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("log %s not found", id)
	}
	return nil
}

func scanLog(row pgx.Row) (*models.Log, error) {
	var log models.Log
	var exercises []byte
	if err := row.Scan(&log.ID, &log.UserID, &log.WorkoutID, &log.StartTime, &log.EndTime,
		&log.DurationSec, &log.TotalProgress, &log.TotalSets, &log.CompletedSets, &exercises); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(exercises, &log.Exercises); err != nil {
		return nil, err
	}
	return &log, nil
}

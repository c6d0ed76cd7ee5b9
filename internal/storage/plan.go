package storage

import (
	"context"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
)

// GetWeekPlan returns the user's weekday → workout mapping. Unset days are
// simply absent from the map.
func (db *DB) GetWeekPlan(ctx context.Context, userID int) (*models.WeekPlan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT weekday, workout_id FROM week_plan WHERE user_id = $1 ORDER BY weekday`,
		userID)
	if err != nil {
		return nil, apperr.Storage("querying week plan", err)
	}
	defer rows.Close()

	plan := &models.WeekPlan{UserID: userID, Days: make(map[int]uuid.UUID)}
	for rows.Next() {
		var weekday int
		var workoutID uuid.UUID
		if err := rows.Scan(&weekday, &workoutID); err != nil {
			return nil, apperr.Storage("scanning week plan", err)
		}
		plan.Days[weekday] = workoutID
	}
	return plan, rows.Err()
}

// SetWeekPlan replaces the user's week plan wholesale in one transaction.
func (db *DB) SetWeekPlan(ctx context.Context, plan *models.WeekPlan) error {
	for weekday := range plan.Days {
		if weekday < 0 || weekday > 6 {
			return apperr.Validation("weekday %d out of range 0-6", weekday)
		}
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return apperr.Storage("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM week_plan WHERE user_id = $1`, plan.UserID); err != nil {
		return apperr.Storage("clearing week plan", err)
	}

	for weekday, workoutID := range plan.Days {
		if _, err := tx.Exec(ctx,
			`INSERT INTO week_plan (user_id, weekday, workout_id) VALUES ($1, $2, $3)`,
			plan.UserID, weekday, workoutID); err != nil {
			return apperr.Storage("inserting week plan entry", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage("committing week plan", err)
	}
	return nil
}

package mcp

import (
	"context"

	"github.com/claude/ironlog/internal/models"
	"github.com/claude/ironlog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools.
type DataSource interface {
	LoadActiveSession(ctx context.Context, userID int) (*models.Session, error)
	QueryLogs(ctx context.Context, userID, limit int) ([]models.Log, error)
	GetLog(ctx context.Context, id uuid.UUID, userID int) (*models.Log, error)
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

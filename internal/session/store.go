package session

import (
	"context"

	"github.com/claude/ironlog/internal/models"
)

// Store is the persistence contract the engine depends on. *storage.DB
// satisfies it; tests use in-memory fakes.
type Store interface {
	// LoadActiveSession returns the user's active session, or nil if none.
	LoadActiveSession(ctx context.Context, userID int) (*models.Session, error)

	// CreateSession persists a new session. It deactivates any prior active
	// session of the same user as part of the same atomic operation, so at
	// no point are two sessions active for one user.
	CreateSession(ctx context.Context, sess *models.Session) error

	// UpdateSession upserts the active session matching the session's
	// (userId, workoutId, isActive=true). Returns a not-found error when no
	// such session exists.
	UpdateSession(ctx context.Context, sess *models.Session) error

	// DeactivateSessions clears the active flag on all of the user's
	// sessions.
	DeactivateSessions(ctx context.Context, userID int) error

	// InsertLog appends an immutable history record.
	InsertLog(ctx context.Context, log *models.Log) error
}

// SnapshotCache is an optional device-local mirror of the active session,
// used only as a resume hint when the primary store is unreachable. Server
// state always wins; Load returns nil for snapshots past their expiry.
type SnapshotCache interface {
	Save(userID int, sess *models.Session) error
	Load(userID int) (*models.Session, error)
	Clear(userID int) error
}

package storage

import "context"

// ResolveUser maps a verified login (supplied by the identity layer) to a
// user id, creating the row on first sight. Display name and last_seen are
// refreshed on every call; sessions, logs, templates, and plans all hang off
// the returned id.
func (db *DB) ResolveUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(),
			    display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	return id, err
}

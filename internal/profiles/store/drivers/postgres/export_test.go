package postgres

import "context"

// Truncate empties every table so tests can share one database.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE users, profiles, password_reset_requests, outbox CASCADE`)
	return err
}

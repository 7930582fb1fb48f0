package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
)

type usersRepo struct {
	q dbtx

	// db is set on the ad hoc path so multi-statement writes can open their
	// own transaction. It is nil inside a Tx.
	db *sql.DB
}

const selectUser = `
SELECT id, email, password_hash, role, created_at, updated_at
FROM users`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := utc(time.Now())
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return r.atomically(ctx, func(q dbtx) error {
		_, err := q.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.Email, u.PasswordHash, u.Role, utc(u.CreatedAt), utc(u.UpdatedAt),
		)
		if err != nil {
			return mapWriteError("users.create", err)
		}
		return insertResetRequests(ctx, q, u)
	})
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, "users.get_by_id", selectUser+` WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, "users.get_by_email", selectUser+` WHERE email = ?`, email)
}

// LockUserByEmail relies on the single-connection pool: a transaction holding
// the connection already excludes every other writer.
func (r *usersRepo) LockUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.GetUserByEmail(ctx, email)
}

func (r *usersRepo) LockUserByResetToken(ctx context.Context, token string) (domain.User, error) {
	return r.getUser(ctx, "users.get_by_reset_token", selectUser+`
WHERE id = (SELECT user_id FROM password_reset_requests WHERE token = ?)`, token)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now()
	}

	return r.atomically(ctx, func(q dbtx) error {
		res, err := q.ExecContext(ctx, `
UPDATE users SET email = ?, password_hash = ?, role = ?, updated_at = ?
WHERE id = ?`,
			u.Email, u.PasswordHash, u.Role, utc(u.UpdatedAt), u.ID,
		)
		if err != nil {
			return mapWriteError("users.update", err)
		}
		if err := requireAffected("users.update", res); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx,
			`DELETE FROM password_reset_requests WHERE user_id = ?`, u.ID,
		); err != nil {
			return mapWriteError("users.update.clear_resets", err)
		}
		return insertResetRequests(ctx, q, u)
	})
}

func (r *usersRepo) getUser(ctx context.Context, op, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(op, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()

	resets, err := r.listResetRequests(ctx, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordResets = resets

	return u, nil
}

func (r *usersRepo) listResetRequests(ctx context.Context, userID string) ([]domain.ResetPasswordRequest, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT token, datetime FROM password_reset_requests
WHERE user_id = ?
ORDER BY datetime, token`, userID)
	if err != nil {
		return nil, mapNotFound("users.list_resets", err)
	}
	defer rows.Close()

	var out []domain.ResetPasswordRequest
	for rows.Next() {
		var req domain.ResetPasswordRequest
		if err := rows.Scan(&req.Token, &req.At); err != nil {
			return nil, mapNotFound("users.list_resets", err)
		}
		req.At = req.At.UTC()
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, mapNotFound("users.list_resets", err)
	}
	return out, nil
}

func (r *usersRepo) atomically(ctx context.Context, fn func(q dbtx) error) error {
	return atomically(ctx, r.db, r.q, fn)
}

func insertResetRequests(ctx context.Context, q dbtx, u domain.User) error {
	for _, req := range u.PasswordResets {
		if _, err := q.ExecContext(ctx, `
INSERT INTO password_reset_requests (token, user_id, datetime)
VALUES (?, ?, ?)`,
			req.Token, u.ID, utc(req.At),
		); err != nil {
			return mapWriteError("users.insert_reset", err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"slices"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/jackc/pgx/v5"
)

type usersRepo struct {
	q querier
}

const selectUser = `
SELECT id, email, password_hash, role, created_at, updated_at
FROM users`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	// BeginFunc opens a savepoint when r.q is already a transaction, so a
	// unique violation leaves the caller's transaction usable.
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
		)
		if err != nil {
			return mapWriteError("users.create", err)
		}
		return insertResetRequests(ctx, tx, u)
	})
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, "users.get_by_id", selectUser+` WHERE id = $1`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, "users.get_by_email", selectUser+` WHERE email = $1`, email)
}

// LockUserByEmail holds a row lock until the surrounding transaction ends.
// Outside a transaction the lock is released immediately.
func (r *usersRepo) LockUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, "users.lock_by_email", selectUser+` WHERE email = $1 FOR UPDATE`, email)
}

// The subquery is evaluated once, before the lock is taken. A caller that
// waited on the lock may find the request already consumed, so the token is
// checked again against the requests read after locking.
func (r *usersRepo) LockUserByResetToken(ctx context.Context, token string) (domain.User, error) {
	u, err := r.getUser(ctx, "users.lock_by_reset_token", selectUser+`
WHERE id = (SELECT user_id FROM password_reset_requests WHERE token = $1)
FOR UPDATE`, token)
	if err != nil {
		return domain.User{}, err
	}

	held := slices.ContainsFunc(u.PasswordResets, func(req domain.ResetPasswordRequest) bool {
		return req.Token == token
	})
	if !held {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now()
	}

	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE users SET email = $1, password_hash = $2, role = $3, updated_at = $4
WHERE id = $5`,
			u.Email, u.PasswordHash, u.Role, u.UpdatedAt.UTC(), u.ID,
		)
		if err != nil {
			return mapWriteError("users.update", err)
		}
		if err := requireAffected(tag); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM password_reset_requests WHERE user_id = $1`, u.ID,
		); err != nil {
			return mapWriteError("users.update.clear_resets", err)
		}
		return insertResetRequests(ctx, tx, u)
	})
}

func (r *usersRepo) getUser(ctx context.Context, op, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.q.QueryRow(ctx, query, arg).Scan(
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
	rows, err := r.q.Query(ctx, `
SELECT token, datetime FROM password_reset_requests
WHERE user_id = $1
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

func insertResetRequests(ctx context.Context, tx pgx.Tx, u domain.User) error {
	if len(u.PasswordResets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, req := range u.PasswordResets {
		batch.Queue(`
INSERT INTO password_reset_requests (token, user_id, datetime)
VALUES ($1, $2, $3)`, req.Token, u.ID, req.At.UTC())
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapWriteError("users.insert_reset", err)
	}
	return nil
}

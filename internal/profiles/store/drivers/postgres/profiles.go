package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
)

type profilesRepo struct {
	q querier
}

const selectProfile = `
SELECT id, user_id, username, display_name, bio, banner, profile_picture, created_at, updated_at
FROM profiles`

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err := r.q.Exec(ctx, `
INSERT INTO profiles (id, user_id, username, display_name, bio, banner, profile_picture, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Username,
		p.DisplayName, p.Bio, p.Banner, p.ProfilePicture,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return mapWriteError("profiles.create", err)
}

func (r *profilesRepo) GetProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	return r.getProfile(ctx, "profiles.get_by_id", selectProfile+` WHERE id = $1`, id)
}

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	return r.getProfile(ctx, "profiles.get_by_user_id", selectProfile+` WHERE user_id = $1`, userID)
}

func (r *profilesRepo) GetProfileByUsername(ctx context.Context, username string) (domain.Profile, error) {
	return r.getProfile(ctx, "profiles.get_by_username",
		selectProfile+` WHERE lower(username) = lower($1)`, username)
}

func (r *profilesRepo) UpdateProfile(ctx context.Context, p domain.Profile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	tag, err := r.q.Exec(ctx, `
UPDATE profiles
SET username = $1, display_name = $2, bio = $3, banner = $4, profile_picture = $5, updated_at = $6
WHERE id = $7`,
		p.Username, p.DisplayName, p.Bio, p.Banner, p.ProfilePicture, p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		return mapWriteError("profiles.update", err)
	}
	return requireAffected(tag)
}

func (r *profilesRepo) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, mapNotFound("profiles.count", err)
	}
	return n, nil
}

func (r *profilesRepo) getProfile(ctx context.Context, op, query string, arg any) (domain.Profile, error) {
	var p domain.Profile
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.UserID, &p.Username,
		&p.DisplayName, &p.Bio, &p.Banner, &p.ProfilePicture,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, mapNotFound(op, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
)

type profilesRepo struct {
	q dbtx
}

const selectProfile = `
SELECT id, user_id, username, display_name, bio, banner, profile_picture, created_at, updated_at
FROM profiles`

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	now := utc(time.Now())
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err := r.q.ExecContext(ctx, `
INSERT INTO profiles (id, user_id, username, display_name, bio, banner, profile_picture, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Username,
		mapOptionalString(p.DisplayName),
		mapOptionalString(p.Bio),
		mapOptionalString(p.Banner),
		mapOptionalString(p.ProfilePicture),
		utc(p.CreatedAt), utc(p.UpdatedAt),
	)
	return mapWriteError("profiles.create", err)
}

func (r *profilesRepo) GetProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	return r.getProfile(ctx, "profiles.get_by_id", selectProfile+` WHERE id = ?`, id)
}

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	return r.getProfile(ctx, "profiles.get_by_user_id", selectProfile+` WHERE user_id = ?`, userID)
}

func (r *profilesRepo) GetProfileByUsername(ctx context.Context, username string) (domain.Profile, error) {
	return r.getProfile(ctx, "profiles.get_by_username",
		selectProfile+` WHERE username = ? COLLATE NOCASE`, username)
}

func (r *profilesRepo) UpdateProfile(ctx context.Context, p domain.Profile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	res, err := r.q.ExecContext(ctx, `
UPDATE profiles
SET username = ?, display_name = ?, bio = ?, banner = ?, profile_picture = ?, updated_at = ?
WHERE id = ?`,
		p.Username,
		mapOptionalString(p.DisplayName),
		mapOptionalString(p.Bio),
		mapOptionalString(p.Banner),
		mapOptionalString(p.ProfilePicture),
		utc(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return mapWriteError("profiles.update", err)
	}
	return requireAffected("profiles.update", res)
}

func (r *profilesRepo) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, mapNotFound("profiles.count", err)
	}
	return n, nil
}

func (r *profilesRepo) getProfile(ctx context.Context, op, query string, arg any) (domain.Profile, error) {
	var (
		p                                  domain.Profile
		displayName, bio, banner, pictures sql.NullString
	)
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.UserID, &p.Username,
		&displayName, &bio, &banner, &pictures,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, mapNotFound(op, err)
	}

	p.DisplayName = mapNullStringPtr(displayName)
	p.Bio = mapNullStringPtr(bio)
	p.Banner = mapNullStringPtr(banner)
	p.ProfilePicture = mapNullStringPtr(pictures)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

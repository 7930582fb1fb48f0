package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

type ProfileService struct {
	Store store.Store
	Now   func() time.Time
}

func NewProfileService(st store.Store) *ProfileService {
	return &ProfileService{Store: st, Now: time.Now}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	p, err := s.Store.Profiles().GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrProfileNotFound
		}
		slogx.FromContext(ctx).Error("failed to fetch profile", slog.String("profile_id", id), slog.Any("error", err))
		return domain.Profile{}, err
	}
	return p, nil
}

// UpdateProfile overwrites the display name and bio of a profile. A nil
// value clears the field.
func (s *ProfileService) UpdateProfile(ctx context.Context, id string, displayName, bio *string) (domain.Profile, error) {
	log := slogx.FromContext(ctx)

	var updated domain.Profile
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.Profiles().GetProfileByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		p.DisplayName = displayName
		p.Bio = bio
		p.UpdatedAt = s.Now().UTC()
		if err := tx.Profiles().UpdateProfile(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			log.Error("failed to update profile", slog.String("profile_id", id), slog.Any("error", err))
		}
		return domain.Profile{}, err
	}

	log.Info("profile updated", slog.String("profile_id", id))
	return updated, nil
}

func (s *ProfileService) CountProfiles(ctx context.Context) (int64, error) {
	n, err := s.Store.Profiles().CountProfiles(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to count profiles", slog.Any("error", err))
		return 0, err
	}
	return n, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/cryptox"
	"github.com/aussiebroadwan/profiles/pkg/idx"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

// SignUpResult identifies the new profile and carries the session opened for
// it.
type SignUpResult struct {
	ProfileID    string
	SessionToken string
}

type SignInResult = SignUpResult

// UserProfileService runs the account use cases that touch a user and its
// profile together.
type UserProfileService struct {
	Store    store.Store
	Sessions SessionIssuer
	Hasher   PasswordHasher

	// Now is the clock used for timestamps and reset windows.
	Now func() time.Time

	publisher *Publisher
}

func NewUserProfileService(st store.Store, events EventDispatcher, sessions SessionIssuer, hasher PasswordHasher) *UserProfileService {
	s := &UserProfileService{
		Store:    st,
		Sessions: sessions,
		Hasher:   hasher,
		Now:      time.Now,
	}
	s.publisher = &Publisher{
		Outbox: st.Outbox(),
		Events: events,
		Now:    func() time.Time { return s.Now() },
	}
	return s
}

// Publisher exposes the outbox publisher so the relay shares its dispatcher.
func (s *UserProfileService) Publisher() *Publisher { return s.publisher }

func (s *UserProfileService) now() time.Time { return s.Now().UTC() }

// hash adapts the hasher for the domain password methods.
func (s *UserProfileService) hash(password string) (string, error) {
	h, err := s.Hasher.Hash(password)
	if err != nil {
		return "", unexpected("hash password", err)
	}
	return h, nil
}

// SignUp registers a user with its profile and opens a session for it.
func (s *UserProfileService) SignUp(ctx context.Context, email, password, username string) (SignUpResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	email, err := domain.NormaliseEmail(email)
	if err != nil {
		return SignUpResult{}, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return SignUpResult{}, err
	}
	if err := domain.ValidateUsername(username); err != nil {
		return SignUpResult{}, err
	}

	// 2. Reject a known email before paying for the hash. The unique
	// constraint still decides races.
	_, err = s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		log.Info("sign-up with email already in use")
		return SignUpResult{}, ErrEmailAlreadyInUse
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to look up user by email", slog.Any("error", err))
		return SignUpResult{}, err
	}

	// 3. Hash and build the aggregates
	hashed, err := s.hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return SignUpResult{}, err
	}

	now := s.now()
	user, err := domain.NewUser(idx.New().String(), email, hashed)
	if err != nil {
		return SignUpResult{}, err
	}
	user.CreatedAt, user.UpdatedAt = now, now

	profile, err := domain.NewProfile(idx.New().String(), user.ID, username)
	if err != nil {
		return SignUpResult{}, err
	}
	profile.CreatedAt, profile.UpdatedAt = now, now

	// 4. Persist user, profile and UserCreated together
	corrID := correlationID(ctx)
	var entries []domain.OutboxEntry
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailAlreadyInUse
			}
			return err
		}
		if err := tx.Profiles().CreateProfile(ctx, profile); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUsernameAlreadyTaken
			}
			return err
		}

		entry, err := s.publisher.Record(ctx, tx, corrID, domain.UserCreated{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		})
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			log.Error("failed to register user", slog.Any("error", err))
		}
		return SignUpResult{}, err
	}

	log.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("profile_id", profile.ID),
	)

	// 5. Publish after commit
	s.publisher.Publish(ctx, entries)

	// 6. Open a session
	token, err := s.Sessions.CreateSession(ctx, user.ID, profile.ID)
	if err != nil {
		log.Error("failed to create session", slog.String("user_id", user.ID), slog.Any("error", err))
		return SignUpResult{}, unexpected("create session", err)
	}

	return SignUpResult{ProfileID: profile.ID, SessionToken: token}, nil
}

// SignIn checks the credentials and opens a session for the user's profile.
func (s *UserProfileService) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	email, err := domain.NormaliseEmail(email)
	if err != nil {
		return SignInResult{}, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return SignInResult{}, err
	}

	// 2. Load the user outside any transaction
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SignInResult{}, ErrUserNotFound
		}
		log.Error("failed to look up user by email", slog.Any("error", err))
		return SignInResult{}, err
	}

	// 3. Check the password
	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Info("sign-in with wrong password", slog.String("user_id", user.ID))
			return SignInResult{}, domain.ErrPasswordWrong
		}
		log.Error("failed to verify password", slog.String("user_id", user.ID), slog.Any("error", err))
		return SignInResult{}, unexpected("verify password", err)
	}

	// 4. Load the profile
	profile, err := s.Store.Profiles().GetProfileByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Error("user has no profile", slog.String("user_id", user.ID))
			return SignInResult{}, ErrProfileNotFound
		}
		return SignInResult{}, err
	}

	// 5. Open a session
	token, err := s.Sessions.CreateSession(ctx, user.ID, profile.ID)
	if err != nil {
		log.Error("failed to create session", slog.String("user_id", user.ID), slog.Any("error", err))
		return SignInResult{}, unexpected("create session", err)
	}

	return SignInResult{ProfileID: profile.ID, SessionToken: token}, nil
}

// RequestPasswordReset issues a reset token for the user behind email. The
// token only leaves the service through the PasswordResetRequested event.
func (s *UserProfileService) RequestPasswordReset(ctx context.Context, email, requester string) error {
	log := slogx.FromContext(ctx)

	email, err := domain.NormaliseEmail(email)
	if err != nil {
		return err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate reset token", slog.Any("error", err))
		return unexpected("generate reset token", err)
	}

	now := s.now()
	corrID := correlationID(ctx)
	var (
		entries []domain.OutboxEntry
		userID  string
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().LockUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		userID = user.ID

		event, err := user.RequestPasswordReset(token, requester, now)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			return err
		}

		entry, err := s.publisher.Record(ctx, tx, corrID, event)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		if _, ok := domain.IsDomainError(err); ok || errors.Is(err, ErrUserNotFound) {
			log.Info("password reset refused", withUserID(userID, slog.Any("reason", err))...)
		} else {
			log.Error("failed to request password reset", slog.Any("error", err))
		}
		return err
	}

	log.Info("password reset requested", slog.String("user_id", userID))
	s.publisher.Publish(ctx, entries)
	return nil
}

// ResetPassword redeems a reset token and replaces the user's password.
func (s *UserProfileService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := slogx.FromContext(ctx)

	if token == "" {
		return domain.ErrInvalidPasswordResetToken
	}

	now := s.now()
	corrID := correlationID(ctx)
	var (
		entries []domain.OutboxEntry
		userID  string
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().LockUserByResetToken(ctx, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrInvalidPasswordResetToken
			}
			return err
		}
		userID = user.ID

		event, err := user.ResetPassword(token, newPassword, now, s.hash)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			return err
		}

		entry, err := s.publisher.Record(ctx, tx, corrID, event)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		if _, ok := domain.IsDomainError(err); ok {
			log.Info("password reset rejected", withUserID(userID, slog.Any("reason", err))...)
		} else {
			log.Error("failed to reset password", slog.Any("error", err))
		}
		return err
	}

	log.Info("password reset", slog.String("user_id", userID))
	s.publisher.Publish(ctx, entries)
	return nil
}

// ChangePassword replaces the password of the user behind email after
// checking oldPassword. Pending reset requests are discarded.
func (s *UserProfileService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	log := slogx.FromContext(ctx)

	email, err := domain.NormaliseEmail(email)
	if err != nil {
		return err
	}

	now := s.now()
	corrID := correlationID(ctx)
	var (
		entries []domain.OutboxEntry
		userID  string
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().LockUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		userID = user.ID

		if err := s.Hasher.Verify(oldPassword, user.PasswordHash); err != nil {
			if errors.Is(err, cryptox.ErrPasswordMismatch) {
				return domain.ErrPasswordWrong
			}
			return unexpected("verify password", err)
		}

		event, err := user.ChangePassword(newPassword, now, s.hash)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			return err
		}

		entry, err := s.publisher.Record(ctx, tx, corrID, event)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		if _, ok := domain.IsDomainError(err); ok || errors.Is(err, ErrUserNotFound) {
			log.Info("password change rejected", withUserID(userID, slog.Any("reason", err))...)
		} else {
			log.Error("failed to change password", slog.Any("error", err))
		}
		return err
	}

	log.Info("password changed", slog.String("user_id", userID))
	s.publisher.Publish(ctx, entries)
	return nil
}

// withUserID prefixes attrs with the user id once one is known. Failures
// before the user is resolved carry no id.
func withUserID(userID string, attrs ...any) []any {
	if userID == "" {
		return attrs
	}
	return append([]any{slog.String("user_id", userID)}, attrs...)
}

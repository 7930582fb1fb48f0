package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long a locally issued session stays valid.
const DefaultTTL = 24 * time.Hour

// minSecretLen is the HS256 key size floor (RFC 7518 §3.2).
const minSecretLen = 32

// jwtClaims is the token payload. The subject is the user id.
type jwtClaims struct {
	jwt.RegisteredClaims

	ProfileID string `json:"pid"`
}

// JWTIssuer signs HS256 session tokens with a shared secret.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewJWTIssuer(secret []byte, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("session: secret must be at least %d bytes", minSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTIssuer{secret: secret, issuer: issuer, ttl: ttl, Now: time.Now}, nil
}

func (j *JWTIssuer) CreateSession(_ context.Context, userID, profileID string) (string, error) {
	now := j.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			ID:        uuid.NewString(),
		},
		ProfileID: profileID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return token, nil
}

func (j *JWTIssuer) VerifySession(_ context.Context, token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.Now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	var claims jwtClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidSession, err)
	}
	if claims.Subject == "" || claims.ProfileID == "" {
		return Claims{}, fmt.Errorf("%w: missing subject or profile", ErrInvalidSession)
	}

	return Claims{
		SessionID: claims.ID,
		UserID:    claims.Subject,
		ProfileID: claims.ProfileID,
	}, nil
}

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/academe-hq/academe/internal/shared"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
)

// LocalAdapter is the built-in identity provider: bcrypt credentials in
// Postgres, HS256 bearer tokens.
type LocalAdapter struct {
	identities IdentityRepositoryPort
	secret     []byte
	tokenTTL   time.Duration
}

// NewLocalAdapter constructs a LocalAdapter.
func NewLocalAdapter(identities IdentityRepositoryPort, secret string, tokenTTL time.Duration) *LocalAdapter {
	return &LocalAdapter{identities: identities, secret: []byte(secret), tokenTTL: tokenTTL}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *LocalAdapter) Register(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", shared.Validation("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return "", shared.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	identity, err := a.identities.Create(ctx, email, string(hash))
	if err != nil {
		return "", err
	}
	return identity.ID.String(), nil
}

func (a *LocalAdapter) Login(ctx context.Context, email, password string) (string, string, error) {
	identity, found, err := a.identities.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", "", err
	}
	// Missing account and wrong password are indistinguishable to the caller.
	if !found {
		return "", "", shared.Unauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return "", "", shared.Unauthorized("invalid credentials")
	}

	authID := identity.ID.String()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   authID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", "", err
	}
	return signed, authID, nil
}

func (a *LocalAdapter) VerifyToken(ctx context.Context, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", shared.Unauthorized("invalid or expired token")
	}
	return claims.Subject, nil
}

func (a *LocalAdapter) Lookup(ctx context.Context, email string) (string, bool, error) {
	identity, found, err := a.identities.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || !found {
		return "", false, err
	}
	return identity.ID.String(), true, nil
}

func (a *LocalAdapter) DeleteUser(ctx context.Context, authID string) error {
	id, err := uuid.Parse(authID)
	if err != nil {
		return shared.InvalidID("invalid auth id")
	}
	return a.identities.Delete(ctx, id)
}

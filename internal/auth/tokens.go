package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
)

const (
	tokenIssuer   = "recipebox-server"
	tokenAudience = "recipebox-client"
)

// Claims are the decrypted contents of an access token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a freshly minted access token.
type IssuedToken struct {
	Value     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues and verifies PASETO v4.local access tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	duration time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service using a 32 byte symmetric key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", KeySize, len(key))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create PASETO symmetric key: %w", err)
	}

	return &TokenService{key: symmetricKey, duration: duration, now: time.Now}, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

// Issue creates an encrypted access token for user.
func (s *TokenService) Issue(user *domain.User) (*IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(s.duration)
	tokenID := uuid.NewString()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(user.ID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)
	token.SetJti(tokenID)
	if err := token.Set("email", user.Email); err != nil {
		return nil, fmt.Errorf("set email claim: %w", err)
	}

	return &IssuedToken{
		Value:     token.V4Encrypt(s.key, nil),
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify decrypts tokenString and checks issuer, audience and expiry.
// Expired tokens yield errors.ErrTokenExpired; every other failure is
// reported as unauthorized.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token")
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token")
	}
	if !s.now().Before(expiresAt) {
		return nil, domainerrors.ErrTokenExpired
	}

	claims := &Claims{ExpiresAt: expiresAt}
	if claims.UserID, err = token.GetSubject(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token")
	}
	if claims.TokenID, err = token.GetJti(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token")
	}
	claims.Email, _ = token.GetString("email")
	claims.IssuedAt, _ = token.GetIssuedAt()

	return claims, nil
}

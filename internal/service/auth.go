package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/id"
	"github.com/recipebox/recipebox-server/internal/metrics"
	"github.com/recipebox/recipebox-server/internal/store"
)

const msgBadCredentials = "unable to authenticate with provided credentials"

// AuthService handles accounts, token issuance and token verification.
type AuthService struct {
	store      store.Store
	tokens     *auth.TokenService
	revocation *auth.RevocationList
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokens *auth.TokenService,
	revocation *auth.RevocationList,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		store:      store,
		tokens:     tokens,
		revocation: revocation,
		logger:     logger,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=128"`
	Name     string `json:"name" validate:"required,notblank,max=255"`
}

// TokenRequest contains login credentials.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateMeRequest changes the caller's own account. Nil fields are absent.
type UpdateMeRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitnil,notblank,max=255"`
	Password *string `json:"password,omitempty" validate:"omitnil,min=5,max=128"`
}

// Register creates an active user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := validateInput(req, nil); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        domain.NormalizeEmail(req.Email),
		Name:         req.Name,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.ValidationField("email", "user with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// IssueToken checks credentials and returns a new access token.
// Unknown email, wrong password and inactive accounts are indistinguishable.
func (s *AuthService) IssueToken(ctx context.Context, req TokenRequest) (*auth.IssuedToken, error) {
	if err := validateInput(req, nil); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.LoginFailed()
			return nil, domainerrors.InvalidCredentials(msgBadCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) || !user.IsActive {
		metrics.LoginFailed()
		return nil, domainerrors.InvalidCredentials(msgBadCredentials)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.TokenIssued()
	s.logger.Info("Token issued", "user_id", user.ID)
	return token, nil
}

// Authenticate verifies a token and returns its active user.
// Used by the authentication middleware.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, *auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revocation.IsRevoked(claims.TokenID)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, domainerrors.ErrTokenRevoked
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, domainerrors.Unauthorized("user is inactive")
	}

	return user, claims, nil
}

// Me returns the user with userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateMe changes the caller's name and password. A full update requires
// both fields; a partial one changes only those present.
func (s *AuthService) UpdateMe(ctx context.Context, userID string, req UpdateMeRequest, partial bool) (*domain.User, error) {
	var missing domainerrors.FieldErrors
	if !partial {
		missing = requireFields(map[string]bool{
			"name":     req.Name != nil,
			"password": req.Password != nil,
		})
	}
	if err := validateInput(req, missing); err != nil {
		return nil, err
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", user.ID, "password_changed", req.Password != nil)
	return user, nil
}

// Logout revokes the token described by claims until it expires.
func (s *AuthService) Logout(_ context.Context, claims *auth.Claims) error {
	if err := s.revocation.Revoke(claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info("Token revoked", "user_id", claims.UserID, "token_id", claims.TokenID)
	return nil
}

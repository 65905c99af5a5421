package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	limited := huma.Middlewares{rateLimitOperation(s.authLimiter, s.logger)}

	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/user/create",
		Summary:       "Create user",
		Description:   "Registers a new account",
		Tags:          []string{"User"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   limited,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "createToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/user/token",
		Summary:     "Create token",
		Description: "Exchanges email and password for an access token",
		Tags:        []string{"User"},
		Middlewares: limited,
	}, s.handleCreateToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        "/api/v1/user/me",
		Summary:     "Get current user",
		Tags:        []string{"User"},
		Security:    bearerSecurity,
	}, s.handleGetMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceMe",
		Method:      http.MethodPut,
		Path:        "/api/v1/user/me",
		Summary:     "Update current user",
		Description: "Replaces name and password; both are required",
		Tags:        []string{"User"},
		Security:    bearerSecurity,
	}, s.handleReplaceMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/user/me",
		Summary:     "Partially update current user",
		Tags:        []string{"User"},
		Security:    bearerSecurity,
	}, s.handleUpdateMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/user/logout",
		Summary:     "Logout",
		Description: "Revokes the token used for this request",
		Tags:        []string{"User"},
		Security:    bearerSecurity,
	}, s.handleLogout)
}

// === DTOs ===

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id" doc:"User ID"`
	Email string `json:"email" doc:"Email address"`
	Name  string `json:"name" doc:"Display name"`
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body service.RegisterRequest
}

// CreateTokenInput wraps the login request for Huma.
type CreateTokenInput struct {
	Body service.TokenRequest
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	Token     string    `json:"token" doc:"Access token, sent as Authorization: Bearer <token>"`
	ExpiresAt time.Time `json:"expires_at" doc:"Token expiry"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// UpdateMeInput wraps the account update request for Huma.
type UpdateMeInput struct {
	Body service.UpdateMeRequest
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// MessageOutput wraps a message for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *CreateTokenInput) (*TokenOutput, error) {
	token, err := s.services.Auth.IssueToken(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &TokenOutput{Body: TokenResponse{Token: token.Value, ExpiresAt: token.ExpiresAt}}, nil
}

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleReplaceMe(ctx context.Context, input *UpdateMeInput) (*UserOutput, error) {
	return s.updateMe(ctx, input, false)
}

func (s *Server) handleUpdateMe(ctx context.Context, input *UpdateMeInput) (*UserOutput, error) {
	return s.updateMe(ctx, input, true)
}

func (s *Server) updateMe(ctx context.Context, input *UpdateMeInput, partial bool) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.UpdateMe(ctx, userID, input.Body, partial)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	claims, err := getClaims(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, claims); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "logged out"}}, nil
}

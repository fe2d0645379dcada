package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/domain/user"
	"github.com/shotbook/shotbook-api/internal/pkg/apperror"
	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/jwt"
	"github.com/shotbook/shotbook-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	tokens     TokenStore
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, tokens TokenStore) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokens:     tokens,
	}
}

// Register creates a client account and signs it in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, user.ErrEmailAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         authz.RoleClient,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		u.Phone = sql.NullString{String: phone, Valid: true}
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return s.generateTokens(ctx, u)
}

// Login verifies credentials and issues tokens
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, u)
}

// Refresh rotates a refresh token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	userID, err := s.tokens.Take(ctx, jwt.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if userID != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidRefreshToken
	}

	return s.generateTokens(ctx, u)
}

// Logout invalidates a refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, jwt.HashRefreshToken(refreshToken))
}

// Me returns the caller's account
func (s *Service) Me(ctx context.Context, caller authz.Caller) (*UserResponse, error) {
	if err := authz.Require(caller, authz.RoleClient); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	resp := NewUserResponse(u)
	return &resp, nil
}

// EnsureAdmin makes sure an admin account exists for email, creating it or
// promoting an existing user. The password is only used on creation.
func (s *Service) EnsureAdmin(ctx context.Context, email, plainPassword string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.IsAdmin() {
			return nil
		}
		log.Info().Str("user_id", existing.ID.String()).Msg("promoting bootstrap user to admin")
		return s.userRepo.UpdateRole(ctx, existing.ID, authz.RoleAdmin)
	}

	if len(plainPassword) < 6 {
		return apperror.InvalidInput("bootstrap admin password must be at least 6 characters")
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         authz.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return err
	}

	log.Info().Str("user_id", u.ID.String()).Msg("bootstrap admin created")
	return nil
}

// generateTokens creates access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, _, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	// only the hash is stored, the raw token goes to the client
	if err := s.tokens.Save(ctx, jwt.HashRefreshToken(refreshToken), u.ID, s.jwtService.GetRefreshTTL()); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "bearer",
		},
	}, nil
}

// normalizeEmail makes email lookups case-insensitive
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

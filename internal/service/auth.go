package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/transport"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/hash"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/logging"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/tokens"
)

type AuthService struct {
	Users         *repo.UserRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Users.CreateUserIfNotExists(ctx, user); err != nil {
		if err == repo.ErrEmailAlreadyUsed {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		l.Error("register failed", "error", err)
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", req.Email)

	user, err := s.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repo.ErrUserNotFound {
			l.Warn("login failed", "reason", "unknown email")
			return nil, fmt.Errorf("%w: invalid email or password", ErrValidation)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login failed", "reason", "bad password")
		return nil, fmt.Errorf("%w: invalid email or password", ErrValidation)
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	ok, err := s.Users.RefreshTokenValid(ctx, refreshToken, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: refresh token expired or revoked", ErrValidation)
	}

	userID, err := parseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.Users.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.Users.RevokeRefreshToken(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	subject := fmt.Sprint(user.ID)

	accessExp := time.Now().Add(tokens.AccessTTL)
	access, err := tokens.SignAccessToken(subject, user.Role, s.JWTSecret, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refresh, err := tokens.SignRefreshToken(subject, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Users.SaveRefreshToken(ctx, refresh, user.ID, refreshExp.Unix()); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func parseUserID(subject string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(subject, "%d", &id); err != nil {
		return 0, err
	}
	return id, nil
}

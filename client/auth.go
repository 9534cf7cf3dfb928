package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

type AuthService struct {
	gw *Gateway
}

// CurrentUser is the cached display profile. It says nothing about whether
// the session is still valid on the server.
type CurrentUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Role     string `json:"role"`
}

// Login authenticates and installs the returned token and display profile.
func (s *AuthService) Login(ctx context.Context, username, password string) (*v1.TokenResponse, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidArgument)
	}

	var tr v1.TokenResponse
	if err := call(ctx, s.gw, post, constraints.PathLogin, nil, v1.LoginRequest{
		Username: username,
		Password: password,
	}, &tr); err != nil {
		return nil, err
	}
	if tr.Username == "" {
		tr.Username = username
	}
	if err := s.gw.establish(ctx, tr); err != nil {
		return nil, err
	}
	logger.Info("logged in", zap.String("username", tr.Username))
	return &tr, nil
}

func (s *AuthService) Register(ctx context.Context, req v1.RegisterRequest) (string, error) {
	if req.Password != req.ConfirmPassword {
		return "", fmt.Errorf("%w: passwords do not match", ErrInvalidArgument)
	}
	if !ValidEmail(req.Email) {
		return "", fmt.Errorf("%w: invalid email %q", ErrInvalidArgument, req.Email)
	}
	return message(ctx, s.gw, post, constraints.PathRegister, nil, req)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	return message(ctx, s.gw, get, constraints.PathVerifyEmail, url.Values{"token": {token}}, nil)
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	return message(ctx, s.gw, post, constraints.PathResendVerification, url.Values{"email": {email}}, nil)
}

func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) (string, error) {
	if newPassword != confirmPassword {
		return "", fmt.Errorf("%w: passwords do not match", ErrInvalidArgument)
	}
	return message(ctx, s.gw, patch, constraints.PathChangePassword, nil, v1.ChangePasswordRequest{
		OldPassword:     oldPassword,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	})
}

// Logout tells the backend to revoke the refresh cookie, then always ends
// the local session even if that call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	_, err := s.gw.Do(ctx, &Request{Method: post, Path: constraints.PathLogout})
	if err != nil {
		logger.Warn("server logout failed, clearing local session anyway", zap.Error(err))
	}
	s.gw.EndSession(ctx)
	return err
}

// IsAuthenticated reports whether a bearer token is held in memory.
func (s *AuthService) IsAuthenticated() bool {
	return s.gw.Token() != ""
}

func (s *AuthService) CurrentUser(ctx context.Context) (CurrentUser, error) {
	var u CurrentUser
	fields := []struct {
		key string
		dst *string
	}{
		{constraints.DisplayUsername, &u.Username},
		{constraints.DisplayName, &u.Name},
		{constraints.DisplayImageURL, &u.ImageURL},
		{constraints.DisplayRole, &u.Role},
	}
	for _, f := range fields {
		v, err := s.gw.store.Get(ctx, f.key)
		if err != nil {
			return CurrentUser{}, err
		}
		*f.dst = v
	}
	return u, nil
}

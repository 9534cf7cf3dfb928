package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	logger.InitLogger("test")
}

func newAuth(t *testing.T) (*AuthService, *model.User) {
	t.Helper()
	svc := NewAuthService(repository.NewMemoryUserRepository(), repository.NewMemorySessionRepository(), "test-key", time.Minute, time.Hour)
	svc.hashCost = bcrypt.MinCost
	u, err := svc.SeedUser(context.Background(), model.User{Username: "alice", Email: "alice@example.com", Name: "Alice"}, "secret")
	require.NoError(t, err)
	return svc, u
}

func TestAuthService_LoginIssuesPair(t *testing.T) {
	svc, u := newAuth(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, v1.LoginRequest{Username: "alice", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, v1.LoginRequest{Username: "bob", Password: "secret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := svc.Login(ctx, v1.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, sess.Body.AccessToken)
	require.NotEmpty(t, sess.RefreshToken)
	require.Equal(t, "Alice", sess.Body.Name)
	require.Equal(t, "customer", sess.Body.Role)
	require.EqualValues(t, 60, sess.Body.ExpiresIn)

	id, err := svc.ParseAccessToken(sess.Body.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, id.UserID)
	require.Equal(t, "alice", id.Username)

	_, err = svc.ParseAccessToken(sess.RefreshToken)
	require.ErrorIs(t, err, ErrTokenInvalid, "a refresh token is not a bearer token")
}

func TestAuthService_RefreshRotates(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	sess, err := svc.Login(ctx, v1.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, sess.Body.AccessToken, next.Body.AccessToken)
	require.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, ErrTokenInvalid, "rotated token is no longer on the allow-list")

	_, err = svc.Refresh(ctx, next.Body.AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_LogoutRevokesRefresh(t *testing.T) {
	svc, u := newAuth(t)
	ctx := context.Background()
	sess, err := svc.Login(ctx, v1.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = svc.Refresh(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestAuthService_RejectsForeignSignature(t *testing.T) {
	svc, _ := newAuth(t)
	claims := UserClaims{
		UserID: "1",
		Kind:   kindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-key"))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(forged)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_ExpiredAccessToken(t *testing.T) {
	svc, u := newAuth(t)
	token, err := svc.sign(u, kindAccess, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_RegisterAndVerify(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, v1.RegisterRequest{Username: "bob", Password: "a", ConfirmPassword: "b", Email: "bob@example.com"})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = svc.Register(ctx, v1.RegisterRequest{Username: "alice", Password: "pw", ConfirmPassword: "pw", Email: "other@example.com"})
	require.ErrorIs(t, err, ErrUserExists)

	token, err := svc.Register(ctx, v1.RegisterRequest{Username: "bob", Password: "pw", ConfirmPassword: "pw", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, v1.LoginRequest{Username: "bob", Password: "pw"})
	require.ErrorIs(t, err, ErrNotVerified)

	require.NoError(t, svc.ResendVerification(ctx, "bob@example.com"))
	require.ErrorIs(t, svc.VerifyEmail(ctx, token), ErrTokenInvalid, "resend rotates the token")

	u, err := svc.users.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, u.VerificationToken))

	_, err = svc.Login(ctx, v1.LoginRequest{Username: "bob", Password: "pw"})
	require.NoError(t, err)
}

func TestAuthService_ChangePasswordAndProfile(t *testing.T) {
	svc, u := newAuth(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.ID, v1.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "n", ConfirmPassword: "n"})
	require.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, v1.ChangePasswordRequest{OldPassword: "secret", NewPassword: "n3w", ConfirmPassword: "n3w"}))
	_, err = svc.Login(ctx, v1.LoginRequest{Username: "alice", Password: "n3w"})
	require.NoError(t, err)

	p, err := svc.UpdateProfile(ctx, u.ID, v1.ProfileRequest{Phone: "0912345678"})
	require.NoError(t, err)
	require.Equal(t, "Alice", p.Name)
	require.Equal(t, "0912345678", p.Phone)
}

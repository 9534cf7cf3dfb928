package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	RefreshTokenTTL = 7 * 24 * time.Hour
	AccessTokenTTL  = 15 * time.Minute
	Issuer          = "storefront-dev-backend"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotVerified        = errors.New("email not verified")
	ErrUserExists         = errors.New("username or email already registered")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrInvalidInput       = errors.New("invalid input")
)

type UserClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	Role     string `json:"role"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// Session is what login and refresh hand back: the JSON body for the client
// plus the refresh token that goes into the cookie.
type Session struct {
	Body         v1.TokenResponse
	RefreshToken string
	RefreshTTL   time.Duration
}

type AuthService struct {
	users           repository.UserRepository
	sessions        repository.SessionRepository
	signingKey      []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	hashCost        int
	now             func() time.Time
}

type AuthOption func(*AuthService)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, signingKey string, accessTokenTTL, refreshTokenTTL time.Duration, opts ...AuthOption) *AuthService {
	if accessTokenTTL <= 0 {
		accessTokenTTL = AccessTokenTTL
	}
	if refreshTokenTTL <= 0 {
		refreshTokenTTL = RefreshTokenTTL
	}
	s := &AuthService{
		users:           users,
		sessions:        sessions,
		signingKey:      []byte(signingKey),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		hashCost:        bcrypt.DefaultCost,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedUser creates a verified account, used by the dev server and tests.
func (s *AuthService) SeedUser(ctx context.Context, u model.User, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = string(hash)
	u.Verified = true
	if u.Role == "" {
		u.Role = string(constraints.RoleCustomer)
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates a user and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, req v1.LoginRequest) (*Session, error) {
	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Verified {
		return nil, ErrNotVerified
	}
	return s.issue(ctx, u)
}

// Refresh rotates the pair. The presented token must be the one on the
// allow-list, so a replayed old refresh token is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.parse(refreshToken, kindRefresh)
	if err != nil {
		return nil, err
	}

	stored, err := s.sessions.Get(ctx, claims.UserID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if stored != refreshToken {
		return nil, ErrTokenInvalid
	}

	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return s.issue(ctx, u)
}

func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Delete(ctx, strconv.FormatInt(userID, 10))
}

// RevokeRefreshToken ends the session a refresh cookie belongs to. Invalid
// or already revoked tokens are ignored.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	claims, err := s.parse(refreshToken, kindRefresh)
	if err != nil {
		return nil
	}
	stored, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil || stored != refreshToken {
		return nil
	}
	return s.sessions.Delete(ctx, claims.UserID)
}

// ParseAccessToken validates a bearer token and returns its identity.
func (s *AuthService) ParseAccessToken(token string) (*Identity, error) {
	claims, err := s.parse(token, kindAccess)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &Identity{UserID: id, Username: claims.Username, Role: claims.Role}, nil
}

// Register creates an unverified account and returns its verification token.
func (s *AuthService) Register(ctx context.Context, req v1.RegisterRequest) (string, error) {
	if req.Password != req.ConfirmPassword {
		return "", ErrPasswordMismatch
	}
	if strings.TrimSpace(req.Username) == "" || !strings.Contains(req.Email, "@") {
		return "", ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return "", err
	}
	u := &model.User{
		Username:          req.Username,
		PasswordHash:      string(hash),
		Email:             req.Email,
		Name:              req.Name,
		Phone:             req.Phone,
		Role:              string(constraints.RoleCustomer),
		VerificationToken: uuid.NewString(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return "", ErrUserExists
		}
		return "", err
	}
	logger.Info("verification mail queued",
		zap.String("username", u.Username),
		zap.String("email", u.Email))
	return u.VerificationToken, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		return ErrTokenInvalid
	}
	u.Verified = true
	u.VerificationToken = ""
	return s.users.Update(ctx, u)
}

// ResendVerification rotates the verification token. Unknown or already
// verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil || u.Verified {
		return nil
	}
	u.VerificationToken = uuid.NewString()
	logger.Info("verification mail re-sent", zap.String("email", u.Email))
	return s.users.Update(ctx, u)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req v1.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.users.Update(ctx, u)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*v1.Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileOf(u), nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req v1.ProfileRequest) (*v1.Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return profileOf(u), nil
}

func profileOf(u *model.User) *v1.Profile {
	return &v1.Profile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Phone:    u.Phone,
	}
}

func (s *AuthService) parse(token, kind string) (*UserClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*UserClaims)
	if !ok || !parsed.Valid || claims.Kind != kind {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *AuthService) sign(u *model.User, kind string, ttl time.Duration, now time.Time) (string, error) {
	claims := UserClaims{
		UserID:   strconv.FormatInt(u.ID, 10),
		Username: u.Username,
		Role:     u.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (*Session, error) {
	now := s.now()
	accessToken, err := s.sign(u, kindAccess, s.accessTokenTTL, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sign(u, kindRefresh, s.refreshTokenTTL, now)
	if err != nil {
		return nil, err
	}

	// One live refresh token per user.
	if err := s.sessions.Save(ctx, strconv.FormatInt(u.ID, 10), refreshToken, s.refreshTokenTTL); err != nil {
		return nil, err
	}

	return &Session{
		Body: v1.TokenResponse{
			AccessToken: accessToken,
			ExpiresIn:   int64(s.accessTokenTTL.Seconds()),
			Username:    u.Username,
			Name:        u.Name,
			ImageURL:    u.ImageURL,
			Role:        u.Role,
		},
		RefreshToken: refreshToken,
		RefreshTTL:   s.refreshTokenTTL,
	}, nil
}

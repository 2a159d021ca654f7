package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = time.Hour
	minSigningKey   = 16
	tokenIssuer     = "core-innovators"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUsernameEmpty      = errors.New("username is empty")
	ErrPasswordEmpty      = errors.New("password is empty")
	ErrWeakSigningKey     = errors.New("jwt signing key is too short")
)

// RecipientClaimer sets the alert recipient unless one is already saved.
type RecipientClaimer interface {
	ClaimNotificationEmail(ctx context.Context, email string) (bool, error)
}

type AuthOptions struct {
	SigningKey string
	// TokenTTL <= 0 means DefaultTokenTTL.
	TokenTTL time.Duration
	// Recipients, when set, receives the email of every new account.
	Recipients RecipientClaimer
	Now        func() time.Time
	Log        *logger.Logger
}

// SignUpInput is a new household account. Email is optional.
type SignUpInput struct {
	Username string
	Password string
	Email    string
}

// AuthService manages household accounts and the bearer tokens that carry
// their identity.
type AuthService struct {
	users      repository.UserRepo
	recipients RecipientClaimer
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
	log        *logger.Logger
}

// NewAuthService builds the auth service. The signing key must be at least
// 16 bytes.
func NewAuthService(users repository.UserRepo, opts AuthOptions) (*AuthService, error) {
	if len(opts.SigningKey) < minSigningKey {
		return nil, ErrWeakSigningKey
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		users:      users,
		recipients: opts.Recipients,
		signingKey: []byte(opts.SigningKey),
		tokenTTL:   opts.TokenTTL,
		now:        opts.Now,
		log:        opts.Log,
	}, nil
}

// SignUp creates an account. A supplied email becomes the alert recipient
// when none has been saved yet.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (int, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return 0, ErrUsernameEmpty
	}
	email := strings.TrimSpace(in.Email)
	if email != "" && !validEmail(email) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return 0, err
	}

	id, err := s.users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return 0, err
	}

	if email != "" && s.recipients != nil {
		claimed, err := s.recipients.ClaimNotificationEmail(ctx, email)
		switch {
		case err != nil && s.log != nil:
			s.log.Warnw("sign_up_claim_recipient_failed", "user_id", id, "error", err)
		case claimed && s.log != nil:
			s.log.Infow("notification_email_claimed", "user_id", id, "email", email)
		}
	}
	return id, nil
}

// Claims are the JWT claims of an access token. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// GenerateToken checks credentials and issues an access token. Unknown users
// and wrong passwords both report ErrInvalidCredentials.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(models.Identity{UserID: u.ID, Username: u.Username})
}

// ParseToken validates an access token and returns the identity it carries.
func (s *AuthService) ParseToken(accessToken string) (models.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(accessToken, claims,
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return models.Identity{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return models.Identity{UserID: id, Username: claims.Username}, nil
}

// Profile returns the account behind an identity.
func (s *AuthService) Profile(ctx context.Context, userID int) (models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return u, err
}

func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordEmpty
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) issueToken(id models.Identity) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(id.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Username: id.Username,
	})
	return token.SignedString(s.signingKey)
}

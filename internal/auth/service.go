// Package auth implements the credential side of the development API:
// argon2id password hashing and HS256 bearer tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/gosuda/taskboard/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserAlreadyExists  = errors.New("auth: user already exists")
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 7 * 24 * time.Hour

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Account is a registered user as stored by the development API.
type Account struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User returns the public profile of the account.
func (a *Account) User() domain.User {
	created := domain.NewTimestamp(a.CreatedAt)
	updated := domain.NewTimestamp(a.UpdatedAt)
	return domain.User{ID: a.ID, Username: a.Username, Email: a.Email, CreatedAt: &created, UpdatedAt: &updated}
}

// UserRepository stores accounts. Lookups return domain.ErrNotFound for
// unknown accounts and Create returns domain.ErrConflict for a taken email.
type UserRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id int) (*Account, error)
}

// Service provides authentication operations.
type Service struct {
	userRepo  UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

// NewService creates a new auth service. tokenTTL <= 0 selects DefaultTokenTTL.
func NewService(userRepo UserRepository, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new account and signs it in.
// The password is hashed with argon2id before storage.
func (s *Service) Register(ctx context.Context, username, email, password string) (*domain.AuthResponse, error) {
	email = normalizeEmail(email)

	// Check if user already exists.
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("auth.Register: %w", ErrUserAlreadyExists)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	now := time.Now()
	account := &Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("auth.Register: %w", ErrUserAlreadyExists)
		}
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	resp, err := s.issue(account)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}
	return resp, nil
}

// Login validates email/password and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	account, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !verifyPassword(password, account.PasswordHash) {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	resp, err := s.issue(account)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}
	return resp, nil
}

// Verify validates a bearer token and returns the account it was issued to.
func (s *Service) Verify(ctx context.Context, token string) (*Account, error) {
	claims, err := ValidateToken(s.jwtSecret, token)
	if err != nil {
		return nil, fmt.Errorf("auth.Verify: %w", err)
	}
	account, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth.Verify: %w", ErrInvalidToken)
	}
	return account, nil
}

func (s *Service) issue(a *Account) (*domain.AuthResponse, error) {
	token, expires, err := IssueToken(s.jwtSecret, a, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{
		Token:     token,
		Username:  a.Username,
		Email:     a.Email,
		ExpiresAt: domain.NewTimestamp(expires.UTC()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	saltHex, hashHex, ok := strings.Cut(encoded, "$")
	if !ok || saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expectedHash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(computed, expectedHash) == 1
}

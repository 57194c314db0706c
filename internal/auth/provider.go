package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Identity error codes. Callers map these to user-facing messages via
// UserMessage; anything else is an infrastructure failure.
var (
	ErrInvalidEmail  = errors.New("auth/invalid-email")
	ErrUserNotFound  = errors.New("auth/user-not-found")
	ErrWrongPassword = errors.New("auth/wrong-password")
	ErrEmailInUse    = errors.New("auth/email-already-in-use")
	ErrWeakPassword  = errors.New("auth/weak-password")
)

const minPasswordLength = 6

// Provider is the identity collaborator: it supplies sign-up and sign-in and
// yields a stable user identifier plus email for each account.
type Provider struct {
	db *sql.DB
}

// NewProvider creates a Provider over an initialized database.
func NewProvider(db *sql.DB) *Provider {
	return &Provider{db: db}
}

// SignUp registers a new account and returns its user ID.
func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}

	var existing string
	err := p.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&existing)
	if err == nil {
		return "", ErrEmailInUse
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.NewString()
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		userID, email, string(hash), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	return userID, nil
}

// SignIn checks the credentials and returns the account's user ID.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrInvalidEmail
	}

	var userID, hash string
	err := p.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ?`, email,
	).Scan(&userID, &hash)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrWrongPassword
	}

	return userID, nil
}

// normalizeEmail lowercases and validates the address, returning "" when it
// is not a plausible email.
func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

package auth

import (
	"context"
	"path/filepath"
	"testing"

	"nutriplan/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProvider(db.SQL)
}

func TestSignUpAndSignIn(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	userID, err := p.SignUp(ctx, "Jane@Example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	// Email is matched case-insensitively.
	sameID, err := p.SignIn(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, userID, sameID)
}

func TestSignUpRejectsBadInput(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = p.SignUp(ctx, "jane@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "JANE@example.com", "different1")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestSignInFailures(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "jane@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = p.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = p.SignIn(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Please enter a valid email address.", UserMessage(ErrInvalidEmail))
	assert.Equal(t, "No account found with that email. Please sign up.", UserMessage(ErrUserNotFound))
	assert.Equal(t, "Incorrect password. Please try again.", UserMessage(ErrWrongPassword))
	assert.Equal(t, "An account already exists with this email address.", UserMessage(ErrEmailInUse))
	assert.Equal(t, "Password should be at least 6 characters.", UserMessage(ErrWeakPassword))
	assert.Equal(t, "An unexpected error occurred. Please try again.", UserMessage(assert.AnError))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := SignToken(secret, "user-1", "jane@example.com")
	require.NoError(t, err)

	claims, err := VerifyToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)

	_, err = VerifyToken([]byte("other-secret"), token)
	assert.Error(t, err)

	_, err = VerifyToken(secret, "not.a.token")
	assert.Error(t, err)
}

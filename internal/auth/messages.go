package auth

import "errors"

// UserMessage maps an identity error to the message shown to the user.
// Unrecognized errors map to a generic message; the underlying detail is for
// logs only.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrUserNotFound):
		return "No account found with that email. Please sign up."
	case errors.Is(err, ErrWrongPassword):
		return "Incorrect password. Please try again."
	case errors.Is(err, ErrEmailInUse):
		return "An account already exists with this email address."
	case errors.Is(err, ErrWeakPassword):
		return "Password should be at least 6 characters."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// IsCredentialError reports whether err is one of the typed identity errors,
// as opposed to an infrastructure failure.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrWrongPassword) ||
		errors.Is(err, ErrEmailInUse) ||
		errors.Is(err, ErrWeakPassword)
}

// Package auth provides account registration, credential checks and JWT
// session tokens.
package auth

import (
	"context"

	"github.com/mmynk/debtwise/internal/models"
)

// Authenticator registers and verifies users. Implementations decide what a
// credential is; PasswordAuthenticator treats it as a password.
type Authenticator interface {
	// Register creates an account. It returns ErrEmailExists for a taken
	// email and the implementation's validation error for a bad credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user whose credential matches, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}

// Package auth implements the per-memory password gate: bcrypt hashing on
// create, constant-time verification on access. bcrypt generates a random
// salt per hash and embeds it in the output, so the stored string is
// self-contained and plain equality is never used.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by Verify when the candidate password does not
// match the stored hash. Callers translate it into a generic "incorrect
// password" response without revealing anything else.
var ErrMismatch = errors.New("auth: password mismatch")

// defaultCost is the bcrypt work factor, ~250ms per hash on current server
// hardware. Tunable downward in tests via NewPasswordServiceWithCost.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification. The cost is a
// struct field (rather than a package constant baked into free functions) so
// tests can inject bcrypt.MinCost and skip the ~250ms per operation.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom bcrypt
// cost. Tests use bcrypt.MinCost; production code should not.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password. bcrypt silently truncates input beyond
// 72 bytes, so longer passwords are rejected explicitly instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a candidate password against a stored bcrypt hash. Returns
// nil on match, ErrMismatch on a wrong password, and a wrapped error for
// anything else (e.g. a corrupted hash). The comparison inside bcrypt is
// constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

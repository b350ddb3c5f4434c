package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/isdelr/resume-bot-be/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of password. Passwords longer
// than MaxPasswordBytes fail with common.ErrValidation.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, MaxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks password against a stored hash. Stored values that
// are bare hex SHA-256 digests come from the legacy schema; they still
// verify, and needsRehash tells the caller to upgrade them.
func VerifyPassword(stored, password string) (ok bool, needsRehash bool) {
	if isLegacyDigest(stored) {
		sum := sha256.Sum256([]byte(password))
		digest := hex.EncodeToString(sum[:])
		match := subtle.ConstantTimeCompare([]byte(digest), []byte(stored)) == 1
		return match, match
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
}

func isLegacyDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

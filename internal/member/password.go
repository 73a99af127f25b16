package member

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a stored bcrypt hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// tempPasswordAlphabet holds the printable characters used for provisioning
// placeholder credentials. 62 symbols keeps the draw unbiased after rejection
// sampling below.
const tempPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const tempPasswordLength = 10

// tempPassword generates a random placeholder password for social members.
// The value is hashed and never communicated to anyone, but it is drawn from
// crypto/rand anyway so no future code path can exploit a predictable seed.
func tempPassword() (string, error) {
	// Largest multiple of len(alphabet) that fits in a byte; bytes at or
	// above it are rejected to avoid modulo bias.
	limit := byte(256 - 256%len(tempPasswordAlphabet))
	out := make([]byte, 0, tempPasswordLength)
	buf := make([]byte, 32)
	for len(out) < tempPasswordLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)])
			if len(out) == tempPasswordLength {
				break
			}
		}
	}
	return string(out), nil
}

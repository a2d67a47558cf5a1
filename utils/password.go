package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with its possible plaintext equivalent.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ResolvePasswordHash prefers a configured bcrypt hash and otherwise hashes the
// plaintext password so it is never kept in memory after boot.
func ResolvePasswordHash(plain, hash string) (string, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return "", errors.New("admin password hash is not a bcrypt hash")
		}
		return hash, nil
	}
	if plain == "" {
		return "", errors.New("admin password is not configured")
	}
	return HashPassword(plain)
}

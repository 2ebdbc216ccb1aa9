package users

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor used when no cost is configured.
// bcrypt salts every hash, so hashing one plaintext twice yields two
// different stored values that both verify.
const DefaultHashCost = 12

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, DefaultHashCost)
}

// HashPasswordCost will generate a password hash with an explicit work factor
func HashPasswordCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with a fresh random salt.
// Two calls on the same input produce different hashes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed
// hash yields false rather than an error so callers cannot tell a bad
// password from a bad record.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

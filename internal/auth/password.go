package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt hash for the provided password. Each
// call produces a distinct hash because bcrypt generates a fresh salt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the stored hash. A malformed
// hash counts as a mismatch rather than an error.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

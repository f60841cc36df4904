package auth

import (
	"crypto/subtle"

	"chatpanel/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckAdminPassword verifies the single admin credential. A bcrypt hash is
// preferred; the plaintext ADMIN_PASSWORD comparison exists for local setups
// and is constant-time either way.
func CheckAdminPassword(password string) bool {
	if hash := config.AppConfig.AdminPasswordHash; hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	expected := config.AppConfig.AdminPassword
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
}

package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a salted one-way digest of the password. The
// digest differs between calls for the same input because bcrypt embeds
// a random salt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword returns nil if the digest is a valid hash of the
// password.
func CheckPassword(digest string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
}

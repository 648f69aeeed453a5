package service

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type backendClaims struct {
	jwtlib.RegisteredClaims
	Role     string `json:"role"`
	Username string `json:"username"`
	Name     string `json:"name"`
	StoreID  string `json:"store_id"`
}

type tokenClaims struct {
	Subject   string
	Username  string
	Name      string
	Role      string
	StoreID   string
	ExpiresAt time.Time
}

// readTokenClaims reads the backend token without verifying it; the backend
// is the only party holding the signing key and rejects bad tokens itself.
// Opaque tokens yield empty claims.
func readTokenClaims(token string) tokenClaims {
	claims := &backendClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return tokenClaims{}
	}
	out := tokenClaims{
		Subject:  claims.Subject,
		Username: claims.Username,
		Name:     claims.Name,
		Role:     claims.Role,
		StoreID:  claims.StoreID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out
}

func hashSupervisorPIN(pin string) string {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return ""
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(hashed)
}

// ValidateSupervisorPIN reports whether pin unlocks a manual discount above
// the cashier limit. Always false when no supervisor PIN is configured.
func (s *Service) ValidateSupervisorPIN(pin string) bool {
	input := strings.TrimSpace(pin)
	if input == "" || s.superHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.superHash), []byte(input)) == nil
}

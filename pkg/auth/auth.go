package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Authenticator verifies admin credentials and mints the short-lived JWT
// the dashboard uses for its polling calls.
type Authenticator struct {
	passwordHash string
	staticToken  string
	jwtSecret    []byte
	jwtExpiry    time.Duration
}

func NewAuthenticator(passwordHash, staticToken, jwtSecret string, jwtExpiryMinutes int) *Authenticator {
	if jwtExpiryMinutes <= 0 {
		jwtExpiryMinutes = 60
	}
	return &Authenticator{
		passwordHash: passwordHash,
		staticToken:  staticToken,
		jwtSecret:    []byte(jwtSecret),
		jwtExpiry:    time.Duration(jwtExpiryMinutes) * time.Minute,
	}
}

// VerifyPassword checks a Basic-auth password against the bcrypt hash.
// Only usable when a hash is configured.
func (a *Authenticator) VerifyPassword(password string) error {
	if a.passwordHash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HasPasswordAuth reports whether Basic auth is configured; it takes
// precedence over the static token when both are set.
func (a *Authenticator) HasPasswordAuth() bool {
	return a.passwordHash != ""
}

// Unprotected reports that no admin credential of any kind is
// configured. The admin surface then accepts every request; main logs
// a loud warning at startup.
func (a *Authenticator) Unprotected() bool {
	return a.passwordHash == "" && a.staticToken == "" && len(a.jwtSecret) == 0
}

// VerifyStaticToken checks the shared admin token.
func (a *Authenticator) VerifyStaticToken(token string) error {
	if a.staticToken == "" {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.staticToken)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken mints an admin session JWT.
func (a *Authenticator) GenerateToken() (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": now.Unix(),
		"exp": now.Add(a.jwtExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks a JWT minted by GenerateToken.
func (a *Authenticator) ValidateToken(tokenString string) error {
	if len(a.jwtSecret) == 0 {
		return ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

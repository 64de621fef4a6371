package github

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GitHub rejects app JWTs that live longer than 10 minutes
const appJWTLifetime = 10 * time.Minute

func parseAppPrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// generateAppJWT signs the assertion used to authenticate as the GitHub App itself
func generateAppJWT(appID string, key *rsa.PrivateKey, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(appJWTLifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iat": jwt.NewNumericDate(now.Add(-60 * time.Second)), // 60 seconds in past for clock drift
		"exp": jwt.NewNumericDate(expiresAt),
		"iss": appID,
	})

	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenLifetime = 30 * 24 * time.Hour

// JWT signs player tokens with RS256.
type JWT struct {
	publicKey     *rsa.PublicKey
	privateKey    *rsa.PrivateKey
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

// NewJWT loads the PEM keys from JWT_PRIVATE_KEY and JWT_PUBLIC_KEY, or the
// files their _FILE variants name. JWT_LIFETIME overrides the 30 day token
// lifetime.
func NewJWT() (*JWT, error) {
	privatePEM, err := secret("JWT_PRIVATE_KEY")
	if err != nil {
		return nil, err
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT private key: %w", err)
	}

	publicPEM, err := secret("JWT_PUBLIC_KEY")
	if err != nil {
		return nil, err
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT public key: %w", err)
	}

	lifetime, err := tokenLifetime()
	if err != nil {
		return nil, err
	}

	return &JWT{
		privateKey:    privateKey,
		publicKey:     publicKey,
		signingMethod: jwt.SigningMethodRS256,
		tokenLifetime: lifetime,
	}, nil
}

func tokenLifetime() (time.Duration, error) {
	s, ok := os.LookupEnv("JWT_LIFETIME")
	if !ok || s == "" {
		return defaultTokenLifetime, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("JWT_LIFETIME must be a positive duration")
	}
	return d, nil
}

// NewJWTWithKey signs with key and verifies with its public half.
func NewJWTWithKey(key *rsa.PrivateKey, lifetime time.Duration) *JWT {
	return &JWT{
		privateKey:    key,
		publicKey:     &key.PublicKey,
		signingMethod: jwt.SigningMethodRS256,
		tokenLifetime: lifetime,
	}
}

func (j *JWT) TokenLifetime() time.Duration {
	return j.tokenLifetime
}

// Sign stamps PlayerClaims with a fresh expiry before signing.
func (j *JWT) Sign(claims jwt.Claims) (string, error) {
	if pc, ok := claims.(*PlayerClaims); ok {
		pc.ExpiresAt = jwt.NewNumericDate(time.Now().Add(j.tokenLifetime))
	}
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.privateKey)
}

func (j *JWT) ParseWithClaims(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	return jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return j.publicKey, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
}

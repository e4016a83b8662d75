// Package auth signs session tokens and guards password-protected tables.
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long a token stays valid; 0 means no exp claim.
	tokenTTL time.Duration
)

// ErrNoKeys is returned when tokens are used before Init.
var ErrNoKeys = errors.New("auth keys not initialised")

// Init generates a fresh ed25519 key pair. Tokens from a previous process are invalid afterwards.
func Init(ttl time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey, tokenTTL = pub, priv, ttl
	return nil
}

// InitFromPath reads raw ed25519 private/public keys from file.
func InitFromPath(privatePath, publicPath string, ttl time.Duration) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return fmt.Errorf("key files have unexpected sizes")
	}

	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	tokenTTL = ttl
	return nil
}

// CreateJWT signs a token naming the player ("sub") and the session ("gid").
func CreateJWT(gameID uuid.UUID, playerID int) (string, error) {
	if privateKey == nil {
		return "", ErrNoKeys
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(playerID),
		"gid": gameID.String(),
		"iat": now.Unix(),
	}
	if tokenTTL > 0 {
		claims["exp"] = now.Add(tokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token and returns the session and player it names.
func AuthenticateJWT(tokenString string) (uuid.UUID, int, error) {
	if publicKey == nil {
		return uuid.Nil, 0, ErrNoKeys
	}
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, 0, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("invalid jwt claims")
	}
	sub, _ := claims["sub"].(string)
	playerID, err := strconv.Atoi(sub)
	if err != nil || playerID <= 0 {
		return uuid.Nil, 0, fmt.Errorf("missing or bad sub in jwt")
	}
	gid, _ := claims["gid"].(string)
	gameID, err := uuid.Parse(gid)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("missing or bad gid in jwt")
	}
	return gameID, playerID, nil
}

// Package auth issues the opaque per-player credentials handed out on create
// and join. Tokens are ed25519-signed JWTs binding a player id to a session
// id; keys are generated at process start, so tokens die with the process,
// same as the sessions they refer to.
package auth

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
)

// Init generates a fresh ed25519 key pair at runtime.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return nil
}

// CreatePlayerToken signs a token with "sub" = player id and "sid" = session
// id. No expiry: sessions are process-lifetime only.
func CreatePlayerToken(playerID, sessionID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": playerID.String(),
		"sid": sessionID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticatePlayerToken verifies a token and returns the (player, session)
// pair it was issued for.
func AuthenticatePlayerToken(tokenString string) (uuid.UUID, uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid token")
	}
	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	playerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("missing sub in jwt")
	}
	sessionID, err := uuid.Parse(sid)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("missing sid in jwt")
	}
	return playerID, sessionID, nil
}

package auth

import "eswed/internal/domain/models"

// JWTVerifier defines the interface for JWT token verification, keeping the
// middleware agnostic to where the keys come from.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}

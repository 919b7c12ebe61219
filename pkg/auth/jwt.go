// Package auth validates the bearer tokens issued by the external
// authorization service. The core only needs the already-authenticated actor
// identity and role out of them.
package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated actor identity
type Claims struct {
	ActorID  string `json:"actor_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Roles recognized by the delivery layer
const (
	RoleAdmin       = "admin"
	RoleLibrarian   = "librarian"
	RoleStorekeeper = "storekeeper"
	RoleMember      = "member"
)

func secret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev-secret-change-me")
}

// ValidateToken parses and validates a JWT token string
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ActorID == "" {
		return nil, fmt.Errorf("token missing actor identity")
	}
	return claims, nil
}

// GenerateToken issues a signed token, used by tooling and tests
func GenerateToken(actorID, username, role string, ttl time.Duration) (string, error) {
	claims := &Claims{
		ActorID:  actorID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates operator roles carried in access tokens.
type UserRole string

// Supported roles.
const (
	RoleAdmin    UserRole = "ADMIN"
	RoleOperator UserRole = "OPERATOR"
)

// JWTClaims holds the claims issued to operators of the records API.
type JWTClaims struct {
	Name string   `json:"name,omitempty"`
	Role UserRole `json:"role"`
	jwt.RegisteredClaims
}

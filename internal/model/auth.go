package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the claims of tokens issued by the identity provider.
// The user id travels in the registered subject claim.
type UserClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

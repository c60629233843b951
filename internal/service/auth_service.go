package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hectoclash/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService validates tokens issued by the identity provider. Users are
// registered and logged in elsewhere; this service only trusts the shared
// HS256 secret.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(secret string) *AuthService {
	return &AuthService{jwtSecret: []byte(secret)}
}

// ValidateToken validates a user JWT and returns its claims. The display
// name falls back to the subject when the token carries none.
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Name == "" {
		claims.Name = claims.Subject
	}
	return claims, nil
}

// IssueToken signs a token for userID. Used by the seed tool and tests;
// production tokens come from the identity provider.
func (s *AuthService) IssueToken(userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &model.UserClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

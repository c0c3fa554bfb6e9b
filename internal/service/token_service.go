package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"banknote-review-service/internal/model"
)

// SessionTTL is the fixed lifetime of every session token.
const SessionTTL = 2 * time.Hour

const signingAlg = "HS512"

// SessionClaims is the token body: the user identity under "user" plus the
// registered claims.
type SessionClaims struct {
	User model.Identity `json:"user"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens with a server-held secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

func (s *TokenService) Sign(user model.Identity) (string, error) {
	now := s.now()
	claims := SessionClaims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
}

// Parse validates tokenString and returns its claims, or the reason it was
// rejected.
func (s *TokenService) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{signingAlg}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.User.ID == "" {
		return nil, errors.New("token carries no user")
	}
	return claims, nil
}

// Verify is Parse without the reason: nil on any failure.
func (s *TokenService) Verify(tokenString string) *SessionClaims {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil
	}
	return claims
}

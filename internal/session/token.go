package session

import (
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const issuer = "storefront"

// Claims are the JWT claims of a session token. The role is not carried;
// it is resolved on every request.
type Claims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	jwt.StandardClaims
}

// TokenIssuer signs and verifies HS256 session tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for u and returns it with its claims
func (t *TokenIssuer) Issue(u *models.User) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		Email:    u.Email,
		FullName: u.FullName,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   u.ID.String(),
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(t.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies a signed token and returns its claims
func (t *TokenIssuer) Parse(signed string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(signed, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Issuer != issuer {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	if claims.Id == "" {
		return nil, fmt.Errorf("token has no id")
	}
	return claims, nil
}

// remaining returns how long the token stays valid
func (t *TokenIssuer) remaining(c *Claims) time.Duration {
	return time.Unix(c.ExpiresAt, 0).Sub(t.now())
}

package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/service-desk/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Claims describes JWT payload. The subject is the acting staff member or customer.
type Claims struct {
	OrganizationID string           `json:"org"`
	Name           string           `json:"name,omitempty"`
	Role           domain.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the lifecycle actor.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{ID: c.Subject, Name: c.Name, Role: c.Role}
}

// GenerateToken builds and signs a JWT for the actor inside organizationID.
func (tm *TokenManager) GenerateToken(organizationID string, actor domain.Actor) (string, time.Time, error) {
	if organizationID == "" || actor.ID == "" {
		return "", time.Time{}, errors.New("organization and subject are required")
	}
	if !actor.Role.IsValid() {
		return "", time.Time{}, errors.New("unknown actor role")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		OrganizationID: organizationID,
		Name:           actor.Name,
		Role:           actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.OrganizationID == "" || claims.Subject == "" || !claims.Role.IsValid() {
		return nil, errors.New("incomplete token claims")
	}
	return claims, nil
}

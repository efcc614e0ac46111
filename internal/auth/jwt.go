package auth

import (
	"errors"
	"time"

	"roast-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Manager struct {
	secret   []byte
	issuer   string
	guestTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		guestTTL: cfg.GuestTokenTTL,
	}, nil
}

// GuestToken is what a fresh visitor gets back.
type GuestToken struct {
	Token     string
	VisitorID string
	ExpiresAt time.Time
}

// IssueGuest mints a token for a brand-new visitor id.
func (m *Manager) IssueGuest(now time.Time) (GuestToken, error) {
	visitorID := uuid.NewString()
	expiresAt := now.Add(m.guestTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		VisitorID: visitorID,
		TokenType: TokenTypeGuest,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return GuestToken{}, err
	}
	return GuestToken{Token: signed, VisitorID: visitorID, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, expiry and claim shape.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	validator := jwt.NewValidator(opts...)
	if err := validator.Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, err
	}

	if claims.TokenType != TokenTypeGuest {
		return Claims{}, errors.New("token_type mismatch")
	}
	if claims.VisitorID == "" {
		return Claims{}, errors.New("visitor_id missing")
	}

	return claims, nil
}

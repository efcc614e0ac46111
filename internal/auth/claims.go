package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeGuest TokenType = "guest"

// Claims are the only supported JWT claims shape for this service. There are
// no accounts; a visitor id minted at first contact is the whole identity.
type Claims struct {
	jwt.RegisteredClaims

	VisitorID string    `json:"visitor_id"`
	TokenType TokenType `json:"token_type"`
}

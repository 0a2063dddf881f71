// internal/session/token.go
package session

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens mints and verifies rejoin tokens. A token binds a lobby name and
// username, so the weakly-validated reconnect path at least proves prior
// membership instead of trusting the client outright.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// Membership is what a verified token asserts.
type Membership struct {
	Lobby    string
	Username string
}

// New builds a token service. An empty secret gets a random one, which means
// tokens do not survive server restarts; lobby state doesn't either.
func New(secret string, ttl time.Duration) *Tokens {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("session: cannot generate secret: %v", err))
		}
	}
	return &Tokens{secret: key, ttl: ttl}
}

// Mint creates a signed token for a lobby membership.
func (t *Tokens) Mint(m Membership) (string, error) {
	claims := jwt.MapClaims{
		"lobby": m.Lobby,
		"sub":   m.Username,
		"exp":   time.Now().Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a token, returning the membership it asserts.
func (t *Tokens) Verify(tokenString string) (Membership, error) {
	tok, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Membership{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Membership{}, fmt.Errorf("invalid token")
	}
	lobby, _ := claims["lobby"].(string)
	username, _ := claims["sub"].(string)
	if lobby == "" || username == "" {
		return Membership{}, fmt.Errorf("token missing membership claims")
	}
	return Membership{Lobby: lobby, Username: username}, nil
}

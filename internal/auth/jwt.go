package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
)

// Identity is the resolved acting user. The selected profile context is not
// part of the session; callers supply it per request and validate it against
// the fixed enum.
type Identity struct {
	UserID  string
	IsAdmin bool
}

type Validator struct {
	alg    string
	pubKey *rsa.PublicKey
	secret []byte
}

func NewValidator(alg, secret, pubKeyPath string) (*Validator, error) {
	v := &Validator{alg: alg}
	switch alg {
	case "RS256":
		b, err := os.ReadFile(pubKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read pubkey: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(b)
		if err != nil {
			return nil, fmt.Errorf("parse pubkey: %w", err)
		}
		v.pubKey = key
	case "HS256":
		if secret == "" {
			return nil, errors.New("hs256 secret required")
		}
		v.secret = []byte(secret)
	default:
		return nil, errors.New("unsupported alg")
	}
	return v, nil
}

// Resolve verifies a session token and returns the acting identity. Missing,
// malformed or expired tokens all come back as Unauthenticated.
func (v *Validator) Resolve(token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthenticated("missing session token")
	}

	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != v.alg {
			return nil, errors.New("unexpected signing method")
		}
		if v.alg == "RS256" {
			return v.pubKey, nil
		}
		return v.secret, nil
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{v.alg}))
	tok, err := parser.Parse(token, keyFunc)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.CodeUnauthenticated, "invalid session token", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Identity{}, apperr.Unauthenticated("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, apperr.Unauthenticated("sub missing")
	}
	isAdmin, _ := claims["is_admin"].(bool)
	return Identity{UserID: sub, IsAdmin: isAdmin}, nil
}

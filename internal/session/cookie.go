package session

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/Skotchmaster/userpanel/pkg/tokens"
)

type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// NewCookie wraps a signed token into the session cookie ("Bearer <token>").
func NewCookie(cfg CookieConfig, token string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    tokens.BearerValue(token),
		Path:     cfg.path(),
		Expires:  exp,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func ClearCookie(cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.path(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenHash is the blacklist key for a raw token.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Package session turns the session cookie of a request into an Identity.
//
// Resolution never fails: a missing cookie, an undecodable or expired token,
// a blacklisted token and a token naming a deleted or inactive user all
// resolve to Anonymous. The concrete reason is logged, not returned, so
// callers cannot tell "bad token" from "no token".
package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/userpanel/internal/models"
	"github.com/Skotchmaster/userpanel/internal/repo"
	"github.com/Skotchmaster/userpanel/pkg/logging"
	"github.com/Skotchmaster/userpanel/pkg/tokens"
)

const identityKey = "identity"

type Identity struct {
	User *models.User
}

var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool { return i.User == nil }

func (i Identity) Username() string {
	if i.User == nil {
		return ""
	}
	return i.User.Username
}

func (i Identity) IsAdmin() bool { return i.User != nil && i.User.IsAdmin }

type Store interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	IsBlacklisted(ctx context.Context, tokenHash string) (bool, error)
}

type Resolver struct {
	Codec  *tokens.Codec
	Store  Store
	Cookie CookieConfig
}

func (r *Resolver) Resolve(ctx context.Context, req *http.Request) Identity {
	l := logging.FromContext(ctx).With("svc", "session.resolve")

	ck, err := req.Cookie(r.Cookie.Name)
	if err != nil || ck.Value == "" {
		return Anonymous
	}

	claims, err := r.Codec.DecodeBearer(ck.Value)
	if err != nil {
		l.Debug("session_rejected", "reason", decodeReason(err), "error", err)
		return Anonymous
	}

	// DecodeBearer already succeeded, so the prefix is well formed.
	raw, _ := tokens.StripBearer(ck.Value)
	blacklisted, err := r.Store.IsBlacklisted(ctx, TokenHash(raw))
	if err != nil {
		l.Warn("session_rejected", "reason", "blacklist_lookup_failed", "error", err)
		return Anonymous
	}
	if blacklisted {
		l.Info("session_rejected", "reason", "blacklisted", "username", claims.Username)
		return Anonymous
	}

	user, err := r.Store.GetByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Info("session_rejected", "reason", "unknown_user", "username", claims.Username)
		} else {
			l.Warn("session_rejected", "reason", "user_lookup_failed", "error", err)
		}
		return Anonymous
	}
	if !user.IsActive {
		l.Info("session_rejected", "reason", "inactive_user", "username", claims.Username)
		return Anonymous
	}

	return Identity{User: user}
}

// Middleware resolves the identity once per request and stores it on the
// echo context.
func (r *Resolver) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetIdentity(c, r.Resolve(c.Request().Context(), c.Request()))
			return next(c)
		}
	}
}

func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

func FromContext(c echo.Context) Identity {
	if id, ok := c.Get(identityKey).(Identity); ok {
		return id
	}
	return Anonymous
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return "expired"
	case errors.Is(err, tokens.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

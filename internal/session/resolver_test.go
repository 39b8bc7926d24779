package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/userpanel/internal/repo"
	"github.com/Skotchmaster/userpanel/internal/session"
	"github.com/Skotchmaster/userpanel/internal/testutil"
	"github.com/Skotchmaster/userpanel/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

type env struct {
	db       *gorm.DB
	repo     *repo.GormRepo
	codec    *tokens.Codec
	resolver *session.Resolver
	cookie   session.CookieConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.NewDB(t)
	r := repo.New(db)
	codec := tokens.NewCodec(secret, 15*time.Minute)
	cookie := session.CookieConfig{Name: "access_token"}

	return &env{
		db:    db,
		repo:  r,
		codec: codec,
		resolver: &session.Resolver{
			Codec:  codec,
			Store:  r,
			Cookie: cookie,
		},
		cookie: cookie,
	}
}

func (e *env) requestWith(value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: e.cookie.Name, Value: value})
	}
	return req
}

func (e *env) issue(t *testing.T, username string) string {
	t.Helper()
	token, _, err := e.codec.Issue(username)
	require.NoError(t, err)
	return token
}

func TestResolve_ValidCookie(t *testing.T) {
	e := newEnv(t)
	testutil.CreateUser(t, e.db, "john", "john@example.com", "Secret123", false)

	id := e.resolver.Resolve(context.Background(), e.requestWith(tokens.BearerValue(e.issue(t, "john"))))
	require.False(t, id.IsAnonymous())
	assert.Equal(t, "john", id.Username())
	assert.False(t, id.IsAdmin())
}

func TestResolve_Anonymous(t *testing.T) {
	e := newEnv(t)
	testutil.CreateUser(t, e.db, "john", "john@example.com", "Secret123", false)
	inactive := testutil.CreateUser(t, e.db, "ghost", "ghost@example.com", "Secret123", false)
	require.NoError(t, e.db.Model(inactive).Update("is_active", false).Error)

	expiredCodec := tokens.NewCodec(secret, time.Minute, tokens.WithClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	}))
	expired, _, err := expiredCodec.Issue("john")
	require.NoError(t, err)

	forged, _, err := tokens.NewCodec([]byte("other-secret"), time.Minute).Issue("john")
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{name: "no cookie", value: ""},
		{name: "missing bearer prefix", value: e.issue(t, "john")},
		{name: "garbage", value: "Bearer garbage"},
		{name: "expired", value: tokens.BearerValue(expired)},
		{name: "wrong signature", value: tokens.BearerValue(forged)},
		{name: "unknown user", value: tokens.BearerValue(e.issue(t, "deleted"))},
		{name: "inactive user", value: tokens.BearerValue(e.issue(t, "ghost"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := e.resolver.Resolve(context.Background(), e.requestWith(tt.value))
			assert.True(t, id.IsAnonymous())
			assert.Equal(t, session.Anonymous, id)
		})
	}
}

func TestResolve_Blacklisted(t *testing.T) {
	e := newEnv(t)
	testutil.CreateUser(t, e.db, "john", "john@example.com", "Secret123", false)
	ctx := context.Background()

	token := e.issue(t, "john")
	require.False(t, e.resolver.Resolve(ctx, e.requestWith(tokens.BearerValue(token))).IsAnonymous())

	require.NoError(t, e.repo.BlacklistToken(ctx, session.TokenHash(token), time.Now().Add(time.Minute)))
	assert.True(t, e.resolver.Resolve(ctx, e.requestWith(tokens.BearerValue(token))).IsAnonymous())

	other := e.issue(t, "john")
	assert.False(t, e.resolver.Resolve(ctx, e.requestWith(tokens.BearerValue(other))).IsAnonymous())
}

func TestResolve_UserDeletedAfterIssue(t *testing.T) {
	e := newEnv(t)
	testutil.CreateUser(t, e.db, "john", "john@example.com", "Secret123", false)
	ctx := context.Background()

	value := tokens.BearerValue(e.issue(t, "john"))
	require.False(t, e.resolver.Resolve(ctx, e.requestWith(value)).IsAnonymous())

	require.NoError(t, e.repo.Delete(ctx, "john"))
	assert.True(t, e.resolver.Resolve(ctx, e.requestWith(value)).IsAnonymous())
}

func TestMiddleware_StoresIdentity(t *testing.T) {
	e := newEnv(t)
	testutil.CreateUser(t, e.db, "admin", "admin@example.com", "Secret123", true)

	ec := echo.New()
	req := e.requestWith(tokens.BearerValue(e.issue(t, "admin")))
	rec := httptest.NewRecorder()
	c := ec.NewContext(req, rec)

	var got session.Identity
	h := e.resolver.Middleware()(func(c echo.Context) error {
		got = session.FromContext(c)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, h(c))
	assert.Equal(t, "admin", got.Username())
	assert.True(t, got.IsAdmin())
}

func TestFromContext_DefaultsToAnonymous(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.True(t, session.FromContext(c).IsAnonymous())
}

func TestCookies(t *testing.T) {
	cfg := session.CookieConfig{Name: "access_token", Secure: true}
	exp := time.Now().Add(15 * time.Minute)

	ck := session.NewCookie(cfg, "abc.def.ghi", exp)
	assert.Equal(t, "access_token", ck.Name)
	assert.Equal(t, "Bearer abc.def.ghi", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, exp, ck.Expires)

	cleared := session.ClearCookie(cfg)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)

	assert.Len(t, session.TokenHash("x"), 64)
	assert.NotEqual(t, session.TokenHash("x"), session.TokenHash("y"))
}

var _ session.Store = (*repo.GormRepo)(nil)

package httpserver

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/userpanel/internal/service"
	"github.com/Skotchmaster/userpanel/internal/session"
	"github.com/Skotchmaster/userpanel/pkg/logging"
)

type UserHTTP struct {
	Svc    *service.UserService
	Cookie session.CookieConfig
}

func (h *UserHTTP) render(c echo.Context, v service.View) error {
	return c.Render(http.StatusOK, v.Template, newPage(c, v))
}

// fail renders the generic failure page. Only storage failures get here.
func (h *UserHTTP) fail(c echo.Context, handler string, err error) error {
	logging.FromContext(c.Request().Context()).Error("request_failed", "handler", handler, "status", 500, "error", err)
	return c.Render(http.StatusInternalServerError, service.TplError, newPage(c, service.View{Template: service.TplError}))
}

func formValues(c echo.Context) url.Values {
	form, err := c.FormParams()
	if err != nil {
		return url.Values{}
	}
	return form
}

func (h *UserHTTP) Home(c echo.Context) error {
	return h.render(c, service.View{Template: service.TplHome})
}

func (h *UserHTTP) LoginPage(c echo.Context) error {
	return h.render(c, service.View{Template: service.TplLogin})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_login")

	res, err := h.Svc.Login(ctx, formValues(c))
	if err != nil {
		return h.fail(c, "user_login", err)
	}
	if res.LoggedIn() {
		c.SetCookie(session.NewCookie(h.Cookie, res.Token, res.ExpiresAt))
		l.Info("login_successful")
	}
	return h.render(c, res.View)
}

func (h *UserHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var value string
	if ck, err := c.Cookie(h.Cookie.Name); err == nil {
		value = ck.Value
	}
	v, err := h.Svc.Logout(ctx, value)
	c.SetCookie(session.ClearCookie(h.Cookie))
	if err != nil {
		return h.fail(c, "user_logout", err)
	}

	// The page is rendered for the request that just logged out.
	session.SetIdentity(c, session.Anonymous)
	return h.render(c, v)
}

func (h *UserHTTP) Operations(c echo.Context) error {
	return h.render(c, service.View{Template: service.TplUserOps})
}

func (h *UserHTTP) ListAll(c echo.Context) error {
	v, err := h.Svc.ListUsers(c.Request().Context())
	if err != nil {
		return h.fail(c, "user_list", err)
	}
	return h.render(c, v)
}

func (h *UserHTTP) Get(c echo.Context) error {
	v, err := h.Svc.Lookup(c.Request().Context(), formValues(c))
	if err != nil {
		return h.fail(c, "user_get", err)
	}
	return h.render(c, v)
}

func (h *UserHTTP) UpdatePassword(c echo.Context) error {
	v, err := h.Svc.UpdatePassword(c.Request().Context(), session.FromContext(c), formValues(c))
	if err != nil {
		return h.fail(c, "user_update", err)
	}
	return h.render(c, v)
}

func (h *UserHTTP) Add(c echo.Context) error {
	v, err := h.Svc.AddUser(c.Request().Context(), session.FromContext(c), formValues(c))
	if err != nil {
		return h.fail(c, "user_add", err)
	}
	return h.render(c, v)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	v, err := h.Svc.DeleteUser(c.Request().Context(), session.FromContext(c), formValues(c))
	if err != nil {
		return h.fail(c, "user_delete", err)
	}
	return h.render(c, v)
}

func (h *UserHTTP) Search(c echo.Context) error {
	v, err := h.Svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, "user_search", err)
	}
	return h.render(c, v)
}

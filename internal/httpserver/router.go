package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/userpanel/internal/session"
	pkgdb "github.com/Skotchmaster/userpanel/pkg/db"
	"github.com/Skotchmaster/userpanel/pkg/logging"
)

type Deps struct {
	DB          *gorm.DB
	UserHandler *UserHTTP
	Resolver    *session.Resolver
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	pages := e.Group("")
	pages.Use(d.Resolver.Middleware())

	pages.GET("/", d.UserHandler.Home)
	pages.GET("/login", d.UserHandler.LoginPage)
	pages.POST("/login", d.UserHandler.Login)
	pages.POST("/logout", d.UserHandler.Logout)

	pages.GET("/user", d.UserHandler.Operations)
	pages.GET("/user/get/all", d.UserHandler.ListAll)
	pages.GET("/user/search", d.UserHandler.Search)
	pages.POST("/user/get", d.UserHandler.Get)
	pages.POST("/user/update", d.UserHandler.UpdatePassword)
	pages.POST("/user/add", d.UserHandler.Add)
	pages.POST("/user/delete", d.UserHandler.Delete)
}

func (d *Deps) ready(c echo.Context) error {
	if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
		logging.FromContext(c.Request().Context()).Warn("not_ready", "handler", "health_ready", "status", 503, "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

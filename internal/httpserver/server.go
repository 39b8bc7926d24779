package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/userpanel/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/userpanel/pkg/middleware/logging"
)

type Options struct {
	Logger       *slog.Logger
	CookieSecure bool
}

// New builds the echo instance with the full middleware chain and all
// routes registered.
func New(d *Deps, opts Options) (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool { return c.Request().URL.Path == "/" },
	}))
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(opts.Logger),
		middleware.Secure(),
		csrf.Middleware(csrf.Config{Secure: opts.CookieSecure, SkipPrefixes: []string{"/health/"}}),
	)

	Register(e, d)
	return e, nil
}

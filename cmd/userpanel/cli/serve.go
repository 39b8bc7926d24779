package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/userpanel/internal/httpserver"
	"github.com/Skotchmaster/userpanel/internal/service"
	"github.com/Skotchmaster/userpanel/internal/session"
	"github.com/Skotchmaster/userpanel/pkg/config"
	pkgdb "github.com/Skotchmaster/userpanel/pkg/db"
	"github.com/Skotchmaster/userpanel/pkg/logging"
	"github.com/Skotchmaster/userpanel/pkg/tokens"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(e *env) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				e.cfg.ServerAddr = addr
			}
			ctx, stop := signal.NotifyContext(e.context(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, e.cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from SERVER_ADDR)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	l := logging.FromContext(ctx)

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	db, r, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := pkgdb.Close(db); err != nil {
			l.Error("db_close_failed", "error", err)
		}
	}()

	pub, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			l.Error("kafka_close_failed", "error", err)
		}
	}()

	dir, err := newDirectory(ctx, cfg, r)
	if err != nil {
		return err
	}

	codec := tokens.NewCodec(cfg.JWTSecret, cfg.JWTTTL)
	svc := &service.UserService{Repo: r, Codec: codec, Events: pub, Directory: dir, SearchLimit: cfg.SearchLimit}

	if _, err := svc.Bootstrap(ctx, service.AdminAccount{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}); err != nil {
		return err
	}

	cookie := session.CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure}
	e, err := httpserver.New(&httpserver.Deps{
		DB:          db,
		UserHandler: &httpserver.UserHTTP{Svc: svc, Cookie: cookie},
		Resolver:    &session.Resolver{Codec: codec, Store: r, Cookie: cookie},
	}, httpserver.Options{Logger: l, CookieSecure: cfg.CookieSecure})
	if err != nil {
		return err
	}

	go service.RunBlacklistJanitor(ctx, r, cfg.BlacklistPurgeInterval)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("http_listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	l.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("http_shutdown_failed", "error", err)
	}
	l.Info("shutdown_complete")
	return nil
}

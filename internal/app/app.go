// Package app assembles the authentication service from its configuration
// and runs the HTTP server until the process is signalled.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	reporterAuth "github.com/MrEthical07/reporterAuth"
	"github.com/MrEthical07/reporterAuth/csrf"
	"github.com/MrEthical07/reporterAuth/httpapi"
	"github.com/MrEthical07/reporterAuth/internal/config"
	"github.com/MrEthical07/reporterAuth/internal/logging"
	"github.com/MrEthical07/reporterAuth/mail"
	otelexport "github.com/MrEthical07/reporterAuth/metrics/export/otel"
	"github.com/MrEthical07/reporterAuth/metrics/export/prometheus"
	"github.com/MrEthical07/reporterAuth/userstore/memory"
	"github.com/MrEthical07/reporterAuth/userstore/postgres"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type App struct {
	config  *config.Config
	logger  *logging.SlogLogger
	engine  *reporterAuth.Engine
	handler http.Handler
	closers []func() error
}

// New wires storage, mail, the engine and the router. Resources opened
// before a failure are released.
func New(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	sl := logging.New(cfg.Env, out)
	a := &App{config: cfg, logger: logging.NewSlogLogger(sl)}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, sl := a.config, a.logger.Slog()

	b := reporterAuth.New().WithConfig(cfg.Engine()).WithLogger(sl)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	b.WithUserStore(store)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		b.WithRedis(client)
	}

	mailer, err := a.mailer()
	if err != nil {
		return err
	}
	b.WithMailer(mailer)

	if cfg.AuditEvents {
		b.WithAuditSink(reporterAuth.NewSlogSink(sl.With(slog.String("component", "audit"))))
	}

	engine, err := b.Build()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	a.engine = engine

	guard, err := csrf.New([]byte(cfg.CSRFKey), csrf.Options{Secure: !cfg.Session.InsecureCookie, Path: "/"})
	if err != nil {
		return fmt.Errorf("csrf: %w", err)
	}

	opts := httpapi.Options{TrustProxy: cfg.HTTPServer.TrustProxy}
	if !cfg.Metrics.Disabled {
		opts.MetricsPath = cfg.Metrics.Path
		opts.MetricsHandler = prometheus.NewExporter(engine).Handler()
		if cfg.Metrics.OTel {
			reader := sdkmetric.NewManualReader()
			provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			a.closers = append(a.closers, func() error { return provider.Shutdown(context.Background()) })
			otel.SetMeterProvider(provider)

			exp, err := otelexport.NewExporter(otel.GetMeterProvider().Meter("reporterauth"), engine)
			if err != nil {
				return fmt.Errorf("otel: %w", err)
			}
			a.closers = append(a.closers, exp.Close)
			opts.OTelPath = cfg.Metrics.OTelPath
			opts.OTelHandler = otelexport.SnapshotHandler(reader)
		}
	}
	a.handler = httpapi.NewRouter(engine, guard, sl, opts)
	return nil
}

func (a *App) openStore(ctx context.Context) (reporterAuth.UserStore, error) {
	if a.config.Postgres.DSN == "" {
		a.logger.Warn(ctx, "no database configured, accounts are kept in memory")
		return memory.New(), nil
	}

	db, err := postgres.Open(ctx, a.config.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if !a.config.Postgres.SkipMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return postgres.New(db), nil
}

func (a *App) mailer() (reporterAuth.Mailer, error) {
	c := a.config.SMTP
	if c.Host == "" {
		a.logger.Warn(context.Background(), "no smtp host configured, codes are written to the log")
		return mail.NewLogSender(a.logger.Slog()), nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:            c.Host,
		Port:            c.Port,
		Username:        c.Username,
		Password:        c.Password,
		From:            c.From,
		FromName:        c.FromName,
		InsecureSkipTLS: c.InsecureSkipTLS,
	})
}

// Engine is exposed for operator tooling sharing the same wiring.
func (a *App) Engine() *reporterAuth.Engine {
	return a.engine
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// the server down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	hs := a.config.HTTPServer
	ln, err := net.Listen("tcp", hs.Address)
	if err != nil {
		return fmt.Errorf("app.Run: listen: %w", err)
	}
	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  hs.ReadTimeout,
		WriteTimeout: hs.WriteTimeout,
		IdleTimeout:  hs.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(a.logger.Slog().Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "listening", "addr", ln.Addr().String(), "env", a.config.Env)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app.Run: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), hs.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app.Run: shutdown: %w", err)
	}
	return nil
}

// Close stops the engine, waiting for pending mail and audit events, then
// releases connections in reverse order of opening.
func (a *App) Close() error {
	if a.engine != nil {
		a.engine.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

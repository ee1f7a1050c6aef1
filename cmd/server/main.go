// server runs the HTTP API and the gRPC health service.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"contract-rbac/internal/app"
	"contract-rbac/internal/config"
	"contract-rbac/internal/logger"
	"contract-rbac/internal/telemetry/otel"
)

const shutdownTimeout = 15 * time.Second

var (
	version = "dev"
	cli     struct {
		Debug   bool             `help:"Enable debug logging and console output." env:"DEBUG"`
		Version kong.VersionFlag `help:"Print version and exit."`
	}
)

func main() {
	kctx := kong.Parse(&cli,
		kong.Description("Account, organization and contract API with role-based authorization."),
		kong.Vars{"version": version},
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	l := logger.Setup(cfg.LogLevel, cli.Debug || !cfg.IsProduction())
	log.Logger = l
	zerolog.DefaultContextLogger = &l

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.OTELServiceName, cfg.OTLPInsecure)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.HTTPHandler(l),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    16 * 1024,
	}
	grpcSrv := a.GRPCServer(l)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() {
		l.Info().Str("addr", cfg.HTTPAddr).Str("version", version).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		l.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC health server listening")
		if err := grpcSrv.Serve(lis); err != nil {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	case err = <-errc:
		l.Error().Err(err).Msg("server failed; shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		l.Warn().Err(serr).Msg("http shutdown")
	}
	grpcSrv.GracefulStop()
	l.Info().Msg("servers stopped")
	return err
}

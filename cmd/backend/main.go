package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileshare/internal/audit"
	"fileshare/internal/auth"
	"fileshare/internal/config"
	"fileshare/internal/db"
	"fileshare/internal/fileops"
	"fileshare/internal/logger"
	"fileshare/internal/policy"
	"fileshare/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stdout})
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	srv, closeFn, err := build(context.Background(), cfg, log)
	if err != nil {
		log.Error("startup failed", err)
		os.Exit(1)
	}
	defer closeFn()

	// Start the HTTP server in a background goroutine so we can wait for
	// OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.InfoWith("starting", map[string]interface{}{
			"addr":    cfg.Addr,
			"tls":     cfg.TLS.Enabled(),
			"version": getenvDefault("FILESHARE_VERSION", "dev"),
			"root":    cfg.DocumentRoot,
		})
		if cfg.TLS.Enabled() {
			errCh <- srv.StartTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.With().Str("signal", sig.String()).Logger().Info("shutting down")
		// in-flight requests get 5 seconds
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown error", err)
			closeFn()
			os.Exit(1)
		}
		log.Info("shutdown complete")
	case err := <-errCh:
		if err != nil {
			log.Error("server error", err)
			closeFn()
			os.Exit(1)
		}
	}
}

// build wires every component from cfg. The returned func releases the
// audit database, if one was opened.
func build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*server.Server, func(), error) {
	noop := func() {}

	if err := os.MkdirAll(cfg.DocumentRoot, 0o755); err != nil {
		return nil, noop, fmt.Errorf("create document root: %w", err)
	}

	pol := policy.New(policy.Flags{
		Uploads:            cfg.Features.Uploads,
		Downloads:          cfg.Features.Downloads,
		Deletion:           cfg.Features.Deletion,
		RemoteURLDownloads: cfg.Features.RemoteURLDownloads,
	}, policy.HealthMode(cfg.HealthCheckMode))

	var s3 *fileops.S3Source
	if cfg.S3.Endpoint != "" {
		src, err := fileops.NewS3Source(fileops.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
		})
		if err != nil {
			return nil, noop, err
		}
		s3 = src
	}

	var (
		store   audit.Store = audit.NewMemoryStore(audit.DefaultCapacity)
		closeFn             = noop
	)
	if cfg.DatabaseURL != "" {
		log.Info("running migrations")
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, noop, err
		}
		conn, err := db.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open audit database: %w", err)
		}
		store = audit.NewPostgresStore(conn)
		closeFn = closer(conn, log)
		log.Info("audit trail stored in PostgreSQL")
	}

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		SecureCookies:  cfg.TLS.Enabled(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, server.Deps{
		Credentials: auth.NewCredentials(cfg.Operator.Username, cfg.Operator.Password, cfg.APIKey),
		Sessions:    auth.NewSessionStore(cfg.SecretKey, cfg.SessionTTL),
		Policy:      pol,
		Gateway: fileops.New(fileops.Options{
			Root:         cfg.DocumentRoot,
			Policy:       pol,
			Logger:       log,
			MaxFileBytes: cfg.MaxUploadBytes,
			S3:           s3,
		}),
		Audit:   store,
		Logger:  log,
		Metrics: server.NewMetrics(),
	})
	return srv, closeFn, nil
}

func closer(c io.Closer, log *logger.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Error("close audit database", err)
		}
	}
}

// getenvDefault reads an environment variable and returns def if unset or empty.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

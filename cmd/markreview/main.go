package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	gitadapter "github.com/efisher/markreview/internal/adapter/driven/git"
	githubadapter "github.com/efisher/markreview/internal/adapter/driven/github"
	sqliteadapter "github.com/efisher/markreview/internal/adapter/driven/sqlite"
	httphandler "github.com/efisher/markreview/internal/adapter/driving/http"
	webhandler "github.com/efisher/markreview/internal/adapter/driving/web"
	"github.com/efisher/markreview/internal/application"
	"github.com/efisher/markreview/internal/config"
	"github.com/efisher/markreview/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"repo_dir", cfg.RepoDir,
		"base_ref", cfg.BaseRef,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	store := sqliteadapter.NewDocumentRepo(db)

	var provider driven.DiffProvider
	if cfg.HasGitHubSource() {
		provider, err = githubadapter.NewProvider(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubPR)
		if err != nil {
			return err
		}
		slog.Info("github diff provider created", "repo", cfg.GitHubRepo, "pr", cfg.GitHubPR)
	} else {
		provider = gitadapter.NewProvider(cfg.RepoDir)
		slog.Info("local git diff provider created", "repo_dir", cfg.RepoDir)
	}

	// 6. Create services.
	reviewSvc := application.NewReviewService(store, provider, cfg.RepoDir)
	healthSvc := application.NewHealthService(store)

	// 7. Register API and web routes on one mux.
	apiHandler := httphandler.NewHandler(store, reviewSvc, healthSvc, cfg.BaseRef, cfg.ShowLineNumbers, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	webHandler, err := webhandler.NewHandler(store, reviewSvc, cfg.BaseRef, slog.Default())
	if err != nil {
		return err
	}
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("markreview started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/router"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/anonto42/mintfeed/backend/pkg/config"
	"github.com/anonto42/mintfeed/backend/pkg/firebase"
	"github.com/anonto42/mintfeed/backend/validators"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "mintfeed",
		Usage: "social feed API",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "env-file",
			Value: ".env",
			Usage: "dotenv file loaded before reading configuration",
		},
	}
	app.Before = func(cctx *cli.Context) error {
		if err := godotenv.Load(cctx.String("env-file")); err != nil {
			log.Println("No .env file found, assuming environment variables are set.")
		}
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "run the HTTP API",
			Action: serve,
		},
		{
			Name:   "migrate",
			Usage:  "create or update the database schema and exit",
			Action: migrate,
		},
	}
	app.DefaultCommand = "serve"

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

func migrate(cctx *cli.Context) error {
	cfg := config.Load()
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	return db.Migrate(cctx.Context)
}

func serve(cctx *cli.Context) error {
	// Load configuration
	cfg := config.Load()
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB() // Ensure database connections are closed when serve returns

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	// Initialize Firebase
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCheckRevoked)
	if err != nil {
		return err
	}
	var verifier services.IDTokenVerifier
	if firebaseApp != nil {
		verifier = firebaseApp
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e)

	// Setup routes and dependencies
	err = router.SetupRoutes(e, router.Dependencies{
		Postgres:      db.Postgres,
		Mongo:         db.MongoDB,
		Redis:         db.Redis,
		Firebase:      verifier,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTTTL,
		UserCacheSize: cfg.UserCacheSize,
	})
	if err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown", "error", err)
	}
	return e.Shutdown(shutdownCtx)
}

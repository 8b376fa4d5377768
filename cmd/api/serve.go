package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/cache"
	"polli-ahaar/internal/config"
	"polli-ahaar/internal/database"
	"polli-ahaar/internal/mailer"
	"polli-ahaar/internal/repository"
	"polli-ahaar/internal/routes"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()
	log.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))

	deps := newDependencies(cfg, client.Database(cfg.Mongo.Database), log)
	if deps.Cache != nil {
		defer deps.Cache.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newDependencies(cfg *config.Config, db *mongo.Database, log *zap.Logger) routes.Dependencies {
	deps := routes.Dependencies{
		Users:        repository.NewUserRepository(db.Collection(database.Users)),
		Products:     repository.NewProductRepository(db.Collection(database.Products)),
		Orders:       repository.NewOrderRepository(db.Collection(database.Orders)),
		Reviews:      repository.NewReviewRepository(db.Collection(database.Reviews)),
		Carts:        repository.NewCartRepository(db.Collection(database.Carts)),
		Stats:        repository.NewStatsRepository(db),
		Tokens:       auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		VerifyPrices: cfg.Orders.VerifyPrices,
		CORSOrigins:  cfg.CORS.Origins,
		Log:          log,
	}

	if cfg.Cache.TTL > 0 {
		deps.Cache = cache.New(cfg.Cache.TTL, time.Minute)
	}

	if cfg.Mail.Enabled() {
		deps.Mailer = mailer.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password)
	} else {
		log.Warn("mail relay not configured, POST /email will answer 503")
	}
	return deps
}

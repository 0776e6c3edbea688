package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"

	"github.com/01moynul/quillcraft-golang/internal/ai"
	"github.com/01moynul/quillcraft-golang/internal/auth"
	"github.com/01moynul/quillcraft-golang/internal/billing"
	"github.com/01moynul/quillcraft-golang/internal/config"
	"github.com/01moynul/quillcraft-golang/internal/database"
	"github.com/01moynul/quillcraft-golang/internal/entitlement"
	"github.com/01moynul/quillcraft-golang/internal/handlers"
	"github.com/01moynul/quillcraft-golang/internal/logging"
	"github.com/01moynul/quillcraft-golang/internal/repository"
	"github.com/01moynul/quillcraft-golang/internal/routes"
	"github.com/01moynul/quillcraft-golang/internal/services"
)

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL ERROR: invalid configuration: %v", err)
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection + Migrations ---
	db, err := database.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to primary database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// 2. --- AI Service Initialization ---
	aiService, err := ai.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to initialize AI Service: %v", err)
	}
	defer aiService.Close()

	// 3. --- Billing ---
	stripe.Key = cfg.Stripe.SecretKey

	// --- Application Setup ---
	users := repository.NewUserRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	agents := repository.NewAgentRepository(db)
	tasks := repository.NewTaskRepository(db)
	revs := repository.NewRevisionRepository(db)
	usage := repository.NewUsageRepository(db)

	tiers := entitlement.DefaultTiers()
	gate := entitlement.NewGate(tiers, time.Now)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	sessions := entitlement.NewSessionTracker()

	app := &handlers.Handlers{
		Accounts:  services.NewAccountService(users, subs, agents, tasks, usage, gate, tokens, logger, cfg.TrialDays),
		Workspace: services.NewWorkspaceService(agents, tasks, subs, gate, logger),
		Content:   services.NewContentService(tasks, agents, revs, subs, usage, gate, aiService, logger),
		Checkout:  billing.NewCheckoutService(cfg.Stripe, subs, billing.StripeClient{}),
		Webhooks:  billing.NewWebhookProcessor(cfg.Stripe.WebhookSecret, subs, tiers, logger),
		Tiers:     tiers,
		Sessions:  sessions,
		Logger:    logger,
	}

	// --- 4. Background Workers ---
	// Rolls monthly token windows, prunes expired sessions, reports trials.
	go services.NewSweeper(subs, sessions, logger).Run(ctx, cfg.TrialSweepInterval)

	// --- Router Setup ---
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(app, tokens, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	go func() {
		logger.Info(ctx, "starting QuillCraft API server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bizbroker/bizbroker-api/internal/config"
	"github.com/bizbroker/bizbroker-api/internal/domain/billing"
	"github.com/bizbroker/bizbroker-api/internal/domain/deal"
	"github.com/bizbroker/bizbroker-api/internal/domain/ledger"
	"github.com/bizbroker/bizbroker-api/internal/domain/listing"
	"github.com/bizbroker/bizbroker-api/internal/domain/notification"
	"github.com/bizbroker/bizbroker-api/internal/domain/settings"
	"github.com/bizbroker/bizbroker-api/internal/domain/subscription"
	"github.com/bizbroker/bizbroker-api/internal/middleware"
	"github.com/bizbroker/bizbroker-api/internal/pkg/database"
	"github.com/bizbroker/bizbroker-api/internal/pkg/jwt"
	"github.com/bizbroker/bizbroker-api/internal/pkg/logger"
	"github.com/bizbroker/bizbroker-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, live notifications disabled")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	auth := middleware.Auth(jwtService)

	// Services
	notificationService := notification.NewService(db, redisClient)
	ledgerService := ledger.NewService(db, notificationService)
	settingsService := settings.NewService(settings.NewRepository(db))
	listingRepo := listing.NewRepository(db)

	dealService := deal.NewService(
		db,
		listingSource{repo: listingRepo},
		timerPolicySource{settings: settingsService},
		deal.NewEvaluator(listingRepo),
		ledgerService,
		notificationService,
		cfg.SellerReleaseBonus,
	)

	subscriptionService := subscription.NewService(db)
	reconciler := billing.NewReconciler(db, subscription.NewRepository(db), ledgerService, billing.NewEventStore(db))

	hub := notification.NewHub(redisClient)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// Handlers
	dealHandler := deal.NewHandler(dealService)
	ledgerHandler := ledger.NewHandler(ledgerService)
	subscriptionHandler := subscription.NewHandler(subscriptionService)
	notificationHandler := notification.NewHandler(notificationService)
	billingHandler := billing.NewHandler(reconciler, cfg.BillingWebhookSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover)
	r.Use(middleware.Logger)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable")
			return
		}
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/deals", dealHandler.Routes(auth))
		r.Mount("/credits", ledgerHandler.Routes(auth))
		r.Mount("/subscriptions", subscriptionHandler.Routes(auth))
		r.Mount("/notifications", notificationHandler.Routes(auth))
	})

	r.Mount("/webhooks", billingHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Get("/ws", hub.ServeWS)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	stopHub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// listingSource adapts the listing repository to what deal creation needs
type listingSource struct {
	repo listing.Repository
}

func (a listingSource) GetListing(ctx context.Context, id uuid.UUID) (*deal.ListingInfo, error) {
	l, err := a.repo.GetByID(ctx, id)
	if err != nil || l == nil {
		return nil, err
	}
	return &deal.ListingInfo{ID: l.ID, SellerID: l.SellerID}, nil
}

// timerPolicySource builds the stage timer policy from stored settings,
// clamped to the allowed day range.
type timerPolicySource struct {
	settings *settings.Service
}

func (a timerPolicySource) TimerPolicy(ctx context.Context) (deal.TimerPolicy, error) {
	day := 24 * time.Hour
	discovery := a.settings.IntInRange(ctx, deal.SettingDiscoveryDays, deal.DefaultDiscoveryDays, deal.MinTimerDays, deal.MaxTimerDays)
	negotiation := a.settings.IntInRange(ctx, deal.SettingNegotiationDays, deal.DefaultNegotiationDays, deal.MinTimerDays, deal.MaxTimerDays)

	return deal.TimerPolicy{Dwell: map[deal.StageGroup]time.Duration{
		deal.GroupDiscovery:   time.Duration(discovery) * day,
		deal.GroupNegotiation: time.Duration(negotiation) * day,
	}}, nil
}

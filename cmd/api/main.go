package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fanstage/fanstage-api/internal/config"
	"github.com/fanstage/fanstage-api/internal/domain/catalog"
	"github.com/fanstage/fanstage-api/internal/domain/revenue"
	"github.com/fanstage/fanstage-api/internal/domain/reward"
	"github.com/fanstage/fanstage-api/internal/domain/ticket"
	"github.com/fanstage/fanstage-api/internal/domain/transaction"
	"github.com/fanstage/fanstage-api/internal/middleware"
	"github.com/fanstage/fanstage-api/internal/monitoring"
	"github.com/fanstage/fanstage-api/internal/pkg/database"
	"github.com/fanstage/fanstage-api/internal/pkg/gateway"
	"github.com/fanstage/fanstage-api/internal/pkg/jwt"
	"github.com/fanstage/fanstage-api/internal/pkg/logger"
	pkgresponse "github.com/fanstage/fanstage-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Fanstage API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	catalogRepo := catalog.NewRepository(db)
	transactionRepo := transaction.NewRepository(db)
	ticketRepo := ticket.NewRepository(db)
	rewardRepo := reward.NewRepository(db)
	revenueRepo := revenue.NewRepository(db)

	// ---------- Services ----------
	paymentGateway := gateway.NewSimulated(cfg.GatewayDeclineRate)

	transactionService := transaction.NewService(transactionRepo, catalogRepo, paymentGateway, cfg.GatewayTimeout)

	accessCache := ticket.NewAccessCache(redis, cfg.AccessCacheTTL)
	ticketService := ticket.NewService(ticketRepo, &ticketCatalogAdapter{repo: catalogRepo}, accessCache)

	rewardService := reward.NewService(rewardRepo)
	revenueService := revenue.NewService(revenueRepo)

	// The transaction and ticket services reference each other, so the
	// cross-domain edges are attached after both exist.
	coordinator := transaction.NewCoordinator(ticketService, catalogRepo, rewardService)
	transactionService.AttachCoordinator(coordinator)
	transactionService.AttachTicketRevoker(ticketService)
	ticketService.AttachTransactions(&ticketTransactionsAdapter{service: transactionService})

	// ---------- Handlers ----------
	transactionHandler := transaction.NewHandler(transactionService)
	ticketHandler := ticket.NewHandler(ticketService)
	rewardHandler := reward.NewHandler(rewardService)
	revenueHandler := revenue.NewHandler(revenueService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})
	r.Handle("/metrics", monitoring.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/transactions", transactionHandler.Routes(authMiddleware))
		r.Mount("/tickets", ticketHandler.Routes(authMiddleware))
		r.Mount("/events", ticketHandler.EventRoutes(authMiddleware))
		r.Mount("/artists", revenueHandler.Routes(authMiddleware))
		r.Mount("/rewards", rewardHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// Adapter implementations to bridge interface mismatches

// ticketCatalogAdapter adapts catalog.Repository to ticket.Catalog
type ticketCatalogAdapter struct {
	repo catalog.Repository
}

func (a *ticketCatalogAdapter) GetEventInfo(ctx context.Context, eventID uuid.UUID) (*ticket.EventInfo, error) {
	event, err := a.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, nil
	}

	return &ticket.EventInfo{
		ID:       event.ID,
		ArtistID: event.ArtistID,
		IsPaid:   event.IsPaid,
		Price:    event.Price,
		Currency: event.Currency,
	}, nil
}

// ticketTransactionsAdapter adapts transaction.Service to ticket.Transactions
type ticketTransactionsAdapter struct {
	service *transaction.Service
}

func (a *ticketTransactionsAdapter) BeginTicketPurchase(ctx context.Context, in ticket.PurchaseInput) (uuid.UUID, error) {
	artistID := in.ArtistID
	eventID := in.EventID

	t, err := a.service.Create(ctx, transaction.CreateInput{
		Amount:      in.Amount,
		PayerID:     in.PayerID,
		ArtistID:    &artistID,
		Description: in.Description,
		Source:      transaction.SourceEventTicket,
		SourceID:    &eventID,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

func (a *ticketTransactionsAdapter) Refund(ctx context.Context, transactionID uuid.UUID) error {
	_, err := a.service.Refund(ctx, transactionID)
	return err
}

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-partner-backend/internal/config"
	"travel-partner-backend/internal/handlers"
	"travel-partner-backend/internal/middleware"
	"travel-partner-backend/internal/repository"
	"travel-partner-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app holds the wired services behind the HTTP router
type app struct {
	users       *services.UserService
	partners    *services.TravelPartnerService
	itineraries *services.ItineraryService
	assistant   *services.AssistantService
	insights    *services.InsightService
	weather     *services.WeatherService
	hub         *services.WSHub
}

func Run() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	persister, cleanup, err := newPersister(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize storage")
	}
	defer cleanup()

	store, err := repository.NewSnapshotStore(ctx, persister)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load travel partner data")
	}

	a := newApp(cfg, store)
	r := newRouter(a)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("storage", persister.Name()).
			Bool("llm", cfg.LLM.APIKey != "").
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func newApp(cfg *config.Config, store repository.Store) *app {
	hub := services.NewWSHub()
	partners := services.NewTravelPartnerService(store, hub)

	// Without an API key every itinerary falls back to the template and the chatbot answers 500.
	var llm services.ChatCompleter
	if cfg.LLM.APIKey != "" {
		llm = services.NewLLMClient(services.LLMOptions{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
	}

	weather := services.NewWeatherService(services.WeatherOptions{
		BaseURL: cfg.Weather.BaseURL,
		APIKey:  cfg.Weather.APIKey,
		Country: cfg.Weather.Country,
		Timeout: cfg.Weather.Timeout,
	})

	return &app{
		users:       services.NewUserService(cfg.JWT.Secret, cfg.JWT.TTL),
		partners:    partners,
		itineraries: services.NewItineraryService(partners, llm),
		assistant:   services.NewAssistantService(llm),
		insights:    services.NewInsightService(weather, llm, services.DefaultGuideCatalog()),
		weather:     weather,
		hub:         hub,
	}
}

// newPersister builds the snapshot persister for the configured driver. cleanup releases its resources.
func newPersister(ctx context.Context, cfg config.StorageConfig) (repository.Persister, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.DriverMemory:
		return repository.NewMemoryPersister(), noop, nil

	case config.DriverPostgres:
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info().Msg("Database connection established")

		persister := repository.NewPostgresPersister(db, cfg.Key)
		if err := persister.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return persister, db.Close, nil

	case config.DriverS3:
		client, err := repository.NewS3Client(ctx, repository.S3Options{
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
		})
		if err != nil {
			return nil, noop, err
		}
		return repository.NewS3Persister(client, cfg.S3.Bucket, cfg.Key), noop, nil

	default:
		return repository.NewFilePersister(cfg.Path), noop, nil
	}
}

func newRouter(a *app) http.Handler {
	postHandler := handlers.NewTravelPostHandler(a.partners)
	planHandler := handlers.NewPlanHandler(a.partners, a.itineraries)
	userHandler := handlers.NewUserHandler(a.users, a.partners)
	assistantHandler := handlers.NewAssistantHandler(a.assistant, a.weather)
	insightHandler := handlers.NewInsightHandler(a.insights, a.itineraries)
	wsHandler := handlers.NewWebSocketHandler(a.hub, a.users)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(a.users))

		r.Get("/health", assistantHandler.Health)
		r.Post("/chatbot", assistantHandler.Chat)
		r.Get("/weather/{location}", assistantHandler.Weather)

		r.Post("/recommendations/analyze", insightHandler.Recommend)
		r.Post("/crowd/density", insightHandler.CrowdDensity)
		r.Get("/tourist-guides/{location}", insightHandler.TouristGuides)
		r.Post("/budget/calculate", insightHandler.Budget)
		r.Post("/generate-itinerary", insightHandler.DraftItinerary)

		r.Post("/users", userHandler.CreateUser)
		r.Get("/users/{userId}/profile", userHandler.GetProfile)

		r.Route("/travel-posts", func(r chi.Router) {
			r.Post("/", postHandler.CreatePost)
			r.Get("/", postHandler.ListPosts)

			// Must stay ahead of /{postId}
			r.Post("/looking-to-join", postHandler.CreateLookingToJoin)
			r.Get("/looking-to-join", postHandler.ListLookingToJoin)

			r.Route("/{postId}", func(r chi.Router) {
				r.Get("/", postHandler.GetPost)
				r.Post("/join-request", postHandler.CreateJoinRequest)
				r.Get("/join-requests", postHandler.ListJoinRequests)
				r.Post("/join-requests/{requestId}/respond", postHandler.RespondToJoinRequest)
				r.Get("/plan", planHandler.GetPlan)
				r.Post("/plan", planHandler.AddPlanItem)
				r.Post("/itinerary", planHandler.GenerateItinerary)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

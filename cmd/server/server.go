package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"lab-report-ai/internal/agent"
	"lab-report-ai/internal/chat"
	"lab-report-ai/internal/config"
	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/labreport"
	"lab-report-ai/internal/platform/auth"
	"lab-report-ai/internal/platform/logging"
	"lab-report-ai/internal/platform/metrics"
	"lab-report-ai/internal/platform/postgres"
	"lab-report-ai/internal/platform/telegram"
	"lab-report-ai/internal/report"
)

func runServer(cfg *config.Config) error {
	logger := logging.New(cfg.Env, cfg.LogLevel)

	// 1. Infrastructure
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		conn, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		cancel()
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := postgres.MigrateUp(conn); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
		db = conn
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory storage")
	}

	// 2. Clients
	gemini := agent.NewGemini(agent.GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.GeminiBaseURL,
		ChatModels:   cfg.GeminiChatModels,
		ExtractModel: cfg.GeminiExtractModel,
		Timeout:      cfg.AITimeout,
		RateLimit:    cfg.AIRateLimitRPS,
		Burst:        cfg.AIRateLimitBurst,
	}, logger)
	stt := agent.NewWhisperClient(cfg.STTURL)

	var gateway chat.Gateway
	if cfg.GeminiAPIKey != "" {
		gateway = gemini
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, chat answers come from the local responder")
	}
	var speaker chat.Speaker
	if cfg.TTSAPIKey != "" {
		speaker = agent.NewElevenLabsClient(cfg.TTSAPIKey)
	}
	var notifier chat.Notifier
	var tgClient report.TelegramClient
	if cfg.TelegramBotToken != "" {
		tg := telegram.NewClient(cfg.TelegramBotToken)
		notifier, tgClient = tg, tg
	} else {
		logger.Warn().Msg("TELEGRAM_BOT_TOKEN not set, clinic notifications are disabled")
	}

	// 3. Services
	reportRepo := labreport.NewMemoryRepository()
	chatRepo := chat.NewMemoryRepository()
	if db != nil {
		reportRepo = labreport.NewPostgresRepository(db)
		chatRepo = chat.NewPostgresRepository(db)
	}

	reportSvc := labreport.NewService(reportRepo, gemini, logger)
	exporter := report.NewService(tgClient, cfg.ClinicChatID, cfg.PDFFontPath, logger)
	reportHandler := labreport.NewHandler(reportSvc, exporter)

	hub := chat.NewHub()
	chatSvc := chat.NewService(chatRepo, gateway, stt, hub, logger, chat.Options{
		TurnTimeout:  cfg.AITimeout,
		Notifier:     notifier,
		ClinicChatID: cfg.ClinicChatID,
	})
	chatHandler := chat.NewHandler(chatSvc, speaker, cfg.CORSOrigins, logger)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(logging.Recovery(logger))
	r.Use(metrics.Middleware)
	r.Use(cors(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		i18n.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.JWTSecret))
			reportHandler.RegisterRoutes(r)
			chat.RegisterRoutes(r, chatHandler)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(srv, logger)
}

func serve(srv *http.Server, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// cors allows the configured origins; "*" allows any.
func cors(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowed["*"]:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
				"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-Request-ID",
			}, ", "))
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

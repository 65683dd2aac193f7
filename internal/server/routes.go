package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quizroom/internal/config"
	"quizroom/internal/game"
	"quizroom/internal/questions"
	"quizroom/internal/rooms"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Rooms *rooms.Store
	Bank  questions.Bank
	DB    *questions.PGBank // nil if no database configured
	Log   *zap.Logger
}

// Routes builds the HTTP handler for the whole API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)
		r.Get("/host/session", s.handleHostSession)
		r.Post("/host/session/close", s.handleCloseHostSession)

		r.Post("/rooms", s.handleCreateRoom)
		r.Route("/rooms/{code}", func(r chi.Router) {
			r.Get("/", s.handleRoomState)
			r.Delete("/", s.handleCloseRoom)
			r.Get("/exists", s.handleRoomExists)
			r.Post("/join", s.handleJoin)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/feed", s.handleFeed)
			r.Get("/qr", s.handleQR)

			r.Post("/mode", s.handleSetMode)
			r.Post("/team-mode", s.handleSetTeamMode)
			r.Post("/teams", s.handleCreateTeam)
			r.Post("/teams/assign", s.handleAssignTeam)
			r.Post("/teams/auto-assign", s.handleAutoAssign)
			r.Put("/teams/{teamID}", s.handleUpdateTeam)
			r.Delete("/teams/{teamID}", s.handleDeleteTeam)
		})
	})

	r.Get("/ws/host/{code}", s.handleHostWS)
	r.Get("/ws/play/{code}/{playerID}", s.handlePlayerWS)
	return r
}

// OpenBank picks the question bank: Postgres when a DSN is configured, then
// a JSON file, then the embedded default. The PGBank is returned so the
// caller can close it and health checks can ping it.
func OpenBank(ctx context.Context, cfg config.Config, log *zap.Logger) (questions.Bank, *questions.PGBank, error) {
	switch {
	case cfg.DatabaseURL != "":
		db, err := questions.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrating question bank: %w", err)
		}
		seed, err := questions.Default().Categories(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := db.SeedIfEmpty(ctx, seed); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("seeding question bank: %w", err)
		}
		return db, db, nil
	case cfg.QuestionsFile != "":
		bank, err := questions.LoadFile(cfg.QuestionsFile)
		if err != nil {
			return nil, nil, err
		}
		log.Info("loaded question bank", zap.String("file", cfg.QuestionsFile))
		return bank, nil, nil
	default:
		log.Info("using built-in question bank")
		return questions.Default(), nil, nil
	}
}

// Run serves until ctx is cancelled, then closes every room and drains the
// HTTP server.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	bank, db, err := OpenBank(ctx, cfg, log.With(zap.String("component", "questions")))
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	store := rooms.NewStore(rooms.Options{
		Settings: game.Settings{
			StartCountdown:    cfg.StartCountdown,
			DefaultTimeLimit:  cfg.DefaultTimeLimit,
			BowlAnswerTimeout: cfg.BowlAnswerTimeout,
			MinigameDuration:  cfg.MinigameDuration,
		},
		HostGrace:  cfg.HostGrace,
		IdleTTL:    cfg.RoomIdleTTL,
		SendBuffer: cfg.SendBuffer,
		Bank:       bank,
		Log:        log.With(zap.String("component", "rooms")),
	})
	srv := &Server{Rooms: store, Bank: bank, DB: db, Log: log.With(zap.String("component", "server"))}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return store.Run(ctx)
	})
	g.Go(func() error {
		srv.Log.Info("listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

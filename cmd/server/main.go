package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/ujikode/ujikode-backend/internal/auth"
	"github.com/ujikode/ujikode-backend/internal/config"
	"github.com/ujikode/ujikode-backend/internal/database"
	"github.com/ujikode/ujikode-backend/internal/examsource"
	"github.com/ujikode/ujikode-backend/internal/handler"
	"github.com/ujikode/ujikode-backend/internal/hub"
	"github.com/ujikode/ujikode-backend/internal/judge"
	"github.com/ujikode/ujikode-backend/internal/logger"
	"github.com/ujikode/ujikode-backend/internal/router"
	"github.com/ujikode/ujikode-backend/internal/session"
	"github.com/ujikode/ujikode-backend/internal/store"
	"github.com/ujikode/ujikode-backend/internal/submitter"
	"github.com/ujikode/ujikode-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("exam_source", cfg.ExamSource).
		Str("submit_sink", cfg.SubmitSink).
		Msg("Starting Ujikode Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	recovery := store.NewRecoveryStore(rdb, log)

	// ─── Token Verifier ────────────────────────────────────────────────
	verifier := auth.NewVerifier(cfg.JWTSecret)

	// ─── Exam Source and Judge ─────────────────────────────────────────
	// Demo mode is self-contained: the built-in exam plus a local stub
	// judge, so the server runs without any collaborator services.
	var exams func(auth.TokenProvider) examsource.Source
	var runJudge func(auth.TokenProvider) session.Judge
	switch cfg.ExamSource {
	case config.ExamSourceHTTP:
		exams = func(tokens auth.TokenProvider) examsource.Source {
			return examsource.NewHTTPSource(cfg.ExamServiceURL, tokens, cfg.SubmitTimeout, log)
		}
		runJudge = func(tokens auth.TokenProvider) session.Judge {
			return judge.NewHTTPJudge(cfg.JudgeURL, tokens, cfg.JudgeTimeout, log)
		}
	default:
		demoExam := examsource.DemoExam()
		demo := examsource.NewMemorySource(demoExam)
		stub := judge.NewStubJudge(demoExam, 2*time.Second)
		exams = func(auth.TokenProvider) examsource.Source { return demo }
		runJudge = func(auth.TokenProvider) session.Judge { return stub }
	}

	// ─── Submission Sink ───────────────────────────────────────────────
	var submit func(auth.TokenProvider) session.Submitter
	if cfg.SubmitSink == config.SubmitSinkPostgres {
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		archive := submitter.NewPostgresSubmitter(pool, log)
		submit = func(auth.TokenProvider) session.Submitter { return archive }
	} else {
		submit = func(tokens auth.TokenProvider) session.Submitter {
			return submitter.NewHTTPSubmitter(cfg.SubmissionURL, tokens, cfg.SubmitTimeout, log)
		}
	}

	// ─── Session Hub ───────────────────────────────────────────────────
	sessions := hub.New(hub.Config{
		Exams:        exams,
		Judge:        runJudge,
		Submitter:    submit,
		Recovery:     recovery,
		Log:          log,
		TickInterval: cfg.TickInterval,
	})
	go sessions.Run(ctx)

	// ─── Setup Router ──────────────────────────────────────────────────
	handlers := &router.Handlers{
		Session: handler.NewSessionHandler(sessions, log),
		WS:      handler.NewWSHandler(sessions, log, cfg.AllowedOrigins),
	}
	r := router.SetupRouter(verifier, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the tick loop; in-flight timeout submissions get a moment to
	// finish before the process exits.
	cancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

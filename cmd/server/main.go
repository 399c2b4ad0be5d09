package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triage-interview/internal/config"
	"triage-interview/internal/core"
	httpserver "triage-interview/internal/http"
	"triage-interview/internal/llm"
	"triage-interview/internal/store"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	sessions, cleanup, err := openStore(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("failed to open session store", zap.Error(err))
	}
	defer cleanup()

	oracle := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
		BaseURL: cfg.Oracle.BaseURL,
		Timeout: cfg.Oracle.Timeout,
	})
	interviews := core.NewOrchestrator(sessions, oracle, oracle, log)
	srv := httpserver.NewServer(interviews, log)

	runServer(ctx, cfg.Server.Addr, srv.Router(), log)
}

// openStore connects to Postgres when DATABASE_URL is set and falls back to
// the in-memory store otherwise, so the service stays runnable locally
// without a database.
func openStore(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (store.Store, func(), error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, sessions will not survive a restart")
		return store.NewMemory(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := store.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("connected to postgres")
	return store.NewPostgres(db), func() { _ = db.Close() }, nil
}

func runServer(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}
}

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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/config"
	"github.com/autopdf/backend/internal/fieldname"
	"github.com/autopdf/backend/internal/handler"
	"github.com/autopdf/backend/internal/handler/chat"
	"github.com/autopdf/backend/internal/logger"
	"github.com/autopdf/backend/internal/pdf"
	"github.com/autopdf/backend/internal/service/conversation"
	"github.com/autopdf/backend/internal/service/ledger"
	"github.com/autopdf/backend/internal/service/retention"
	"github.com/autopdf/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer zlog.Sync()

	// Ensure required directories exist
	for _, dir := range []string{cfg.Storage.TemplateDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			zlog.Fatal("failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	namesCfg := fieldname.Seed()
	if cfg.Names.File != "" {
		loaded, err := fieldname.Load(cfg.Names.File)
		if err != nil {
			zlog.Fatal("failed to load field name config", zap.String("file", cfg.Names.File), zap.Error(err))
		}
		namesCfg = fieldname.Merge(namesCfg, loaded)
		zlog.Info("field name config loaded", zap.String("file", cfg.Names.File))
	}
	resolver := fieldname.NewResolver(namesCfg)

	repo := storage.NewDirRepository(cfg.Storage.TemplateDir)
	store := retention.NewStore(cfg.Retention.IndexPath, cfg.Retention.Window, zlog)
	book := ledger.New(cfg.Ledger.Path, zlog)
	hub := chat.NewHub(zlog)
	engine := conversation.NewService(repo, pdf.Model{}, resolver, store, book, hub, cfg.Storage.OutputDir, zlog)

	go store.RunSweeper(ctx, cfg.Retention.SweepInterval)

	router := handler.NewRouter(repo, engine, store, hub, zlog)

	startServer(ctx, cfg.Server, router, zlog)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, zlog *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	zlog.Info("AutoPDF backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

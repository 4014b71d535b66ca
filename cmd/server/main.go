package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/config"
	"github.com/AngelCh415/marketing-intel/internal/httpx"
	"github.com/AngelCh415/marketing-intel/internal/ingest"
	"github.com/AngelCh415/marketing-intel/internal/store"
	"github.com/AngelCh415/marketing-intel/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	src := ingest.NewSources(cfg.FacebookSource, cfg.GoogleSource, cfg.TikTokSource, cfg.BusinessSource, cfg.XLSXSheet, cl)
	etl := ingest.NewETL(src, logger, ingest.Options{})
	tel := telemetry.New()
	st, err := store.NewMemoryStore(etl, cfg.CacheSize, tel)
	if err != nil {
		logger.Error("store", slog.String("err", err.Error()))
		os.Exit(1)
	}

	r := httpx.NewRouter(logger, st, tel, httpx.Options{ChangeCap: cfg.ChangeCap, CompareDays: cfg.CompareDays})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// carga inicial; un fallo no impide arrancar, /readyz lo reporta
	if _, err := st.Dataset(context.Background()); err != nil {
		logger.Warn("initial load failed", slog.String("err", err.Error()))
	}

	go func() {
		logger.Info("starting server", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.String("err", err.Error()))
	}
}

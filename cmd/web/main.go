package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"markerdui/internal/config"
	"markerdui/internal/handlers"
	"markerdui/internal/hostbridge"
	"markerdui/internal/logging"
	"markerdui/internal/overlay"
)

func main() {
	_ = mime.AddExtensionType(".css", "text/css")

	configDir := os.Getenv("MARKERDUI_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Addr = ":" + port
	}

	logger, closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.LogFile, "error", err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	bridge := hostbridge.New(cfg.Host.BaseURL, cfg.Host.Resource, cfg.Host.Timeout, logger)
	store := overlay.NewStore(overlay.Options{
		DefaultColor: cfg.DefaultColor,
		Notifier:     bridge,
		Logger:       logger,
	}, cfg.FrameInterval)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.StdLogger(logger, slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		logger.Error("failed to open embedded static files", "error", err)
		os.Exit(1)
	}

	homeHandler := handlers.NewHomeHandler(store)
	overlayHandler := handlers.NewOverlayHandler(store, logger)

	// Event streams are long-lived and stay outside the request timeout.
	overlayHandler.RegisterStreamRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
		homeHandler.RegisterRoutes(r)
		overlayHandler.RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("listening", "addr", cfg.Addr, "host", bridge.Endpoint("{event}"))
	if err := server.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

//go:embed static/*
var embeddedStatic embed.FS

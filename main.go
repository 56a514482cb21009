package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"nzbscout/api"
	"nzbscout/config"
	"nzbscout/handlers"
	"nzbscout/services/indexer"
	"nzbscout/utils"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupLogging(logFile string) {
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags)
}

func main() {
	setupLogging(envOr("LOG_FILE", "nzbscout.log"))

	configPath := envOr("CONFIG_PATH", "config.json")
	fs := afero.NewOsFs()
	manager := config.NewManager(fs, configPath)

	// Seed defaults on first run so GET /api/config always has something
	// to return. A missing file is expected before first save.
	if _, err := manager.Load(); err != nil {
		if errors.Is(err, config.ErrNoConfig) {
			log.Printf("[main] no config at %s, writing defaults", configPath)
			if _, err := manager.LoadOrInit(); err != nil {
				log.Fatalf("[main] failed to initialize config: %v", err)
			}
		} else {
			log.Fatalf("[main] failed to load config: %v", err)
		}
	}

	searchSvc := indexer.NewService(manager)

	searchHandler := handlers.NewSearchHandler(searchSvc)
	settingsHandler := handlers.NewSettingsHandler(manager)
	downloadsHandler := handlers.NewDownloadsHandler(manager)
	filesHandler := handlers.NewFilesHandler(manager, fs)

	// Upstream indexers enforce their own API limits; keep bursts sane.
	searchLimiter := api.NewIPRateLimiter(rate.Every(2*time.Second), 5)

	r := utils.NewRouter()
	r.Use(api.RequestLogMiddleware())

	r.HandleFunc("/api/search", searchLimiter.Limit(searchHandler.Search)).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/config", settingsHandler.GetSettings).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/config", settingsHandler.PutSettings).Methods("PUT")

	r.HandleFunc("/api/downloads", downloadsHandler.Add).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/downloads/queue", downloadsHandler.Queue).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/downloads/queue/pause", downloadsHandler.PauseQueue).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/downloads/queue/resume", downloadsHandler.ResumeQueue).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/downloads/queue/{nzoID}", downloadsHandler.Delete).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/downloads/history", downloadsHandler.History).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/downloads/status", downloadsHandler.Status).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/downloads/list", filesHandler.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/downloads/file", filesHandler.File).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/system/disk-space", filesHandler.DiskSpace).Methods("GET", "OPTIONS")

	port := envOr("PORT", "8080")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("[main] nzbscout listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[main] server error: %v", err)
	}
}

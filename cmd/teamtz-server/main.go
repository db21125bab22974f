// Package main implements the teamTZ web server: a JSON API over the
// availability engine plus roster CRUD for the dashboard frontend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/maypok86/otter/v2"

	"github.com/codeGROOVE-dev/teamTZ/pkg/roster"
	"github.com/codeGROOVE-dev/teamTZ/pkg/schedule"
	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
)

var (
	port       = flag.String("port", "5000", "Port for web server (or set PORT)")
	rosterPath = flag.String("roster", "", "Roster JSON file to preload (or set TEAMTZ_ROSTER)")
	origins    = flag.String("cors-origins", "http://localhost:5173", "Comma-separated allowed CORS origins (or set TEAMTZ_CORS_ORIGINS)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 60 requests per minute per IP
	if len(valid) >= 60 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

func main() {
	// .env is optional; the process environment still applies without it.
	_ = godotenv.Load()
	flag.Parse()

	if *version {
		fmt.Println("teamTZ Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if env := os.Getenv("PORT"); *port == "5000" && env != "" {
		*port = env
	}
	if *rosterPath == "" {
		*rosterPath = os.Getenv("TEAMTZ_ROSTER")
	}
	if env := os.Getenv("TEAMTZ_CORS_ORIGINS"); env != "" {
		*origins = env
	}

	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"roster", *rosterPath,
		"cors_origins", *origins)

	proj := tzproject.NewIANA()
	store := roster.NewStore()
	scorer := schedule.New(logger, schedule.WithProjector(proj))

	var anchor *roster.Anchor
	if *rosterPath != "" {
		doc, err := roster.Load(*rosterPath)
		if err != nil {
			logger.Error("Failed to preload roster", "roster", *rosterPath, "error", err)
			os.Exit(1)
		}
		members, replaced := roster.Sanitize(proj, doc.Members)
		for _, tz := range replaced {
			logger.Warn("Unsupported timezone replaced with UTC", "timezone", tz)
		}
		if err := store.Replace(members); err != nil {
			logger.Error("Failed to preload roster", "error", err)
			os.Exit(1)
		}
		anchor = doc.Anchor
		logger.Info("Roster preloaded", "members", len(members), "anchored", anchor != nil)
	}

	cache := otter.Must(&otter.Options[string, []byte]{
		MaximumSize:      10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](time.Minute),
	})

	srv := &server{
		proj:    proj,
		store:   store,
		scorer:  scorer,
		anchor:  anchor,
		cache:   cache,
		limiter: newRateLimiter(),
		logger:  logger,
		now:     time.Now,
	}

	router := srv.routes()

	cors := handlers.CORS(
		handlers.AllowedOrigins(strings.Split(*origins, ",")),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowCredentials(),
	)

	httpSrv := &http.Server{
		Addr:              ":" + *port,
		Handler:           srv.wrap(cors(router)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

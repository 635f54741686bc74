package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gcbaptista/go-filter-engine/api"
	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/engine"
	"github.com/gin-gonic/gin"
)

const defaultConfigPath = "./config.toml"

func main() {
	// Define command-line flags
	var (
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
		configPath = flag.String("config", "", "Path to the TOML settings file")
		port       = flag.Int("port", 0, "Port to run the server on (overrides the settings file)")
		dataDir    = flag.String("data-dir", "", "Directory to store index data (overrides the settings file)")
	)

	flag.Parse()

	// Handle help flag
	if *help {
		fmt.Printf("Go Filter Engine - A lookup-suffix filter query engine\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                          # Start with ./config.toml or defaults\n", os.Args[0])
		fmt.Printf("  %s --port 9000              # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --config /etc/filter_engine/config.toml\n", os.Args[0])
		return
	}

	// Handle version flag
	if *version {
		fmt.Printf("Go Filter Engine v1.0.0\n")
		fmt.Printf("Ordered filter compilation, async index jobs, and analytics\n")
		return
	}

	// Resolve the settings path: flag first, then environment, then default.
	path := *configPath
	if path == "" {
		path = os.Getenv("FILTER_ENGINE_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadSettings(path)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		log.Printf("Settings file %s not found, using defaults", path)
	}

	// Command-line overrides win over the settings file.
	if *port != 0 {
		cfg.ServerPort = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	if conflicts := cfg.Validate(); len(conflicts) > 0 {
		for _, conflict := range conflicts {
			log.Printf("Settings error: %s", conflict)
		}
		log.Fatalf("Refusing to start with invalid settings")
	}

	// Initialize the filter engine
	log.Printf("Using data directory: %s", cfg.DataDir)
	filterEngine := engine.NewEngine(cfg)

	// Initialize Gin router
	router := gin.Default()

	// Setup API routes
	api.SetupRoutes(router, filterEngine, cfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %d...", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for an interrupt, then drain in-flight requests and running jobs.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Warning: Server shutdown did not finish cleanly: %v", err)
	}
	filterEngine.Close()
	log.Printf("Server stopped")
}

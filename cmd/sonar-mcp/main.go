package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvaldenegro/auv-perception/internal/config"
	"github.com/mvaldenegro/auv-perception/internal/logging"
	"github.com/mvaldenegro/auv-perception/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("sonar-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("sonar-mcp - MCP server for forward-looking sonar object proposals")
			fmt.Println()
			fmt.Println("Usage: sonar-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SONAR_CONFIG=path         JSON configuration file (default sonar.json)")
			fmt.Println("  SONAR_LOG_LEVEL=debug     Log level: debug, info, warn, error")
			fmt.Println("  SONAR_WORKERS=4           Concurrent window evaluations")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	configPath := os.Getenv("SONAR_CONFIG")
	if configPath == "" {
		configPath = "sonar.json"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout is for MCP protocol
	logger := logging.New(cfg.LogLevel, os.Stderr)
	logger.Debug("starting sonar-mcp", "version", Version, "built", BuildTime, "commit", GitCommit, "config", configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// Package main is the entry point for the libgate API server.
// It loads the CORS policy, wires the HTTP stack and starts serving.
package main

import (
	"fmt"
	"log"
	"os"

	"libgate/src/app/server"
	"libgate/src/core/usecase"
	"libgate/src/infra/config"
	"libgate/src/infra/logger"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	log.Info("starting application",
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
	)

	// The policy is compiled once and never changes while serving
	policy := server.PolicyFromConfig(cfg.CORS)
	corsService, err := usecase.NewCORSService(policy, logger.WithComponent(log, "cors"))
	if err != nil {
		return fmt.Errorf("invalid cors policy: %w", err)
	}
	log.Info("cors policy loaded",
		"origin_patterns", policy.AllowedOriginPatterns,
		"methods", policy.AllowedMethods,
		"headers", policy.AllowedHeaders,
		"credentials", policy.AllowCredentials,
		"path_pattern", policy.PathPattern,
	)

	srv := server.New(cfg, log, corsService)

	// Run blocks until shutdown signal is received
	return srv.Run()
}

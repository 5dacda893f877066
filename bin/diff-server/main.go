package main

import (
	"context"
	"flag"
	"log"
	"storefront-e2e/internal/config"
	"storefront-e2e/internal/runnable"
	"storefront-e2e/internal/storage"
)

func main() {
	var directory string
	flag.StringVar(&directory, "directory", config.EnvOrDefaultValue("DIRECTORY", "visual-baselines"), "Baseline directory for file storage")
	flag.BoolVar(&runnable.Debug, "debug", config.EnvOrDefaultValue("DEBUG", false), "Enable debug logging and pprof handlers")

	flag.Parse()

	ctx := context.Background()

	store, err := storage.New(ctx, storage.ConfigFromEnv(directory))
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	server := runnable.NewServer(store)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

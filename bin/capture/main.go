package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"storefront-e2e/internal/auth"
	"storefront-e2e/internal/browser"
	"storefront-e2e/internal/config"
	"storefront-e2e/internal/storage"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type CaptureResult struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type headers []string

func (h *headers) String() string {
	return strings.Join(*h, ", ")
}

func (h *headers) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func (h headers) Map() map[string]string {
	if len(h) == 0 {
		return nil
	}
	m := make(map[string]string, len(h))
	for _, header := range h {
		key, value, ok := strings.Cut(header, ":")
		if ok {
			m[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return m
}

// parseTarget splits "name=path". A bare path is stored under its own name
// with a .png suffix.
func parseTarget(arg string) (string, string) {
	if name, path, ok := strings.Cut(arg, "="); ok {
		return name, path
	}
	name := strings.Trim(arg, "/")
	if name == "" {
		name = "index"
	}
	return strings.ReplaceAll(name, "/", "_") + ".png", arg
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	var directory string
	var selector string
	var maskSelectors string
	var fullPage bool
	var delay time.Duration
	var role string
	var authStateDirectory string
	var concurrency int
	var headers headers
	flag.StringVar(&directory, "directory", config.EnvOrDefaultValue("DIRECTORY", "visual-baselines"), "Baseline directory for file storage")
	flag.StringVar(&selector, "selector", config.EnvOrDefaultValue("SELECTOR", ""), "Capture only the first element matching this CSS selector")
	flag.StringVar(&maskSelectors, "mask-selectors", config.EnvOrDefaultValue("MASK_SELECTORS", ""), "Comma-separated list of CSS selectors to mask during capture")
	flag.BoolVar(&fullPage, "full-page", config.EnvOrDefaultValue("FULL_PAGE", true), "Capture the full scrollable page")
	flag.DurationVar(&delay, "delay", config.EnvOrDefaultValue("DELAY", 0*time.Second), "Delay before capturing")
	flag.StringVar(&role, "role", config.EnvOrDefaultValue("ROLE", ""), "Capture as this user role, using its saved auth state")
	flag.StringVar(&authStateDirectory, "auth-state-directory", config.EnvOrDefaultValue("AUTH_STATE_DIRECTORY", "."), "Directory holding auth state files")
	flag.IntVar(&concurrency, "concurrency", config.EnvOrDefaultValue("CONCURRENCY", 4), "Number of pages captured at once")
	flag.Var(&headers, "H", "Add HTTP header (can be used multiple times, e.g., -H 'Accept-Language: en')")

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("no page specified, usage: capture [flags] [name=]path...")
	}

	c, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	s, err := storage.New(ctx, storage.ConfigFromEnv(directory))
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	session, err := browser.NewSession(c)
	if err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Failed to close browser: %v", err)
		}
	}()

	options := browser.CaptureOptions{
		Selector: selector,
		FullPage: fullPage,
		Headers:  headers.Map(),
		Delay:    delay,
	}
	if maskSelectors != "" {
		for _, s := range strings.Split(maskSelectors, ",") {
			options.MaskSelectors = append(options.MaskSelectors, strings.TrimSpace(s))
		}
	}
	if role != "" {
		options.StorageStatePath = filepath.Join(authStateDirectory, auth.StateFileName(role))
	}

	capturer := browser.NewCapturer(session)

	results := make([]CaptureResult, len(args))
	{
		eg, ctx := errgroup.WithContext(ctx)
		eg.SetLimit(concurrency)

		for i, arg := range args {
			name, path := parseTarget(arg)
			eg.Go(func() error {
				screenshot, err := capturer.Capture(ctx, path, options)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				location, err := s.Put(ctx, name, screenshot)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				results[i] = CaptureResult{Name: name, Location: location}
				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			log.Fatalf("Failed to capture: %v", err)
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(results); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"storefront-e2e/internal/auth"
	"storefront-e2e/internal/browser"
	"storefront-e2e/internal/config"
	"storefront-e2e/internal/logging"

	"github.com/playwright-community/playwright-go"
)

// loadUsers returns no users when path does not exist.
func loadUsers(path string, logger *slog.Logger) (auth.Users, error) {
	users, err := auth.LoadUsers(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("users file not found, skipping auth state setup", "path", path)
			return nil, nil
		}
		return nil, err
	}
	return users, nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	var usersFile string
	var directory string
	var install bool
	var debug bool
	flag.StringVar(&usersFile, "users-file", config.EnvOrDefaultValue("USERS_FILE", "data/test-users.json"), "JSON file with the test users")
	flag.StringVar(&directory, "directory", config.EnvOrDefaultValue("AUTH_STATE_DIRECTORY", "."), "Directory to write auth state files into")
	flag.BoolVar(&install, "install", config.EnvOrDefaultValue("PLAYWRIGHT_INSTALL", false), "Install the playwright driver and browsers first")
	flag.BoolVar(&debug, "debug", config.EnvOrDefaultValue("DEBUG", false), "Enable debug logging")

	flag.Parse()

	logger, err := logging.New(os.Stderr, debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	c, err := config.Load(os.Getenv)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Info("starting global setup", "baseURL", c.BaseURL, "browser", c.BrowserName, "headless", c.Headless)

	users, err := loadUsers(usersFile, logger)
	if err != nil {
		log.Fatalf("Failed to load users: %v", err)
	}
	if len(users) == 0 {
		logger.Info("global setup completed", "created", 0)
		return
	}

	if install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{c.BrowserName}}); err != nil {
			log.Fatalf("Failed to install playwright: %v", err)
		}
	}

	session, err := browser.NewSession(c)
	if err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("failed to close browser", "error", err)
		}
	}()

	created, err := auth.Setup(context.Background(), session, users, directory, logger)
	if err != nil {
		logger.Error("global setup failed", "error", err)
		return
	}
	logger.Info("global setup completed", "created", len(created))
}

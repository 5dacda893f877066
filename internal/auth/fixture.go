package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"storefront-e2e/internal/browser"

	"github.com/playwright-community/playwright-go"
)

// NewAuthenticatedContext logs role in through the UI and saves its state into
// dir. The caller closes the returned context.
func NewAuthenticatedContext(s *browser.Session, users Users, role string, dir string) (playwright.BrowserContext, error) {
	user, err := users.Find(role)
	if err != nil {
		return nil, err
	}

	page, err := s.NewPage()
	if err != nil {
		return nil, err
	}
	bc := page.Context()
	if err := login(s, page, user); err != nil {
		_ = bc.Close()
		return nil, err
	}
	if _, err := bc.StorageState(filepath.Join(dir, StateFileName(role))); err != nil {
		_ = bc.Close()
		return nil, fmt.Errorf("failed to save storage state: %w", err)
	}
	return bc, nil
}

type loginResponse struct {
	Token string `json:"token"`
}

// NewAuthenticatedRequest returns an API client for role. It logs in through
// /api/login and sends the returned bearer token. When that endpoint cannot
// be reached it falls back to the role's saved storage state in dir.
func NewAuthenticatedRequest(s *browser.Session, users Users, role string, dir string, logger *slog.Logger) (playwright.APIRequestContext, error) {
	user, err := users.Find(role)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	api, err := newRequestContext(s, headers, "")
	if err != nil {
		return nil, err
	}

	response, err := api.Post("/api/login", playwright.APIRequestContextPostOptions{
		Data: map[string]string{
			"username": user.Username,
			"password": user.Password,
		},
	})
	if err == nil {
		if !response.Ok() {
			return api, nil
		}
		var body loginResponse
		if err := response.JSON(&body); err != nil {
			_ = api.Dispose()
			return nil, fmt.Errorf("failed to decode login response: %w", err)
		}
		_ = api.Dispose()
		headers["Authorization"] = "Bearer " + body.Token
		return newRequestContext(s, headers, "")
	}

	logger.Warn("API login not available, using storage state from UI login", "role", role, "error", err)
	if role == LockedOutRole {
		return api, nil
	}
	path := filepath.Join(dir, StateFileName(role))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("storage state not found, run setup first", "role", role, "path", path)
			return api, nil
		}
		_ = api.Dispose()
		return nil, err
	}
	_ = api.Dispose()
	return newRequestContext(s, nil, path)
}

func newRequestContext(s *browser.Session, headers map[string]string, statePath string) (playwright.APIRequestContext, error) {
	options := playwright.APIRequestNewContextOptions{
		BaseURL:          playwright.String(s.Config().BaseURL),
		ExtraHttpHeaders: headers,
	}
	if statePath != "" {
		options.StorageStatePath = playwright.String(statePath)
	}
	api, err := s.Playwright.Request.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create request context: %w", err)
	}
	return api, nil
}

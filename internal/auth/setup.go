package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"storefront-e2e/internal/browser"
	"storefront-e2e/internal/pages"
	"sync"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/errgroup"
)

const inventoryURLPattern = "**/inventory.html"

// Setup logs in as every user that can and saves each role's storage state
// into dir. A role that fails is logged and skipped. It returns the paths of
// the files written.
func Setup(ctx context.Context, s *browser.Session, users Users, dir string, logger *slog.Logger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		created []string
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, user := range users {
		if user.Type == LockedOutRole {
			continue
		}
		user := user
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Info("creating auth state", "role", user.Type)
			path := filepath.Join(dir, StateFileName(user.Type))
			if err := saveState(s, user, path); err != nil {
				logger.Error("failed to create auth state", "role", user.Type, "error", err)
				return nil
			}
			logger.Info("auth state created", "role", user.Type, "path", path)

			mu.Lock()
			defer mu.Unlock()
			created = append(created, path)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(created)
	return created, nil
}

func saveState(s *browser.Session, user User, path string) error {
	page, err := s.NewPage()
	if err != nil {
		return err
	}
	defer page.Context().Close()

	if err := login(s, page, user); err != nil {
		return err
	}
	if _, err := page.Context().StorageState(path); err != nil {
		return fmt.Errorf("failed to save storage state: %w", err)
	}
	return nil
}

func login(s *browser.Session, page playwright.Page, user User) error {
	loginPage := pages.NewLoginPage(pages.NewBase(page, s.Config().BaseURL))
	if err := loginPage.Goto(); err != nil {
		return err
	}
	if err := loginPage.Login(user.Username, user.Password); err != nil {
		return err
	}
	if user.Type == LockedOutRole {
		return nil
	}
	return page.WaitForURL(inventoryURLPattern)
}

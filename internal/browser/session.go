package browser

import (
	"errors"
	"fmt"
	"storefront-e2e/internal/config"

	"github.com/playwright-community/playwright-go"
)

// Session owns a playwright driver and one browser, launched or attached over
// CDP as the config says.
type Session struct {
	Playwright *playwright.Playwright
	Browser    playwright.Browser
	config     config.Config
}

func NewSession(c config.Config) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browserType, err := selectBrowserType(pw, c.BrowserName)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	var browser playwright.Browser
	if c.CDPURL == "" {
		browser, err = browserType.Launch(launchOptions(c))
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to launch %s: %w", c.BrowserName, err)
		}
	} else {
		browser, err = browserType.ConnectOverCDP(c.CDPURL)
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to connect to browser via CDP at %s: %w", c.CDPURL, err)
		}
	}

	return &Session{
		Playwright: pw,
		Browser:    browser,
		config:     c,
	}, nil
}

func selectBrowserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case "", "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unknown browser: %s", name)
}

func launchOptions(c config.Config) playwright.BrowserTypeLaunchOptions {
	options := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(c.Headless),
	}
	if c.SlowMo > 0 {
		options.SlowMo = playwright.Float(float64(c.SlowMo.Milliseconds()))
	}
	return options
}

func (s *Session) Config() config.Config {
	return s.config
}

type ContextOption func(*playwright.BrowserNewContextOptions)

// WithStorageStatePath starts the context from a saved auth state file.
func WithStorageStatePath(path string) ContextOption {
	return func(o *playwright.BrowserNewContextOptions) {
		o.StorageStatePath = playwright.String(path)
	}
}

func WithViewport(width int, height int) ContextOption {
	return func(o *playwright.BrowserNewContextOptions) {
		o.Viewport = &playwright.Size{Width: width, Height: height}
	}
}

func WithExtraHTTPHeaders(headers map[string]string) ContextOption {
	return func(o *playwright.BrowserNewContextOptions) {
		o.ExtraHttpHeaders = headers
	}
}

// ContextOptions resolves options on top of the base URL of c.
func ContextOptions(c config.Config, opts ...ContextOption) playwright.BrowserNewContextOptions {
	options := playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(c.BaseURL),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func (s *Session) NewContext(opts ...ContextOption) (playwright.BrowserContext, error) {
	ctx, err := s.Browser.NewContext(ContextOptions(s.config, opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	ctx.SetDefaultTimeout(s.config.TimeoutMillis())
	return ctx, nil
}

// NewPage opens a page in a fresh context. Closing the context is up to the
// caller, through page.Context().
func (s *Session) NewPage(opts ...ContextOption) (playwright.Page, error) {
	ctx, err := s.NewContext(opts...)
	if err != nil {
		return nil, err
	}
	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	return page, nil
}

func (s *Session) Close() error {
	var errs []error
	if s.config.CDPURL == "" {
		if err := s.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if err := s.Playwright.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

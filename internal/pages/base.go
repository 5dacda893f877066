package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	diffimage "storefront-e2e/internal/diff/image"
	"storefront-e2e/internal/retry"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNoComparer      = errors.New("no baseline comparer configured")
)

type IndexError struct {
	What  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d is out of range, only %d available", e.What, e.Index, e.Len)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// Base is shared by every page object. Pages embed it instead of extending a
// common class.
type Base struct {
	Page    playwright.Page
	BaseURL string
	// Differ is only needed by VisualCompare. A zero Threshold counts every
	// changed pixel, see UseBaselines for the default.
	Differ        *diffimage.Comparer
	Retry         retry.Policy
	ScreenshotDir string
	Logger        *slog.Logger

	expect           playwright.PlaywrightAssertions
	loadingIndicator playwright.Locator
	title            playwright.Locator
}

func NewBase(page playwright.Page, baseURL string) *Base {
	return &Base{
		Page:             page,
		BaseURL:          baseURL,
		Retry:            retry.DefaultPolicy(),
		ScreenshotDir:    "screenshots",
		Logger:           slog.Default(),
		expect:           playwright.NewPlaywrightAssertions(),
		loadingIndicator: page.Locator(".loading-indicator"),
		title:            page.Locator(".title"),
	}
}

func (b *Base) Navigate(path string) error {
	if _, err := b.Page.Goto(b.BaseURL + path); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", path, err)
	}
	return nil
}

func (b *Base) WaitForPageLoad() error {
	if err := b.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return err
	}
	visible, err := b.loadingIndicator.IsVisible()
	if err != nil {
		return err
	}
	if visible {
		return b.loadingIndicator.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateHidden,
			Timeout: playwright.Float(30000),
		})
	}
	return nil
}

func (b *Base) ClickAndWaitForNavigation(locator playwright.Locator) error {
	_, err := b.Page.ExpectNavigation(func() error {
		return locator.Click()
	})
	return err
}

// Text returns the text content of locator, empty when it has none.
func (b *Base) Text(locator playwright.Locator) (string, error) {
	return locator.TextContent()
}

func (b *Base) IsPresent(locator playwright.Locator) (bool, error) {
	count, err := locator.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (b *Base) WaitVisible(locator playwright.Locator, timeout time.Duration) error {
	return locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (b *Base) expectTitle(text string) error {
	return b.expect.Locator(b.title).ToHaveText(text)
}

// UseBaselines makes VisualCompare read baselines from store with the
// default threshold.
func (b *Base) UseBaselines(store diffimage.BaselineStore) {
	b.Differ = diffimage.NewComparer(store)
}

// VisualCompare screenshots locator and compares it against the named
// baseline.
func (b *Base) VisualCompare(ctx context.Context, locator playwright.Locator, baselineName string) (*diffimage.DiffResult, error) {
	if b.Differ == nil {
		return nil, ErrNoComparer
	}
	screenshot, err := locator.Screenshot(playwright.LocatorScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	actual, err := diffimage.Decode(screenshot)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return b.Differ.CompareWithBaseline(ctx, actual, baselineName)
}

// MockJSON answers every request matching urlPattern with data encoded as JSON.
func (b *Base) MockJSON(urlPattern string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode mock response: %w", err)
	}
	return b.Page.Route(urlPattern, func(route playwright.Route) {
		if err := route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("application/json"),
			Body:        body,
		}); err != nil {
			b.Logger.Warn("failed to fulfill mocked route", "url", route.Request().URL(), "error", err)
		}
	})
}

type PerformanceMetrics struct {
	DOMContentLoaded     float64  `json:"domContentLoaded"`
	Load                 float64  `json:"load"`
	FirstContentfulPaint *float64 `json:"firstContentfulPaint"`
	NetworkRequests      int      `json:"networkRequests"`
}

const performanceMetricsScript = `() => {
	const entries = performance.getEntriesByType("navigation");
	if (entries.length === 0) {
		return "null";
	}
	const navigation = entries[0];
	const paint = performance.getEntriesByName("first-contentful-paint")[0];
	return JSON.stringify({
		domContentLoaded: navigation.domContentLoadedEventEnd - navigation.startTime,
		load: navigation.loadEventEnd - navigation.startTime,
		firstContentfulPaint: paint ? paint.startTime : null,
		networkRequests: performance.getEntriesByType("resource").length,
	});
}`

// PerformanceMetrics reads the navigation timing of the current page. It
// returns nil when the browser recorded no navigation.
func (b *Base) PerformanceMetrics() (*PerformanceMetrics, error) {
	v, err := b.Page.Evaluate(performanceMetricsScript)
	if err != nil {
		return nil, err
	}
	return parsePerformanceMetrics(v)
}

func parsePerformanceMetrics(v any) (*PerformanceMetrics, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected performance metrics result: %T", v)
	}
	var metrics *PerformanceMetrics
	if err := json.Unmarshal([]byte(s), &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode performance metrics: %w", err)
	}
	return metrics, nil
}

// Screenshot saves a full page screenshot as <ScreenshotDir>/<name>.png.
func (b *Base) Screenshot(name string) ([]byte, error) {
	return b.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(filepath.Join(b.ScreenshotDir, name+".png")),
		FullPage: playwright.Bool(true),
	})
}

func (b *Base) Evaluate(script string, args ...any) (any, error) {
	return b.Page.Evaluate(script, args...)
}

func (b *Base) Cookies() ([]playwright.Cookie, error) {
	return b.Page.Context().Cookies()
}

func (b *Base) SetCookie(name string, value string) error {
	return b.Page.Context().AddCookies([]playwright.OptionalCookie{
		{
			Name:  name,
			Value: value,
			URL:   playwright.String(b.Page.URL()),
		},
	})
}

func (b *Base) ClearCookies() error {
	return b.Page.Context().ClearCookies()
}

func (b *Base) ScrollTo(locator playwright.Locator) error {
	return locator.ScrollIntoViewIfNeeded()
}

func (b *Base) ScrollToBottom() error {
	_, err := b.Page.Evaluate(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (b *Base) URL() string {
	return b.Page.URL()
}

func (b *Base) Title() (string, error) {
	return b.Page.Title()
}

// RetryWithBackoff runs operation under b.Retry, logging every failed attempt.
func (b *Base) RetryWithBackoff(ctx context.Context, operation func(ctx context.Context) error) error {
	policy := b.Retry
	if policy.Logger == nil {
		policy.Logger = b.Logger
	}
	if policy.Logger == nil {
		policy.Logger = slog.Default()
	}
	logger := policy.Logger
	policy.OnRetry = func(a retry.Attempt) {
		if a.Delay > 0 {
			logger.Info("attempt failed, retrying", "attempt", a.Number, "delay", a.Delay, "error", a.Err)
		}
	}
	_, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// nth resolves the index-th element matched by locator.
func nth(locator playwright.Locator, index int, what string) (playwright.Locator, error) {
	all, err := locator.All()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(all) {
		return nil, &IndexError{What: what, Index: index, Len: len(all)}
	}
	return all[index], nil
}

func nthText(locator playwright.Locator, index int, what string) (string, error) {
	l, err := nth(locator, index, what)
	if err != nil {
		return "", err
	}
	return l.TextContent()
}

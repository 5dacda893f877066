package browser

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type CaptureOptions struct {
	// Selector limits the screenshot to the first matching element.
	Selector string
	// MaskSelectors are painted black before the screenshot.
	MaskSelectors []string
	FullPage      bool
	Headers       map[string]string
	// StorageStatePath captures as a logged-in user.
	StorageStatePath string
	Delay            time.Duration
}

type Capturer interface {
	Capture(ctx context.Context, url string, options CaptureOptions) ([]byte, error)
}

type playwrightCapturer struct {
	session *Session
}

// NewCapturer takes PNG screenshots through the session's browser.
func NewCapturer(s *Session) Capturer {
	return &playwrightCapturer{
		session: s,
	}
}

func (c *playwrightCapturer) Capture(ctx context.Context, url string, options CaptureOptions) ([]byte, error) {
	var contextOptions []ContextOption
	if options.StorageStatePath != "" {
		contextOptions = append(contextOptions, WithStorageStatePath(options.StorageStatePath))
	}
	if len(options.Headers) > 0 {
		contextOptions = append(contextOptions, WithExtraHTTPHeaders(options.Headers))
	}

	page, err := c.session.NewPage(contextOptions...)
	if err != nil {
		return nil, err
	}
	defer page.Context().Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			page.Close()
		case <-done:
		}
	}()
	defer close(done)

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if options.Delay > 0 {
		select {
		case <-time.After(options.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(options.MaskSelectors) > 0 {
		unique := make([]byte, 8)
		if _, err := rand.Read(unique); err != nil {
			return nil, fmt.Errorf("failed to generate unique identifier: %w", err)
		}
		if _, err := page.Evaluate(MaskScript(fmt.Sprintf("mask-%s", hex.EncodeToString(unique))), options.MaskSelectors); err != nil {
			return nil, fmt.Errorf("failed to mask selectors: %w", err)
		}
	}

	var screenshot []byte
	if options.Selector != "" {
		screenshot, err = page.Locator(options.Selector).First().Screenshot(playwright.LocatorScreenshotOptions{
			Type: playwright.ScreenshotTypePng,
		})
	} else {
		screenshot, err = page.Screenshot(playwright.PageScreenshotOptions{
			Type:     playwright.ScreenshotTypePng,
			FullPage: playwright.Bool(options.FullPage),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}

	return screenshot, nil
}

// MaskScript returns a function expression that covers every element matching
// the selectors passed to it with a black box carrying className.
func MaskScript(className string) string {
	maskCSS := fmt.Sprintf(`
.%s {
  position: relative !important;
}
.%s::after {
  content: "" !important;
  position: absolute !important;
  inset: 0 !important;
  background-color: black !important;
  z-index: 2147483646 !important;
  pointer-events: none !important;
}
`, className, className)

	return fmt.Sprintf(`(selectors) => {
	const style = document.createElement('style');
	style.textContent = %q;
	document.head.appendChild(style);

	selectors.forEach(selector => {
		document.querySelectorAll(selector).forEach(element => {
			if (window.getComputedStyle(element).position === 'static') {
				element.style.position = 'relative';
			}
			element.classList.add(%q);
		});
	});
}`, maskCSS, className)
}

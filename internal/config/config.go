package config

import (
	"errors"
	"io/fs"
	"net/url"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"
)

const (
	DefaultBaseURL     = "https://www.saucedemo.com"
	DefaultBrowserName = "chromium"
	DefaultTimeout     = 30 * time.Second
)

// Config is everything the browser-driving code needs to know about the
// environment it runs in.
type Config struct {
	BaseURL     string
	Headless    bool
	SlowMo      time.Duration
	BrowserName string
	// CDPURL attaches to a running browser instead of launching one.
	CDPURL  string
	Timeout time.Duration
}

func Default() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Headless:    true,
		BrowserName: DefaultBrowserName,
		Timeout:     DefaultTimeout,
	}
}

// Load builds a Config from BASE_URL, HEADLESS, SLOW_MO_MS, BROWSER,
// CHROME_DEVTOOLS_PROTOCOL_URL and TIMEOUT. Unset variables keep their
// defaults, malformed ones are errors.
func Load(getenv func(string) string) (Config, error) {
	c := Default()

	if v := getenv("BASE_URL"); v != "" {
		u, err := url.Parse(v)
		if err != nil {
			return Config{}, xerrors.Errorf("failed to parse BASE_URL: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return Config{}, xerrors.Errorf("BASE_URL must be an absolute URL: %s", v)
		}
		c.BaseURL = v
	}

	if v := getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, xerrors.Errorf("failed to parse HEADLESS: %w", err)
		}
		c.Headless = headless
	}

	if v := getenv("SLOW_MO_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, xerrors.Errorf("failed to parse SLOW_MO_MS: %w", err)
		}
		if ms < 0 {
			return Config{}, xerrors.Errorf("SLOW_MO_MS must not be negative: %d", ms)
		}
		c.SlowMo = time.Duration(ms) * time.Millisecond
	}

	if v := getenv("BROWSER"); v != "" {
		switch v {
		case "chromium", "firefox", "webkit":
			c.BrowserName = v
		default:
			return Config{}, xerrors.Errorf("unknown BROWSER: %s", v)
		}
	}

	c.CDPURL = getenv("CHROME_DEVTOOLS_PROTOCOL_URL")

	if v := getenv("TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, xerrors.Errorf("failed to parse TIMEOUT: %w", err)
		}
		if timeout <= 0 {
			return Config{}, xerrors.Errorf("TIMEOUT must be positive: %s", timeout)
		}
		c.Timeout = timeout
	}

	return c, nil
}

// LoadDotEnv loads variables from the given files (.env by default) without
// overriding the ones already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return xerrors.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// TimeoutMillis is Timeout in the unit playwright expects.
func (c Config) TimeoutMillis() float64 {
	return float64(c.Timeout / time.Millisecond)
}

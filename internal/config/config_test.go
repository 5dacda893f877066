package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"storefront-e2e/internal/config"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	type in struct {
		env map[string]string
	}

	type want struct {
		config          config.Config
		wantErrorString string
	}

	tests := []struct {
		name string
		in   in
		want want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{map[string]string{}},
			want{config.Default(), ""},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{map[string]string{
				"BASE_URL":                     "http://localhost:3000",
				"HEADLESS":                     "false",
				"SLOW_MO_MS":                   "500",
				"BROWSER":                      "firefox",
				"CHROME_DEVTOOLS_PROTOCOL_URL": "http://localhost:9222",
				"TIMEOUT":                      "5s",
			}},
			want{config.Config{
				BaseURL:     "http://localhost:3000",
				Headless:    false,
				SlowMo:      500 * time.Millisecond,
				BrowserName: "firefox",
				CDPURL:      "http://localhost:9222",
				Timeout:     5 * time.Second,
			}, ""},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{map[string]string{"BASE_URL": "/inventory.html"}},
			want{config.Config{}, "BASE_URL must be an absolute URL: /inventory.html"},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{map[string]string{"HEADLESS": "sometimes"}},
			want{config.Config{}, `failed to parse HEADLESS: strconv.ParseBool: parsing "sometimes": invalid syntax`},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{map[string]string{"SLOW_MO_MS": "-1"}},
			want{config.Config{}, "SLOW_MO_MS must not be negative: -1"},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{map[string]string{"BROWSER": "netscape"}},
			want{config.Config{}, "unknown BROWSER: netscape"},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{map[string]string{"TIMEOUT": "0s"}},
			want{config.Config{}, "TIMEOUT must be positive: 0s"},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := config.Load(func(key string) string {
				return in.env[key]
			})
			if err != nil {
				if diff := cmp.Diff(want.wantErrorString, err.Error()); diff != "" {
					t.Errorf("(-want +got):\n%s", diff)
				}
				return
			}
			if diff := cmp.Diff(want.wantErrorString, ""); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want.config, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestTimeoutMillis(t *testing.T) {
	t.Parallel()

	c := config.Config{Timeout: 1500 * time.Millisecond}
	if diff := cmp.Diff(1500.0, c.TimeoutMillis()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STOREFRONT_TEST_BASE=http://example.test\nSTOREFRONT_TEST_KEPT=fromfile\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOREFRONT_TEST_KEPT", "fromenv")
	t.Cleanup(func() { _ = os.Unsetenv("STOREFRONT_TEST_BASE") })

	if err := config.LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff("http://example.test", os.Getenv("STOREFRONT_TEST_BASE")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("fromenv", os.Getenv("STOREFRONT_TEST_KEPT")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEnvOrDefaultValue(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_INT", "42")
	t.Setenv("STOREFRONT_TEST_DURATION", "250ms")
	t.Setenv("STOREFRONT_TEST_BOOL", "not-a-bool")

	if diff := cmp.Diff(42, config.EnvOrDefaultValue("STOREFRONT_TEST_INT", 7)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(250*time.Millisecond, config.EnvOrDefaultValue("STOREFRONT_TEST_DURATION", time.Second)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(true, config.EnvOrDefaultValue("STOREFRONT_TEST_BOOL", true)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("fallback", config.EnvOrDefaultValue("STOREFRONT_TEST_UNSET", "fallback")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

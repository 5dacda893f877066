package logging_test

import (
	"bytes"
	"encoding/json"
	"storefront-e2e/internal/logging"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	t.Setenv("GO_LOG", "debug")

	var buffer bytes.Buffer
	logger, err := logging.New(&buffer, false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("auth state saved", "role", "standard")

	var got map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	delete(got, "time")
	want := map[string]any{
		"severitytext": "DEBUG",
		"body":         "auth state saved",
		"role":         "standard",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestNewDebugUsesText(t *testing.T) {
	t.Setenv("GO_LOG", "info")

	var buffer bytes.Buffer
	logger, err := logging.New(&buffer, true)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hidden")
	logger.Info("shown")

	if got := buffer.String(); !strings.Contains(got, "body=shown") || strings.Contains(got, "hidden") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	t.Setenv("GO_LOG", "loud")

	if _, err := logging.New(&bytes.Buffer{}, false); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

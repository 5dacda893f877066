package auth_test

import (
	"errors"
	"os"
	"path/filepath"
	"storefront-e2e/internal/auth"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const usersJSON = `[
  {"username": "standard_user", "password": "secret_sauce", "type": "standard"},
  {"username": "locked_out_user", "password": "secret_sauce", "type": "locked_out"},
  {"username": "problem_user", "password": "secret_sauce", "type": "problem"}
]`

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadUsers(t *testing.T) {
	t.Parallel()

	users, err := auth.LoadUsers(writeFile(t, t.TempDir(), "test-users.json", usersJSON))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(3, len(users)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, err := users.Find("problem")
	if err != nil {
		t.Fatal(err)
	}
	want := auth.User{Username: "problem_user", Password: "secret_sauce", Type: "problem"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if _, err := users.Find("admin"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLoadUsersErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := auth.LoadUsers(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
	if _, err := auth.LoadUsers(writeFile(t, dir, "broken.json", "{")); err == nil {
		t.Error("expected malformed users to fail")
	}
}

func TestStateFileName(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff("auth-state-standard.json", auth.StateFileName("standard")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestLoadStateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	state, err := auth.LoadStateFile(writeFile(t, dir, auth.StateFileName("standard"),
		`{"cookies": [{"name": "session-username", "value": "standard_user"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(1, len(state.Cookies)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if state.Origins == nil {
		t.Error("expected missing origins to become an empty list")
	}

	if _, err := auth.LoadStateFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestCleanup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, auth.StateFileName("standard"), "{}")
	writeFile(t, dir, auth.StateFileName("problem"), "{}")
	writeFile(t, dir, "test-users.json", usersJSON)
	writeFile(t, dir, "auth-state-notes.txt", "")
	if err := os.Mkdir(filepath.Join(dir, "auth-state-dir.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	removed, err := auth.Cleanup(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"auth-state-problem.json", "auth-state-standard.json"}, removed); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	left := []string{}
	for _, e := range entries {
		left = append(left, e.Name())
	}
	if diff := cmp.Diff([]string{"auth-state-dir.json", "auth-state-notes.txt", "test-users.json"}, left); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCleanupMissingDirectory(t *testing.T) {
	t.Parallel()

	if _, err := auth.Cleanup(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

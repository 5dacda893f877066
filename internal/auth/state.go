package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	stateFilePrefix = "auth-state-"
	stateFileSuffix = ".json"
)

func StateFileName(role string) string {
	return stateFilePrefix + role + stateFileSuffix
}

// StateFile is the storage state the browser saves after logging in.
type StateFile struct {
	Cookies []json.RawMessage `json:"cookies"`
	Origins []json.RawMessage `json:"origins"`
}

func LoadStateFile(path string) (*StateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state StateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode auth state %s: %w", path, err)
	}
	if state.Origins == nil {
		state.Origins = []json.RawMessage{}
	}
	return &state, nil
}

// Cleanup removes every auth state file in dir and returns their names.
func Cleanup(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	removed := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, stateFilePrefix) || !strings.HasSuffix(name, stateFileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)
	return removed, nil
}

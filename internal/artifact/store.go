// Package artifact implements run-scoped artifact addressing. Every tier
// file lives at {root}/{runID}/{name}.json, so a re-run under the same run ID
// overwrites its own output and outputs of different places never collide.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InvalidNameError reports a place or run name that is not safe to use as a
// path component. The stage must fail fast instead of writing outside its
// run directory.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid artifact name %q: %s", e.Name, e.Reason)
}

// Store addresses the artifacts of one tier under a fixed root directory.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir. The root is created on demand by
// writes, not here, so constructing stores for read-only use is cheap.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("artifact root is required")
	}
	return &Store{root: root}, nil
}

// Root returns the tier root directory.
func (s *Store) Root() string { return s.root }

// Path computes the tier file path for a place within a run.
func (s *Store) Path(runID, name string) (string, error) {
	if err := validateName(runID); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, runID, name+".json"), nil
}

// RunDir returns the per-run directory, creating it if needed. Creation is
// idempotent.
func (s *Store) RunDir(runID string) (string, error) {
	if err := validateName(runID); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, runID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create run dir %s: %w", dir, err)
	}
	return dir, nil
}

// WriteJSON persists a fully constructed tier object. The object is
// marshaled before any file is touched and written via a temp file plus
// rename, so a tier file is either complete or absent.
func (s *Store) WriteJSON(runID, name string, v any) (string, error) {
	target, err := s.Path(runID, name)
	if err != nil {
		return "", err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	if _, err := s.RunDir(runID); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact for %s: %w", target, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write artifact %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close artifact %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("publish artifact %s: %w", target, err)
	}
	return target, nil
}

// ReadJSON loads a tier file into v.
func (s *Store) ReadJSON(runID, name string, v any) error {
	target, err := s.Path(runID, name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", target, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse artifact %s: %w", target, err)
	}
	return nil
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &InvalidNameError{Name: name, Reason: "empty"}
	case strings.ContainsAny(name, `/\`):
		return &InvalidNameError{Name: name, Reason: "contains path separator"}
	case name == "." || name == "..":
		return &InvalidNameError{Name: name, Reason: "relative path element"}
	case strings.ContainsRune(name, 0):
		return &InvalidNameError{Name: name, Reason: "contains NUL byte"}
	}
	return nil
}

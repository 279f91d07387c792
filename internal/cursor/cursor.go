// Package cursor persists the keyword list and the position of the next
// keyword to publish.
package cursor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// State is the persisted cursor document.
type State struct {
	CurrentIndex int      `json:"currentIndex"`
	Keywords     []string `json:"keywords"`
}

// IsExhausted reports whether every keyword has been processed.
func (s State) IsExhausted() bool {
	return s.CurrentIndex >= len(s.Keywords)
}

// Current returns the keyword at the cursor.
func (s State) Current() (string, bool) {
	if s.CurrentIndex < 0 || s.IsExhausted() {
		return "", false
	}
	return s.Keywords[s.CurrentIndex], true
}

// Advance returns a copy of the state moved forward by one. The receiver is
// not modified.
func (s State) Advance() State {
	next := State{
		CurrentIndex: s.CurrentIndex + 1,
		Keywords:     append([]string(nil), s.Keywords...),
	}
	return next
}

// Remaining is the number of keywords left, including the current one.
func (s State) Remaining() int {
	return max(len(s.Keywords)-s.CurrentIndex, 0)
}

// Append adds keywords that are not already present, ignoring blanks, and
// returns the new state and how many were added.
func (s State) Append(keywords ...string) (State, int) {
	seen := make(map[string]struct{}, len(s.Keywords))
	for _, k := range s.Keywords {
		seen[k] = struct{}{}
	}
	next := State{CurrentIndex: s.CurrentIndex, Keywords: append([]string(nil), s.Keywords...)}
	added := 0
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		next.Keywords = append(next.Keywords, k)
		added++
	}
	return next, added
}

// Reset moves the cursor to index, which must lie within [0, len(Keywords)].
func (s State) Reset(index int) (State, error) {
	if index < 0 || index > len(s.Keywords) {
		return s, fmt.Errorf("index %d out of range [0, %d]", index, len(s.Keywords))
	}
	return State{CurrentIndex: index, Keywords: append([]string(nil), s.Keywords...)}, nil
}

// Load reads the cursor document at path.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("reading cursor: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("parsing cursor %s: %w", path, err)
	}
	if s.CurrentIndex < 0 || s.CurrentIndex > len(s.Keywords) {
		return State{}, fmt.Errorf("cursor %s: currentIndex %d out of range [0, %d]", path, s.CurrentIndex, len(s.Keywords))
	}
	return s, nil
}

// Save overwrites the cursor document at path. The file is written to a
// temporary sibling first and renamed into place.
func Save(path string, s State) error {
	if s.Keywords == nil {
		s.Keywords = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cursor: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cursor-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cursor: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cursor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cursor: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing cursor: %w", err)
	}
	return nil
}

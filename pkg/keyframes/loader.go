package keyframes

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed data/*.json
var embeddedMotions embed.FS

// Motion is a named, loaded keyframe sequence.
type Motion struct {
	Name        string
	Description string
	Keyframes   Keyframes
}

// motionFile is the on-disk layout of a motion.
type motionFile struct {
	Description string `json:"description"`
	Keyframes
}

// LoadEmbedded loads a motion shipped with the package (e.g. "hello").
func LoadEmbedded(name string) (*Motion, error) {
	data, err := embeddedMotions.ReadFile("data/" + name + ".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read motion %q: %w", name, err)
	}
	return parseMotion(name, data)
}

// LoadFromFile loads a motion from a JSON file on disk.
// The motion is named after the file without its extension.
func LoadFromFile(path string) (*Motion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read motion file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	return parseMotion(name, data)
}

// ListEmbedded returns the names of all embedded motions, sorted.
func ListEmbedded() ([]string, error) {
	entries, err := embeddedMotions.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded motions: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

func parseMotion(name string, data []byte) (*Motion, error) {
	var raw motionFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKeyframes, name, err)
	}
	if len(raw.Names) == 0 {
		return nil, fmt.Errorf("%w: %s has no joints", ErrInvalidKeyframes, name)
	}
	if err := raw.Keyframes.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Motion{
		Name:        name,
		Description: raw.Description,
		Keyframes:   raw.Keyframes,
	}, nil
}

// Package flutter locates the pieces of a Flutter application project
// that the integration needs: the application root, the platform
// directories and the fipers package root. Discovery is read-only and
// runs before anything is mutated.
package flutter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoPubspec     = errors.New("no pubspec.yaml found")
	ErrNotFlutterApp = errors.New("pubspec.yaml does not declare a flutter application")
	ErrNoPackageRoot = errors.New("fipers package root not found (no scripts/build.sh)")
)

// BuildScript is the native build entry point, relative to the fipers
// package root.
const BuildScript = "scripts/build.sh"

type pubspec struct {
	Name         string                 `yaml:"name"`
	Flutter      map[string]interface{} `yaml:"flutter"`
	Dependencies map[string]interface{} `yaml:"dependencies"`
}

func (s *pubspec) usesFlutter() bool {
	if s.Flutter != nil {
		return true
	}
	_, ok := s.Dependencies["flutter"]
	return ok
}

// FindRoot walks up from start looking for a pubspec.yaml that declares
// a Flutter application and returns the directory holding it.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		manifest := filepath.Join(dir, "pubspec.yaml")
		if _, err := os.Stat(manifest); err == nil {
			spec, err := readPubspec(manifest)
			if err != nil {
				return "", err
			}
			if !spec.usesFlutter() {
				return "", fmt.Errorf("%s: %w", manifest, ErrNotFlutterApp)
			}
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("searched upward from %s: %w", start, ErrNoPubspec)
		}
		dir = parent
	}
}

func readPubspec(path string) (*pubspec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec pubspec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &spec, nil
}

// FindPackageRoot walks up from start looking for the directory holding
// scripts/build.sh, the fipers package root.
func FindPackageRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, BuildScript)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("searched upward from %s: %w", start, ErrNoPackageRoot)
		}
		dir = parent
	}
}

// Package config carries the few knobs the integration exposes. Values
// come from defaults, an optional .fipers.yaml at the package root, and
// FIPERS_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileName is the optional configuration file at the fipers package root.
const FileName = ".fipers.yaml"

const envPrefix = "fipers"

type Config struct {
	// LibraryBaseName is the native library base name; "fipers" yields
	// libfipers.a / libfipers.dylib / libfipers.so.
	LibraryBaseName string `yaml:"library_base_name" envconfig:"LIBRARY_BASE_NAME"`
	// BuildConfiguration is passed to scripts/build.sh.
	BuildConfiguration string `yaml:"build_configuration" envconfig:"BUILD_CONFIGURATION"`
	// OpenSSLPrefixes are the install prefixes probed for the OpenSSL
	// dylibs on macOS, in order.
	OpenSSLPrefixes []string `yaml:"openssl_prefixes" envconfig:"OPENSSL_PREFIXES"`
	// OpenSSLLibraries are the dylib names bundled alongside the library
	// on macOS.
	OpenSSLLibraries []string `yaml:"openssl_libraries" envconfig:"OPENSSL_LIBRARIES"`
}

func Default() Config {
	return Config{
		LibraryBaseName:    "fipers",
		BuildConfiguration: "Release",
		OpenSSLPrefixes: []string{
			"/opt/homebrew/opt/openssl@3",
			"/usr/local/opt/openssl@3",
		},
		OpenSSLLibraries: []string{
			"libssl.3.dylib",
			"libcrypto.3.dylib",
		},
	}
}

// Load builds the effective configuration for a package root.
func Load(dir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

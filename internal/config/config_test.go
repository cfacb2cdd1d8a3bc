package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "fipers", cfg.LibraryBaseName)
	assert.Equal(t, "Release", cfg.BuildConfiguration)
	assert.Equal(t, []string{
		"/opt/homebrew/opt/openssl@3",
		"/usr/local/opt/openssl@3",
	}, cfg.OpenSSLPrefixes)
	assert.Equal(t, []string{"libssl.3.dylib", "libcrypto.3.dylib"}, cfg.OpenSSLLibraries)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	doc := "library_base_name: custom\nopenssl_prefixes:\n  - /opt/custom/openssl\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(doc), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.LibraryBaseName)
	assert.Equal(t, []string{"/opt/custom/openssl"}, cfg.OpenSSLPrefixes)
	assert.Equal(t, "Release", cfg.BuildConfiguration)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	doc := "build_configuration: Debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(doc), 0o644))
	t.Setenv("FIPERS_BUILD_CONFIGURATION", "Profile")
	t.Setenv("FIPERS_OPENSSL_PREFIXES", "/a,/b")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Profile", cfg.BuildConfiguration)
	assert.Equal(t, []string{"/a", "/b"}, cfg.OpenSSLPrefixes)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(":\n\t- nope"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}

package flutter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const flutterPubspec = `name: demo_app
dependencies:
  flutter:
    sdk: flutter
`

func TestFindRootWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pubspec.yaml"), flutterPubspec)
	nested := filepath.Join(root, "ios", "Runner.xcodeproj")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindRootAcceptsTopLevelFlutterSection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pubspec.yaml"), "name: demo\nflutter:\n  uses-material-design: true\n")

	found, err := FindRoot(root)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindRootRejectsPlainDartPackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pubspec.yaml"), "name: just_dart\ndependencies:\n  args: ^2.0.0\n")

	_, err := FindRoot(root)
	assert.True(t, errors.Is(err, ErrNotFlutterApp))
}

func TestFindRootReportsMissingPubspec(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoPubspec))
}

func TestFindPackageRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "scripts", "build.sh"), "#!/bin/sh\n")
	nested := filepath.Join(root, "scripts", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindPackageRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)

	_, err = FindPackageRoot(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoPackageRoot))
}

func TestPlatformPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("ios", "Runner.xcodeproj", "project.pbxproj"), IOS.ManifestPath())
	assert.Equal(t, filepath.Join("macos", "Runner.xcodeproj", "project.pbxproj"), MacOS.ManifestPath())
	assert.Empty(t, Android.ManifestPath())

	assert.Equal(t, "libfipers.a", IOS.ArtifactName("fipers"))
	assert.Equal(t, "libfipers.dylib", MacOS.ArtifactName("fipers"))
	assert.Equal(t, "libfipers.so", Android.ArtifactName("fipers"))

	assert.Equal(t, filepath.Join("ios", "Frameworks"), IOS.FrameworksDir())
	assert.Empty(t, Android.FrameworksDir())
}

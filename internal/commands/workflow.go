package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/fipers/fipers-integrate/internal/config"
	"github.com/fipers/fipers-integrate/internal/flutter"
	"github.com/fipers/fipers-integrate/internal/nativelib"
	"github.com/fipers/fipers-integrate/pbxproj"
)

var (
	stepDone = color.New(color.FgGreen)
	stepWarn = color.New(color.FgYellow)
	heading  = color.New(color.FgCyan, color.Bold)
)

// workspace holds everything discovery produced: the application root,
// the fipers package root and the effective configuration.
type workspace struct {
	cfg     config.Config
	appRoot string
	pkgRoot string
}

func discoverWorkspace() (*workspace, error) {
	appRoot, err := flutter.FindRoot(projectDir)
	if err != nil {
		return nil, err
	}

	pkgRoot, err := flutter.FindPackageRoot(packageDir)
	if err != nil {
		if libraryPath == "" {
			return nil, err
		}
		// with an explicit --library the package root is only used for
		// configuration, which falls back to the application root
		logger.Debug("package root not found, using --library", zap.Error(err))
		pkgRoot = ""
	}

	cfgDir := pkgRoot
	if cfgDir == "" {
		cfgDir = appRoot
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return nil, err
	}

	logger.Debug("workspace discovered",
		zap.String("app", appRoot),
		zap.String("package", pkgRoot))
	return &workspace{cfg: cfg, appRoot: appRoot, pkgRoot: pkgRoot}, nil
}

// requirePlatformDir verifies the application actually targets the
// platform before anything is built or copied.
func (ws *workspace) requirePlatformDir(platform flutter.Platform) error {
	dir := filepath.Join(ws.appRoot, platform.Dir())
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("project %s has no %s directory; enable the platform with `flutter create --platforms=%s .`",
			ws.appRoot, platform.Dir(), platform)
	}
	return nil
}

// locateArtifact produces the prebuilt library for a platform: the
// --library flag wins, otherwise scripts/build.sh is run and the build
// output directory is checked. A missing build script only warns; a
// missing artifact is fatal with the command to produce it.
func (ws *workspace) locateArtifact(ctx context.Context, platform flutter.Platform) (string, error) {
	if libraryPath != "" {
		path, err := filepath.Abs(libraryPath)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("library %s: %w", path, err)
		}
		return path, nil
	}

	builder := &nativelib.Builder{PackageRoot: ws.pkgRoot, Log: logger}
	if err := builder.Build(ctx, platform, ws.cfg.BuildConfiguration); err != nil {
		if !errors.Is(err, nativelib.ErrNoBuildScript) {
			return "", err
		}
		stepWarn.Println("build.sh not found, assuming the library is already built")
	}

	name := platform.ArtifactName(ws.cfg.LibraryBaseName)
	artifact := filepath.Join(ws.pkgRoot, platform.Dir(), "build", name)
	if _, err := os.Stat(artifact); err != nil {
		return "", fmt.Errorf("library not found at %s; build it first: ./%s %s %s",
			artifact, flutter.BuildScript, platform, ws.cfg.BuildConfiguration)
	}
	return artifact, nil
}

// openManifest parses the platform's Xcode manifest and writes the
// .backup before any mutation.
func (ws *workspace) openManifest(platform flutter.Platform) (*pbxproj.Project, error) {
	manifest := filepath.Join(ws.appRoot, platform.ManifestPath())
	proj, err := pbxproj.Open(manifest)
	if err != nil {
		return nil, err
	}
	backup, err := proj.Backup()
	if err != nil {
		return nil, err
	}
	stepDone.Printf("Backed up project manifest to %s\n", backup)
	return proj, nil
}

func reportRegistration(name string, reg *pbxproj.Registration) {
	switch {
	case reg.AlreadyPresent && !reg.SettingsUpdated:
		stepDone.Printf("%s already registered, nothing to do\n", name)
	case reg.AlreadyPresent:
		stepDone.Printf("%s already registered, repaired linker settings\n", name)
	default:
		stepDone.Printf("Registered %s (file reference %s, build file %s)\n",
			name, reg.FileRefID, reg.BuildFileID)
	}
}

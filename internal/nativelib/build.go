// Package nativelib builds, copies and repairs the prebuilt fipers
// library. The native toolchain stays opaque: everything here is either
// a subprocess call with its exit status checked or a plain file
// operation.
package nativelib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fipers/fipers-integrate/internal/flutter"
)

// ErrNoBuildScript reports that the package has no scripts/build.sh; the
// caller decides whether that is fatal or means the artifact was built
// out of band.
var ErrNoBuildScript = errors.New("build script not found")

type Builder struct {
	PackageRoot string
	Log         *zap.Logger
}

// Build runs scripts/build.sh <platform> <configuration> and blocks
// until it finishes. On failure the script's stderr is surfaced verbatim
// so the caller never has to re-run the build to see what broke.
func (b *Builder) Build(ctx context.Context, platform flutter.Platform, configuration string) error {
	script := filepath.Join(b.PackageRoot, flutter.BuildScript)
	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("%w: %s", ErrNoBuildScript, script)
	}

	b.Log.Info("building native library",
		zap.String("script", script),
		zap.String("platform", platform.String()),
		zap.String("configuration", configuration))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, script, platform.String(), configuration)
	cmd.Dir = b.PackageRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build.sh %s %s failed: %w\n%s",
			platform, configuration, err, stderr.String())
	}
	return nil
}

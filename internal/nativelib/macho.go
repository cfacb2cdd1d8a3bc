package nativelib

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

func run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// LinkedLibraries returns the install names of the libraries a Mach-O
// binary links against, via otool -L.
func LinkedLibraries(ctx context.Context, path string) ([]string, error) {
	out, err := run(ctx, "otool", "-L", path)
	if err != nil {
		return nil, err
	}
	return parseLinkedLibraries(out), nil
}

// parseLinkedLibraries extracts install names from otool -L output. The
// first line names the inspected binary; each following line is an
// indented install name plus version info in parentheses.
func parseLinkedLibraries(out string) []string {
	var libs []string
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		libs = append(libs, fields[0])
	}
	return libs
}

// ChangeInstallName rewrites one load command, install_name_tool -change.
func ChangeInstallName(ctx context.Context, path, from, to string) error {
	_, err := run(ctx, "install_name_tool", "-change", from, to, path)
	return err
}

// SetInstallID rewrites a dylib's own install name, install_name_tool -id.
func SetInstallID(ctx context.Context, path, id string) error {
	_, err := run(ctx, "install_name_tool", "-id", id, path)
	return err
}

// AdHocSign re-signs a binary with the ad-hoc identity. Required after
// install_name_tool invalidates the existing signature.
func AdHocSign(ctx context.Context, path string) error {
	_, err := run(ctx, "codesign", "--sign", "-", "--force", path)
	return err
}

// isOpenSSLLoadCommand reports whether an install name points at a
// Homebrew or /usr/local OpenSSL dylib, the load commands that must be
// rewritten to @rpath for the bundled copies to be found.
func isOpenSSLLoadCommand(installName string) bool {
	if !strings.HasPrefix(installName, "/opt/homebrew/") &&
		!strings.HasPrefix(installName, "/usr/local/") {
		return false
	}
	base := filepath.Base(installName)
	return strings.HasPrefix(base, "libssl") || strings.HasPrefix(base, "libcrypto")
}

// RepairOpenSSLPaths rewrites any absolute OpenSSL load command in the
// binary at path to @rpath/<name> and re-signs when anything changed.
// It reports whether the binary was modified.
func RepairOpenSSLPaths(ctx context.Context, path string, log *zap.Logger) (bool, error) {
	libs, err := LinkedLibraries(ctx, path)
	if err != nil {
		return false, err
	}
	changed := false
	for _, lib := range libs {
		if !isOpenSSLLoadCommand(lib) {
			continue
		}
		rewritten := "@rpath/" + filepath.Base(lib)
		log.Debug("rewriting load command",
			zap.String("binary", path),
			zap.String("from", lib),
			zap.String("to", rewritten))
		if err := ChangeInstallName(ctx, path, lib, rewritten); err != nil {
			return changed, err
		}
		changed = true
	}
	if changed {
		if err := AdHocSign(ctx, path); err != nil {
			return true, err
		}
	}
	return changed, nil
}

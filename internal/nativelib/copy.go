package nativelib

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyArtifact copies src into destDir (created if needed), replacing any
// existing copy and preserving the source's mode and timestamps. It
// returns the destination path.
func CopyArtifact(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("source artifact: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return "", err
	}
	return dest, nil
}

package nativelib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolution describes where the OpenSSL dylibs were found, if anywhere.
// A miss is not an error: patching proceeds and the caller prints the
// remediation instead.
type Resolution struct {
	// Prefix is the install prefix that had every requested library.
	Prefix string
	// Libraries are the resolved absolute paths, in request order.
	Libraries []string
	Found     bool
}

// ResolveOpenSSL probes the candidate install prefixes in order and
// returns the first one whose lib directory holds every requested dylib.
func ResolveOpenSSL(prefixes, names []string) Resolution {
	for _, prefix := range prefixes {
		libDir := filepath.Join(prefix, "lib")
		paths := make([]string, 0, len(names))
		for _, name := range names {
			path := filepath.Join(libDir, name)
			if _, err := os.Stat(path); err != nil {
				paths = nil
				break
			}
			paths = append(paths, path)
		}
		if paths != nil {
			return Resolution{Prefix: prefix, Libraries: paths, Found: true}
		}
	}
	return Resolution{}
}

// Remediation is the advice printed when no prefix resolved.
func Remediation(prefixes []string) string {
	return fmt.Sprintf(
		"OpenSSL 3 libraries not found (searched: %s).\n"+
			"Install them with: brew install openssl@3\n"+
			"The app will not run until the OpenSSL dylibs are bundled.",
		strings.Join(prefixes, ", "))
}

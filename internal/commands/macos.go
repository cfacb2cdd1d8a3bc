package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fipers/fipers-integrate/internal/flutter"
	"github.com/fipers/fipers-integrate/internal/nativelib"
	"github.com/fipers/fipers-integrate/pbxproj"
)

var macosCmd = &cobra.Command{
	Use:   "macos",
	Short: "Bundle the dynamic library into the macOS Runner project",
	RunE:  runMacOS,
}

func init() {
	rootCmd.AddCommand(macosCmd)
}

const rpathFixGuard = "Fix OpenSSL rpath"

// rpathFixScript runs inside the Runner's ShellScript build phase, after
// the bundled frameworks are copied, so the app loads the bundled OpenSSL
// instead of the Homebrew install it was linked against.
const rpathFixScript = `# Fix OpenSSL rpath in app bundle after copy
if [ -f "${BUILT_PRODUCTS_DIR}/${WRAPPER_NAME}/Contents/Frameworks/libssl.3.dylib" ]; then
  install_name_tool -id "@rpath/libssl.3.dylib" "${BUILT_PRODUCTS_DIR}/${WRAPPER_NAME}/Contents/Frameworks/libssl.3.dylib" 2>/dev/null || true
  install_name_tool -change "/opt/homebrew/opt/openssl@3/lib/libcrypto.3.dylib" "@rpath/libcrypto.3.dylib" "${BUILT_PRODUCTS_DIR}/${WRAPPER_NAME}/Contents/Frameworks/libssl.3.dylib" 2>/dev/null || true
  install_name_tool -change "/usr/local/opt/openssl@3/lib/libcrypto.3.dylib" "@rpath/libcrypto.3.dylib" "${BUILT_PRODUCTS_DIR}/${WRAPPER_NAME}/Contents/Frameworks/libssl.3.dylib" 2>/dev/null || true
fi
if [ -f "${BUILT_PRODUCTS_DIR}/${WRAPPER_NAME}/Contents/Frameworks/libcrypto.3.dylib" ]; then
  install_name_tool -id "@rpath/libcrypto.3.dylib" "${BUILT_PRODUCTS_DIR}/${WRAPPER_NAME}/Contents/Frameworks/libcrypto.3.dylib" 2>/dev/null || true
fi`

func runMacOS(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws, err := discoverWorkspace()
	if err != nil {
		return err
	}
	if err := ws.requirePlatformDir(flutter.MacOS); err != nil {
		return err
	}

	heading.Println("Integrating fipers into the macOS project")

	artifact, err := ws.locateArtifact(ctx, flutter.MacOS)
	if err != nil {
		return err
	}
	frameworksDir := filepath.Join(ws.appRoot, flutter.MacOS.FrameworksDir())
	dest, err := nativelib.CopyArtifact(artifact, frameworksDir)
	if err != nil {
		return err
	}
	stepDone.Printf("Copied %s to %s\n", filepath.Base(artifact), dest)

	openssl, err := bundleOpenSSL(ctx, ws, frameworksDir)
	if err != nil {
		return err
	}

	if changed, err := nativelib.RepairOpenSSLPaths(ctx, dest, logger); err != nil {
		return fmt.Errorf("repair %s load commands: %w", filepath.Base(dest), err)
	} else if changed {
		stepDone.Printf("Rewrote OpenSSL load commands in %s and re-signed\n", filepath.Base(dest))
	}

	proj, err := ws.openManifest(flutter.MacOS)
	if err != nil {
		return err
	}

	bundled := append([]string{flutter.MacOS.ArtifactName(ws.cfg.LibraryBaseName)}, openssl...)
	regs := make(map[string]*pbxproj.Registration, len(bundled))
	for _, name := range bundled {
		reg, err := proj.RegisterArtifact(pbxproj.ArtifactSpec{
			Name: name,
			Kind: pbxproj.DynamicLibrary,
			Path: "../Frameworks/" + name,
		})
		if err != nil {
			return fmt.Errorf("project manifest is missing expected structure, not writing: %w", err)
		}
		regs[name] = reg
	}

	if len(openssl) > 0 {
		added, err := proj.AppendToShellScriptPhase("ShellScript", rpathFixGuard, rpathFixScript)
		if err != nil {
			return fmt.Errorf("project manifest is missing expected structure, not writing: %w", err)
		}
		if added {
			stepDone.Println("Added rpath fix script to the ShellScript build phase")
		}
	}

	if err := proj.Write(); err != nil {
		return err
	}
	for _, name := range bundled {
		reportRegistration(name, regs[name])
	}

	stepDone.Println("macOS integration complete; run `flutter build macos` to verify")
	return nil
}

// bundleOpenSSL copies the OpenSSL dylibs next to the library, points
// their install names at @rpath and re-signs them. A missing OpenSSL is
// an environment warning, never fatal: patching continues without the
// bundled copies.
func bundleOpenSSL(ctx context.Context, ws *workspace, frameworksDir string) ([]string, error) {
	res := nativelib.ResolveOpenSSL(ws.cfg.OpenSSLPrefixes, ws.cfg.OpenSSLLibraries)
	if !res.Found {
		stepWarn.Println(nativelib.Remediation(ws.cfg.OpenSSLPrefixes))
		return nil, nil
	}
	stepDone.Printf("Using OpenSSL from %s\n", res.Prefix)

	names := make([]string, 0, len(res.Libraries))
	for _, lib := range res.Libraries {
		copied, err := nativelib.CopyArtifact(lib, frameworksDir)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(copied)
		if err := nativelib.SetInstallID(ctx, copied, "@rpath/"+name); err != nil {
			return nil, err
		}
		if _, err := nativelib.RepairOpenSSLPaths(ctx, copied, logger); err != nil {
			return nil, err
		}
		if err := nativelib.AdHocSign(ctx, copied); err != nil {
			return nil, err
		}
		stepDone.Printf("Bundled %s\n", name)
		names = append(names, name)
	}
	return names, nil
}

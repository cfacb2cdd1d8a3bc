package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fipers/fipers-integrate/internal/flutter"
)

var androidCmd = &cobra.Command{
	Use:   "android [project-root]",
	Short: "Verify the Android project is wired for the native library",
	Long: `The Android library is built by Gradle through CMake, so there is no
manifest to patch. This command only verifies the wiring: build.gradle.kts
must declare an externalNativeBuild with cmake, and the fipers package
must ship android/CMakeLists.txt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAndroid,
}

func init() {
	rootCmd.AddCommand(androidCmd)
}

func runAndroid(cmd *cobra.Command, args []string) error {
	start := projectDir
	if len(args) == 1 {
		start = args[0]
	}
	appRoot, err := flutter.FindRoot(start)
	if err != nil {
		return err
	}
	heading.Printf("Checking Android integration for %s\n", appRoot)

	gradle := filepath.Join(appRoot, "android", "app", "build.gradle.kts")
	content, err := os.ReadFile(gradle)
	if err != nil {
		return fmt.Errorf("read %s: %w", gradle, err)
	}
	if strings.Contains(string(content), "externalNativeBuild") &&
		strings.Contains(string(content), "cmake") {
		stepDone.Println("CMake integration found in build.gradle.kts")
	} else {
		stepWarn.Println("No externalNativeBuild/cmake block in build.gradle.kts; the native library will not be built")
	}

	if pkgRoot, err := flutter.FindPackageRoot(packageDir); err != nil {
		stepWarn.Println(err.Error())
	} else if _, err := os.Stat(filepath.Join(pkgRoot, "android", "CMakeLists.txt")); err != nil {
		stepWarn.Printf("No android/CMakeLists.txt in %s\n", pkgRoot)
	} else {
		stepDone.Println("Found android/CMakeLists.txt in the fipers package")
	}

	stepWarn.Println("Android requires OpenSSL built separately; CMake will fail with instructions if it is missing")
	stepDone.Println("Android integration check complete; run `flutter build apk` to verify")
	return nil
}

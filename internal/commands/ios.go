package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fipers/fipers-integrate/internal/flutter"
	"github.com/fipers/fipers-integrate/internal/nativelib"
	"github.com/fipers/fipers-integrate/pbxproj"
)

var iosCmd = &cobra.Command{
	Use:   "ios",
	Short: "Link the static library into the iOS Runner project",
	RunE:  runIOS,
}

func init() {
	rootCmd.AddCommand(iosCmd)
}

func runIOS(cmd *cobra.Command, args []string) error {
	ws, err := discoverWorkspace()
	if err != nil {
		return err
	}
	if err := ws.requirePlatformDir(flutter.IOS); err != nil {
		return err
	}

	heading.Println("Integrating fipers into the iOS project")

	artifact, err := ws.locateArtifact(cmd.Context(), flutter.IOS)
	if err != nil {
		return err
	}
	dest, err := nativelib.CopyArtifact(artifact, filepath.Join(ws.appRoot, flutter.IOS.FrameworksDir()))
	if err != nil {
		return err
	}
	stepDone.Printf("Copied %s to %s\n", filepath.Base(artifact), dest)

	proj, err := ws.openManifest(flutter.IOS)
	if err != nil {
		return err
	}

	name := flutter.IOS.ArtifactName(ws.cfg.LibraryBaseName)
	reg, err := proj.RegisterArtifact(pbxproj.ArtifactSpec{
		Name: name,
		Kind: pbxproj.StaticArchive,
	})
	if err != nil {
		return fmt.Errorf("project manifest is missing expected structure, not writing: %w", err)
	}
	if err := proj.Write(); err != nil {
		return err
	}
	reportRegistration(name, reg)

	stepDone.Println("iOS integration complete; run `flutter build ios` to verify")
	return nil
}

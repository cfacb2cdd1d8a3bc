// Package commands wires the platform integration workflows into the
// fipers-integrate CLI.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger = zap.NewNop()

	verbose     bool
	projectDir  string
	packageDir  string
	libraryPath string
)

var rootCmd = &cobra.Command{
	Use:   "fipers-integrate",
	Short: "Splice the prebuilt fipers native library into a Flutter app project",
	Long: `fipers-integrate builds (or locates) the prebuilt fipers native library
and wires it into a Flutter application project: the artifact is copied
into the platform Frameworks directory and the Xcode project manifest is
patched so the library is linked or bundled. Patching is idempotent and a
.backup of the manifest is written before the first change.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", ".",
		"Flutter application directory (any directory inside it works)")
	rootCmd.PersistentFlags().StringVar(&packageDir, "package", ".",
		"fipers package directory (any directory inside it works)")
	rootCmd.PersistentFlags().StringVar(&libraryPath, "library", "",
		"path to a prebuilt library, skipping the build step")
}

func Execute() error {
	return rootCmd.Execute()
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/fipers/fipers-integrate/pbxproj"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <project.pbxproj>",
	Short: "Parse an Xcode project manifest and dump it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := pbxproj.Open(args[0])
		if err != nil {
			return err
		}
		return proj.Dump(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

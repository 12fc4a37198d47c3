package cmd

import (
	"github.com/spf13/cobra"
)

// emulateCmd represents the emulate command
var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Start the portal against a synthetic reader",
	Long: `Runs the full portal with the device emulator in place of a physical
reader, so the dashboard and match pipeline can be exercised without
hardware. Equivalent to start with reader.driver=emulator.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServer("emulator")
	},
}

func init() {
	RootCmd.AddCommand(emulateCmd)
}

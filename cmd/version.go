package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with
// -ldflags "-X github.com/ColonelBlimp/azul-plugin-qrcode/cmd.Version=..."
var Version = "2025.09.16"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "azul-plugin-qrcode %s\n", Version)
	},
}

package cmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/features"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/filetype"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the features produced and the file types accepted",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		table := uitable.New()
		table.MaxColWidth = 80
		table.Wrap = true
		table.AddRow("FEATURE", "TYPE", "DESCRIPTION")
		for _, d := range features.Definitions {
			table.AddRow(d.Name, d.Type, d.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)

		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "Accepted file types:")
		for _, ft := range filetype.Accepted() {
			fmt.Fprintln(cmd.OutOrStdout(), "  "+ft)
		}
	},
}

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textstamp/fonts"
	"github.com/ByLCY/textstamp/renderer"
)

func newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List built-in fonts and font backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			printTitle(out, "Built-in fonts")
			for _, name := range fonts.Names() {
				suffix := ""
				if name == fonts.Default {
					suffix = styleDim.Render(" (default)")
				}
				printFile(out, "builtin:"+name+suffix)
			}
			printKeyValue(out, "backends", strings.Join(renderer.Extensions(), " "))
			return nil
		},
	}
}

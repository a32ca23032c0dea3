package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textstamp/binding"
	"github.com/ByLCY/textstamp/layout"
	"github.com/ByLCY/textstamp/renderer"
)

func newMeasureCmd() *cobra.Command {
	var (
		asJSON bool
		data   string
		sf     *specFlags
	)
	cmd := &cobra.Command{
		Use:   "measure [text...]",
		Short: "Print the layout of a text without rendering it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			spec, err := cfg.ImageDefaults()
			if err != nil {
				return err
			}
			if err := sf.apply(cmd, &spec); err != nil {
				return err
			}
			bound, err := loadData(data)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				spec.Text = strings.Join(args, " ")
			}
			spec.Text = binding.Interpolate(spec.Text, bound)

			img, err := layout.Compose(spec, renderer.Dispatch(nil))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				b, err := layout.MarshalDebug(&layout.Result{Images: []*layout.Image{img}})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			}

			printTitle(out, "Layout")
			printKeyValue(out, "font", fmt.Sprintf("%s %gpt", spec.Font.Src, spec.Size))
			printKeyValue(out, "canvas", fmt.Sprintf("%dx%d", img.Width, img.Height))
			printKeyValue(out, "text", fmt.Sprintf("%dx%d", img.Metrics.Width, img.Metrics.Height))
			printKeyValue(out, "origin", fmt.Sprintf("%d,%d", img.X, img.Y))
			printKeyNumber(out, "lines", len(img.Lines))
			printLines(out, img.Lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON data for ${...} placeholders, or @file.json")
	sf = addSpecFlags(cmd)
	return cmd
}

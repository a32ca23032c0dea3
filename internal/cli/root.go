// Package cli implements the textstamp command-line interface.
//
// Commands:
//   - render: turn text (or a .stamp job file) into images
//   - measure: print the layout of a text without drawing it
//   - serve: run the HTTP service
//   - fonts: list built-in fonts and font backends
//
// All commands accept --config (TOML) and --verbose.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/textstamp/config"
	canvasrenderer "github.com/ByLCY/textstamp/renderer/canvas"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the values shown by --version; main injects them via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the textstamp CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var (
		verbose bool
		cfgPath = os.Getenv("TEXTSTAMP_CONFIG")
	)

	root := &cobra.Command{
		Use:          "textstamp",
		Short:        "textstamp renders text into images",
		Long:         `textstamp lays out text with word wrapping, padding, rotation and alignment, and renders it to PNG, JPEG, GIF, BMP or TIFF.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			// 用配置中的字体目录与注入字体替换默认注册的 TTF/OTF 后端
			canvasrenderer.Register(cfg.RendererOptions())
			if cfgPath != "" {
				logger.Debug("config loaded", "path", cfgPath)
			}

			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("textstamp %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", cfgPath, "TOML config file (env TEXTSTAMP_CONFIG)")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newMeasureCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newFontsCmd())
	return root
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textstamp/binding"
	"github.com/ByLCY/textstamp/dsl"
	"github.com/ByLCY/textstamp/layout"
	"github.com/ByLCY/textstamp/renderer"
)

type renderOpts struct {
	input  string // .stamp 作业文件
	data   string // 绑定数据（JSON 或 @file）
	output string // 单张图片的输出路径，"-" 表示标准输出
	outDir string // 作业文件中各图片的输出目录
	debug  string // 布局调试 JSON 路径
}

func newRenderCmd() *cobra.Command {
	var opts renderOpts
	var sf *specFlags

	cmd := &cobra.Command{
		Use:   "render [text...]",
		Short: "Render text or a job file to images",
		Example: `  textstamp render "Hello World" -o hello.png
  textstamp render --width 120 --padding 6 --align true "a longer caption that wraps"
  textstamp render --in banner.stamp --data '{"user":{"name":"Ada"}}' --out-dir out/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.input != "" && len(args) > 0 {
				return fmt.Errorf("--in 与文本参数不能同时使用")
			}
			return runRender(cmd, args, &opts, sf)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "in", "i", "", "job file (.stamp)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "JSON data for ${...} placeholders, or @file.json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file for a single image (- for stdout)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", ".", "output directory for job files")
	cmd.Flags().StringVar(&opts.debug, "debug", "", "write the layout plan as JSON")
	sf = addSpecFlags(cmd)
	return cmd
}

func runRender(cmd *cobra.Command, args []string, opts *renderOpts, sf *specFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)
	prog := newProgress(logger)

	defaults, err := cfg.ImageDefaults()
	if err != nil {
		return err
	}
	if err := sf.apply(cmd, &defaults); err != nil {
		return err
	}
	// 未显式指定格式时按输出文件扩展名推断
	if opts.output != "" && opts.output != "-" && !cmd.Flags().Changed("format") {
		if f, err := renderer.ParseFormat(filepath.Ext(opts.output)); err == nil && filepath.Ext(opts.output) != "" {
			defaults.Format = string(f)
		}
	}
	data, err := loadData(opts.data)
	if err != nil {
		return err
	}

	open := renderer.CachingOpener(cfg.Render.MeasureCache)
	result, err := buildResult(opts, args, defaults, data, renderer.Dispatch(open))
	if err != nil {
		return err
	}
	logger.Debug("layout done", "images", len(result.Images))

	if opts.debug != "" {
		if err := writeDebug(result, opts.debug); err != nil {
			return err
		}
	}
	if opts.output != "" && len(result.Images) > 1 {
		return fmt.Errorf("作业包含 %d 张图片，请使用 --out-dir 而不是 --output", len(result.Images))
	}

	out := cmd.OutOrStdout()
	for _, img := range result.Images {
		path, err := renderImage(ctx, img, open, opts, out)
		if err != nil {
			return err
		}
		if path != "-" {
			printFile(out, path)
		}
	}
	if opts.output != "-" {
		printSuccess(out, "%d image(s) rendered", len(result.Images))
	}
	prog.done(fmt.Sprintf("Rendered %d image(s)", len(result.Images)))
	return nil
}

// buildResult 从作业文件或命令行文本生成排版结果。
func buildResult(opts *renderOpts, args []string, defaults layout.ImageSpec, data any, m layout.Measurer) (*layout.Result, error) {
	if opts.input != "" {
		f, err := os.Open(opts.input)
		if err != nil {
			return nil, fmt.Errorf("无法打开作业文件 %s: %w", opts.input, err)
		}
		defer f.Close()
		doc, err := dsl.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("解析作业文件失败: %w", err)
		}
		res, err := layout.Build(doc, data, layout.BuildOptions{Measurer: m, Defaults: &defaults})
		if err != nil {
			return nil, fmt.Errorf("布局计算失败: %w", err)
		}
		return res, nil
	}

	spec := defaults
	if len(args) > 0 {
		spec.Text = strings.Join(args, " ")
	}
	spec.Text = binding.Interpolate(spec.Text, data)
	spec.Name = "textstamp"
	img, err := layout.Compose(spec, m)
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return &layout.Result{Images: []*layout.Image{img}}, nil
}

func renderImage(ctx context.Context, img *layout.Image, open renderer.OpenFunc, opts *renderOpts, stdout io.Writer) (string, error) {
	logger := loggerFromContext(ctx)
	format, err := renderer.ParseFormat(img.Spec.Format)
	if err != nil {
		return "", err
	}
	backend, err := open(img.Spec.Font.Src)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(backend, img, format)
	if err != nil {
		return "", fmt.Errorf("渲染 %s 失败: %w", img.Spec.Name, err)
	}

	path := outputPath(img, format, opts)
	if path == "-" {
		_, err := stdout.Write(data)
		return path, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入图片失败: %w", err)
	}
	logger.Debug("image written", "name", img.Spec.Name, "path", path, "size", fmt.Sprintf("%dx%d", img.Width, img.Height))
	return path, nil
}

// outputPath: --output 优先；否则使用 out 属性或图片名加扩展名，相对路径落在 --out-dir 下。
func outputPath(img *layout.Image, format renderer.Format, opts *renderOpts) string {
	if opts.output != "" {
		return opts.output
	}
	name := img.Spec.Output
	if name == "" {
		name = img.Spec.Name + format.Ext()
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(opts.outDir, name)
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textstamp/layout"
)

// attrFlags 是 render 与 measure 共用的排版参数；flag 名与 DSL 属性名一致。
var attrFlags = []struct {
	name  string
	usage string
}{
	{"font", "font source: builtin:<name>, embed:<file> or a .ttf/.otf path"},
	{"font-style", "font style (bold, italic, ...)"},
	{"size", "font size, e.g. 12, 12pt, 16px"},
	{"angle", "rotation in degrees"},
	{"color", "text color (#rgb or #rrggbb)"},
	{"background", "background color (#rgb or #rrggbb)"},
	{"width", "fixed image width; enables word wrapping"},
	{"height", "fixed image height"},
	{"padding", "padding on all sides"},
	{"padding-x", "horizontal padding"},
	{"padding-y", "vertical padding"},
	{"align", "center horizontally (true/false)"},
	{"valign", "center vertically (true/false)"},
	{"format", "output format: png, jpeg, gif, bmp, tiff"},
}

type specFlags struct {
	values map[string]*string
	sets   []string // 额外的 key=value
}

func addSpecFlags(cmd *cobra.Command) *specFlags {
	sf := &specFlags{values: map[string]*string{}}
	for _, f := range attrFlags {
		sf.values[f.name] = cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().StringArrayVar(&sf.sets, "set", nil, "set any layout attribute as key=value (repeatable)")
	return sf
}

// apply 只应用用户显式给出的 flag，顺序与 attrFlags 一致，--set 最后生效。
func (sf *specFlags) apply(cmd *cobra.Command, spec *layout.ImageSpec) error {
	for _, f := range attrFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		if err := layout.SetAttribute(spec, f.name, *sf.values[f.name]); err != nil {
			return fmt.Errorf("--%s: %w", f.name, err)
		}
	}
	for _, kv := range sf.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set 需要 key=value 形式，得到 %q", kv)
		}
		if err := layout.SetAttribute(spec, strings.ToLower(strings.TrimSpace(key)), value); err != nil {
			return fmt.Errorf("--set %s: %w", key, err)
		}
	}
	return nil
}

// loadData 解析 --data：以 @ 开头时从文件读取，否则当作内联 JSON。
func loadData(arg string) (any, error) {
	if arg == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		raw = b
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

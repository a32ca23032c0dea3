package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/textstamp/binding"
	"github.com/ByLCY/textstamp/dsl"
)

// Build 将 DSL 文档转换为排版结果：先应用默认值与 defaults 段，再逐个 image 段排版。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("缺少度量后端")
	}

	defaults := DefaultImageSpec()
	if opts.Defaults != nil {
		defaults = *opts.Defaults
	}

	result := &Result{}
	for idx, section := range doc.Sections {
		switch {
		case section.Defaults != nil:
			if err := applyBlock(&defaults, section.Defaults.Block, data); err != nil {
				return nil, fmt.Errorf("defaults 段: %w", err)
			}
		case section.Image != nil:
			spec := defaults
			spec.Name = section.Image.Name
			if spec.Name == "" {
				spec.Name = fmt.Sprintf("image-%d", len(result.Images)+1)
			}
			if err := applyBlock(&spec, section.Image.Block, data); err != nil {
				return nil, fmt.Errorf("image %s (行 %d): %w", spec.Name, section.Image.Pos.Line, err)
			}
			img, err := Compose(spec, opts.Measurer)
			if err != nil {
				return nil, fmt.Errorf("image %s 排版失败: %w", spec.Name, err)
			}
			result.Images = append(result.Images, img)
		default:
			return nil, fmt.Errorf("无法识别第 %d 个段落", idx+1)
		}
	}
	if len(result.Images) == 0 {
		return nil, fmt.Errorf("文档中没有 image 段")
	}
	return result, nil
}

// applyBlock 把块内的赋值与文本字面量写入 spec。
func applyBlock(spec *ImageSpec, block *dsl.Block, data any) error {
	if block == nil {
		return nil
	}
	var texts []string
	for _, stmt := range block.Statements {
		switch {
		case stmt.Assignment != nil:
			key := strings.ToLower(stmt.Assignment.Key)
			value := stmt.Assignment.Value.Raw()
			if stmt.Assignment.Value.String != nil {
				value = binding.Interpolate(value, data)
			}
			if err := SetAttribute(spec, key, value); err != nil {
				return fmt.Errorf("行 %d: %w", stmt.Assignment.Pos.Line, err)
			}
		case stmt.Text != nil:
			texts = append(texts, binding.Interpolate(string(stmt.Text.Value), data))
		}
	}
	if len(texts) > 0 {
		spec.Text = strings.Join(texts, " ")
	}
	return nil
}

// SetAttribute 按属性名设置 spec 的字段；CLI、HTTP 查询参数与 DSL 共用同一套键名。
func SetAttribute(spec *ImageSpec, key, value string) error {
	switch key {
	case "text":
		spec.Text = value
	case "font", "src":
		spec.Font.Src = value
		if spec.Font.Name == "" {
			spec.Font.Name = "Body"
		}
	case "font-name":
		spec.Font.Name = value
	case "style", "font-style":
		spec.Font.Style = value
	case "size", "font-size":
		l, ok := ParseLength(value)
		if !ok || l.ToPT() <= 0 {
			return fmt.Errorf("无效字号 %q", value)
		}
		spec.Size = l.ToPT()
	case "angle", "rotate":
		a, ok := ParseAngle(value)
		if !ok {
			return fmt.Errorf("无效角度 %q", value)
		}
		spec.Angle = a
	case "color", "fg":
		c, err := ParseColor(value)
		if err != nil {
			return err
		}
		spec.Color = c
	case "background", "bg":
		c, err := ParseColor(value)
		if err != nil {
			return err
		}
		spec.Background = c
	case "width":
		return setPixels(&spec.Width, key, value)
	case "height":
		return setPixels(&spec.Height, key, value)
	case "padding":
		if err := setPixels(&spec.PaddingX, key, value); err != nil {
			return err
		}
		spec.PaddingY = spec.PaddingX
	case "padding-x", "hpadding":
		return setPixels(&spec.PaddingX, key, value)
	case "padding-y", "vpadding":
		return setPixels(&spec.PaddingY, key, value)
	case "align":
		b, err := parseSwitch(value, "center", "middle")
		if err != nil {
			return err
		}
		spec.Align = b
	case "valign":
		b, err := parseSwitch(value, "middle", "center")
		if err != nil {
			return err
		}
		spec.VAlign = b
	case "format":
		spec.Format = strings.ToLower(value)
	case "out", "output":
		spec.Output = value
	default:
		return fmt.Errorf("未知属性 %q", key)
	}
	return nil
}

func setPixels(dst *int, key, value string) error {
	l, ok := ParseLength(value)
	if !ok || l.Value < 0 || l.ToPX() > MaxDimension {
		return fmt.Errorf("无效的 %s: %q", key, value)
	}
	*dst = l.Pixels()
	return nil
}

// parseSwitch 接受布尔值，以及表示“开启”的关键字（例如 center）。
func parseSwitch(value string, on ...string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, kw := range on {
		if v == kw {
			return true, nil
		}
	}
	switch v {
	case "left", "top", "none", "off", "no":
		return false, nil
	case "on", "yes":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("无效的开关值 %q", value)
	}
	return b, nil
}

// ParseColor 解析 #rgb / #rrggbb（可省略 #）。
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	case 6:
	case 8:
		v = v[:6] // alpha 通道忽略，画布不透明
	default:
		return Color{}, fmt.Errorf("无效颜色 %q", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("无效颜色 %q: %w", value, err)
	}
	return Color{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

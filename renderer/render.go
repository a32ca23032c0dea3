package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ByLCY/textstamp/layout"
)

// AllocateColor 把 layout.Color 转为不透明的 RGBA，通道必须在 [0,255] 内。
func AllocateColor(c layout.Color) (color.RGBA, error) {
	if !c.Valid() {
		return color.RGBA{}, fmt.Errorf("颜色超出 0-255 范围: (%d,%d,%d)", c.R, c.G, c.B)
	}
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 0xff}, nil
}

// Rasterize 分配画布、填充背景并绘制排版好的文本。
func Rasterize(b Backend, img *layout.Image) (*image.RGBA, error) {
	if b == nil {
		return nil, fmt.Errorf("未配置字体后端")
	}
	if img == nil {
		return nil, fmt.Errorf("排版结果为空")
	}
	bg, err := AllocateColor(img.Spec.Background)
	if err != nil {
		return nil, err
	}
	fg, err := AllocateColor(img.Spec.Color)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if img.Content == "" {
		return dst, nil
	}
	spec := img.Spec
	if err := b.DrawText(dst, img.X, img.Y, fg, spec.Size, spec.Angle, spec.Font, img.Content); err != nil {
		return nil, layout.NewFontError(spec.Font, "绘制", err)
	}
	return dst, nil
}

// Render 把排版结果栅格化并编码为指定格式。
func Render(b Backend, img *layout.Image, f Format) ([]byte, error) {
	f, err := ParseFormat(string(f))
	if err != nil {
		return nil, err
	}
	rgba, err := Rasterize(b, img)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, rgba, f); err != nil {
		return nil, fmt.Errorf("编码 %s 失败: %w", f, err)
	}
	return buf.Bytes(), nil
}

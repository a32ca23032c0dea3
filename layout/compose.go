package layout

import "fmt"

// DefaultImageSpec 返回未指定参数时使用的默认值：黄底红字、12pt、无内边距。
func DefaultImageSpec() ImageSpec {
	return ImageSpec{
		Text:       "textstamp - Text Image Converter",
		Font:       FontResource{Name: "Body", Src: "builtin:goregular"},
		Size:       12,
		Color:      Color{R: 0xff, G: 0x00, B: 0x00},
		Background: Color{R: 0xff, G: 0xff, B: 0x00},
		Format:     "png",
	}
}

// Validate 检查字号、角度、尺寸、内边距与颜色是否合法。
func (s ImageSpec) Validate() error {
	if !finite(s.Size) || s.Size <= 0 {
		return fmt.Errorf("字号必须为正数，当前为 %g", s.Size)
	}
	if !finite(s.Angle) {
		return fmt.Errorf("无效角度 %g", s.Angle)
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("图片尺寸不能为负数: %dx%d", s.Width, s.Height)
	}
	if s.Width > MaxDimension || s.Height > MaxDimension {
		return fmt.Errorf("图片尺寸超过上限 %d: %dx%d", MaxDimension, s.Width, s.Height)
	}
	if s.PaddingX < 0 || s.PaddingY < 0 {
		return fmt.Errorf("内边距不能为负数: %d/%d", s.PaddingX, s.PaddingY)
	}
	if s.PaddingX > MaxDimension || s.PaddingY > MaxDimension {
		return fmt.Errorf("内边距超过上限 %d: %d/%d", MaxDimension, s.PaddingX, s.PaddingY)
	}
	if !s.Color.Valid() {
		return fmt.Errorf("文字颜色超出 0-255 范围: %+v", s.Color)
	}
	if !s.Background.Valid() {
		return fmt.Errorf("背景颜色超出 0-255 范围: %+v", s.Background)
	}
	return nil
}

// WrapWidth 返回用于折行的内容宽度；未固定图片宽度时返回 0（不折行）。
func (s ImageSpec) WrapWidth() int {
	if s.Width <= 0 {
		return 0
	}
	w := s.Width - 2*s.PaddingX
	if w < 1 {
		w = 1
	}
	return w
}

// Compose 完成一次排版：折行、整体度量、推导画布尺寸与绘制起点。
func Compose(spec ImageSpec, m Measurer) (*Image, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	content, err := Wrap(spec.Text, spec.WrapWidth(), WidthOf(m, spec.Size, spec.Angle, spec.Font))
	if err != nil {
		return nil, err
	}
	metrics, err := Measure(m, content, spec.Size, spec.Angle, spec.Font)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Spec:    spec,
		Content: content,
		Lines:   SplitLines(content),
		Metrics: metrics,
		Width:   spec.Width,
		Height:  spec.Height,
	}
	if img.Width <= 0 {
		img.Width = metrics.Width + 2*spec.PaddingX
	}
	if img.Height <= 0 {
		img.Height = metrics.Height + 2*spec.PaddingY
	}
	// 画布至少 1x1，避免空文本得到零尺寸图片
	if img.Width < 1 {
		img.Width = 1
	}
	if img.Height < 1 {
		img.Height = 1
	}

	if spec.Align {
		img.X = (img.Width - metrics.Width) / 2
	} else {
		img.X = metrics.OriginX + spec.PaddingX
	}
	if spec.VAlign {
		img.Y = (img.Height + metrics.Height/2) / 2
	} else {
		img.Y = metrics.OriginY + spec.PaddingY
	}
	return img, nil
}

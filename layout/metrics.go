package layout

// Metrics 将包围盒换算为宽高与绘制原点。
// 各分支对应字体引擎对负左侧支承（left bearing）与基线以下部分的整数取整习惯，
// 需逐条保留，不能化简为 max-min 形式。
func (b BBox) Metrics() Metrics {
	var m Metrics

	m.Width = abs(b[2] - b[0])
	if b[0] < -1 {
		m.Width = abs(b[2]) + abs(b[0]) - 1
	}

	m.Height = abs(b[7]) - abs(b[1])
	if b[3] > 0 {
		m.Height = abs(b[7]-b[1]) - 1
	}

	if b[0] >= -1 {
		m.OriginX = -abs(b[0] + 1)
	} else {
		m.OriginX = abs(b[0] + 2)
	}

	m.OriginY = abs(b[5] + 1)
	return m
}

// Measure 对 text 做一次度量探测。探测失败统一包装为 *FontError。
func Measure(m Measurer, text string, size, angle float64, font FontResource) (Metrics, error) {
	if m == nil {
		return Metrics{}, &FontError{Font: font, Op: "度量", Err: errNoMeasurer}
	}
	bbox, err := m.MeasureBBox(text, size, angle, font)
	if err != nil {
		return Metrics{}, NewFontError(font, "度量", err)
	}
	return bbox.Metrics(), nil
}

// WidthOf binds size, angle and font so that Wrap only asks for widths.
func WidthOf(m Measurer, size, angle float64, font FontResource) WidthFunc {
	return func(text string) (int, error) {
		metrics, err := Measure(m, text, size, angle, font)
		if err != nil {
			return 0, err
		}
		return metrics.Width, nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package layout

import (
	"strings"
	"unicode/utf8"
)

// stubMeasurer 是一个等宽的度量后端：每个字符 10px，行高 14px，
// 上升部 10px、下降部 2px。仅用于测试，避免依赖真实字体。
type stubMeasurer struct {
	calls int
}

const (
	stubCharWidth  = 10
	stubLineHeight = 14
)

func (s *stubMeasurer) MeasureBBox(text string, size, angle float64, font FontResource) (BBox, error) {
	s.calls++
	lines := strings.Split(text, "\n")
	widest := 0
	for _, ln := range lines {
		if n := utf8.RuneCountInString(ln); n > widest {
			widest = n
		}
	}
	w := widest * stubCharWidth
	bottom := 2 + (len(lines)-1)*stubLineHeight
	return BBox{0, bottom, w, bottom, w, -10, 0, -10}, nil
}

// charWidths 直接返回按字符计的宽度，供 Wrap 的单元测试使用。
func charWidths(text string) (int, error) {
	return utf8.RuneCountInString(text) * stubCharWidth, nil
}

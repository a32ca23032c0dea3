package layout

import (
	"errors"
	"testing"
)

func TestBBoxMetrics(t *testing.T) {
	tests := []struct {
		name string
		bbox BBox
		want Metrics
	}{
		{
			name: "descender below baseline",
			bbox: BBox{0, 2, 50, 2, 50, -10, 0, -10},
			want: Metrics{Width: 50, Height: 11, OriginX: -1, OriginY: 9},
		},
		{
			name: "negative left bearing",
			bbox: BBox{-3, 0, 40, 0, 40, -12, -3, -12},
			want: Metrics{Width: 42, Height: 12, OriginX: 1, OriginY: 11},
		},
		{
			name: "left edge at -1",
			bbox: BBox{-1, -1, 30, -1, 30, -9, -1, -9},
			want: Metrics{Width: 31, Height: 8, OriginX: 0, OriginY: 8},
		},
		{
			name: "empty box",
			bbox: BBox{},
			want: Metrics{Width: 0, Height: 0, OriginX: -1, OriginY: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bbox.Metrics(); got != tt.want {
				t.Fatalf("Metrics(%v) = %+v, want %+v", tt.bbox, got, tt.want)
			}
		})
	}
}

func TestMeasureWrapsFontError(t *testing.T) {
	font := FontResource{Name: "Body", Src: "missing.ttf"}
	failing := MeasurerFunc(func(string, float64, float64, FontResource) (BBox, error) {
		return BBox{}, errors.New("无法打开")
	})
	_, err := Measure(failing, "x", 12, 0, font)
	var fe *FontError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FontError, got %T %v", err, err)
	}
	if fe.Font != font {
		t.Fatalf("FontError should carry the font, got %+v", fe.Font)
	}

	if _, err := Measure(nil, "x", 12, 0, font); !errors.As(err, &fe) {
		t.Fatalf("nil measurer should yield *FontError, got %v", err)
	}
}

func TestWidthOf(t *testing.T) {
	width := WidthOf(&stubMeasurer{}, 12, 0, FontResource{})
	w, err := width("hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 50 {
		t.Fatalf("width = %d, want 50", w)
	}
}

func TestCachedMeasurer(t *testing.T) {
	inner := &stubMeasurer{}
	cached := NewCachedMeasurer(inner, 0)
	font := FontResource{Src: "builtin:goregular"}

	for i := 0; i < 3; i++ {
		if _, err := cached.MeasureBBox("abc", 12, 0, font); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 underlying measurement, got %d", inner.calls)
	}
	if _, err := cached.MeasureBBox("abc", 14, 0, font); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 || cached.Len() != 2 {
		t.Fatalf("different size must miss: calls=%d len=%d", inner.calls, cached.Len())
	}

	bounded := NewCachedMeasurer(inner, 2)
	for _, s := range []string{"a", "b", "c"} {
		if _, err := bounded.MeasureBBox(s, 12, 0, font); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if bounded.Len() != 1 {
		t.Fatalf("bounded cache should reset when full, len=%d", bounded.Len())
	}
}

package layout

import (
	"math"
	"strconv"
	"strings"
)

// This file defines unit-safe lengths used by the job DSL and the CLI flags.
// Raster output works in pixels at a fixed 96 DPI; font sizes are points.

// Unit represents the original unit of a length value.
type Unit int

const (
	UnitNone Unit = iota // bare numbers; pixels for lengths, points for font sizes
	UnitPX
	UnitPT
	UnitMM
	UnitIN
)

// DPI is the raster resolution used to convert between physical units and pixels.
const DPI = 96.0

// MaxDimension 是单个像素长度（宽、高、内边距）允许的上限。
const MaxDimension = 1 << 15

// Conversion constants.
const (
	PtToPx = DPI / 72.0
	PxToPt = 1.0 / PtToPx
	MmToPx = DPI / 25.4
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitIN:
		return "in"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToPX converts to pixels. Unit-less values are already pixels.
func (l Length) ToPX() float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * PtToPx
	case UnitMM:
		return l.Value * MmToPx
	case UnitIN:
		return l.Value * DPI
	default:
		return l.Value
	}
}

// ToPT converts to points. Unit-less values are taken as points, which is how
// font sizes are written without a suffix.
func (l Length) ToPT() float64 {
	if l.Unit == UnitNone || l.Unit == UnitPT {
		return l.Value
	}
	return l.ToPX() * PxToPt
}

// Pixels rounds the length to whole pixels.
func (l Length) Pixels() int { return int(math.Round(l.ToPX())) }

// ParseLength parses "12", "12pt", "4.5mm", "1in" or "16px". ok is false for
// malformed input.
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}, {"in", UnitIN}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !finite(f) {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// ParseAngle parses "30", "30deg" or "-15.5deg" into degrees.
func ParseAngle(value string) (float64, bool) {
	v := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), "deg")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

// finite 拒绝 NaN 与 ±Inf（strconv 会接受 "inf"、"nan" 等写法）。
func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

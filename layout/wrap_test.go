package layout

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapUnconstrainedReturnsInput(t *testing.T) {
	text := strings.Repeat("long words everywhere ", 40)
	for _, width := range []int{0, -5} {
		got, err := Wrap(text, width, charWidths)
		if err != nil {
			t.Fatalf("Wrap(width=%d) error: %v", width, err)
		}
		if got != text {
			t.Fatalf("width=%d 时应原样返回，实际 %q", width, got)
		}
	}
}

func TestWrapNoOpBelowWidth(t *testing.T) {
	text := "a  b\tc" // 空白不会被规整
	got, err := Wrap(text, 60, charWidths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != text {
		t.Fatalf("宽度足够时应原样返回: got=%q", got)
	}
}

func TestWrapEmptyInput(t *testing.T) {
	for _, width := range []int{0, 1, 100} {
		got, err := Wrap("", width, charWidths)
		if err != nil || got != "" {
			t.Fatalf("Wrap(\"\", %d) = %q, %v", width, got, err)
		}
	}
}

func TestWrapScenarios(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{
			name:  "long word after two short words",
			text:  "Hello World Supercalifragilisticexpialidocious",
			width: 60 + 60, // "Hello " + "World "
			want:  "Hello World \nSupercalifra\ngilisticexpi\nalidocious",
		},
		{
			name:  "six chars into width 25",
			text:  "abcdef",
			width: 25,
			want:  "ab\ncd\nef",
		},
		{
			name:  "greedy packing",
			text:  "aa bb cc dd",
			width: 60,
			want:  "aa bb \ncc dd",
		},
		{
			name:  "collapses whitespace runs",
			text:  "aaaa   bbbb\n\ncccc",
			width: 50,
			want:  "aaaa \nbbbb \ncccc",
		},
		{
			name:  "widest fitting prefix starts a new line",
			text:  "a bcdefgh",
			width: 40,
			want:  "a \nbcde\nfgh",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Wrap(tt.text, tt.width, charWidths)
			if err != nil {
				t.Fatalf("Wrap error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Wrap(%q, %d)\n got=%q\nwant=%q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

// 折行只插入换行符，不丢词、不重复、不改变顺序。
func TestWrapPreservesTokens(t *testing.T) {
	inputs := []string{
		"the quick brown fox jumps over the lazy dog",
		"Hello World Supercalifragilisticexpialidocious",
		"  leading and   trailing  ",
		"x yyyyyyyyyyyyyyyyyyyy z",
	}
	for _, in := range inputs {
		for _, width := range []int{5, 25, 45, 80} {
			got, err := Wrap(in, width, charWidths)
			if err != nil {
				t.Fatalf("Wrap error: %v", err)
			}
			want := strings.Join(strings.Fields(in), " ")
			if total, _ := charWidths(in); total <= width {
				want = in
			}
			if joined := strings.ReplaceAll(got, "\n", ""); joined != want {
				t.Fatalf("width=%d: 去掉换行后 %q != %q", width, joined, want)
			}
		}
	}
}

// 每个词扣除 1px 抗锯齿补偿后，行宽不超过限制。
func TestWrapWidthBound(t *testing.T) {
	text := "lorem ipsum dolor sit amet consectetur adipiscing elit"
	for _, width := range []int{35, 50, 75, 120} {
		got, err := Wrap(text, width, charWidths)
		if err != nil {
			t.Fatalf("Wrap error: %v", err)
		}
		for i, line := range SplitLines(got) {
			w, _ := charWidths(line)
			if w-len(strings.Fields(line)) > width {
				t.Fatalf("width=%d line %d %q too wide (%d)", width, i, line, w)
			}
		}
	}
}

func TestWrapNarrowerThanOneChar(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"W", "W"},
		{"abc", "abc"},
		{"ab cd", "ab \ncd"},
	}
	for _, tt := range tests {
		got, err := Wrap(tt.text, 5, charWidths)
		if err != nil {
			t.Fatalf("Wrap(%q) error: %v", tt.text, err)
		}
		if got != tt.want {
			t.Fatalf("Wrap(%q, 5) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestWrapLongTokenTerminates(t *testing.T) {
	text := strings.Repeat("m", 400)
	got, err := Wrap(text, 95, charWidths)
	if err != nil {
		t.Fatalf("Wrap error: %v", err)
	}
	lines := SplitLines(got)
	if len(lines) != 45 {
		t.Fatalf("expected 45 lines of at most 9 chars, got %d", len(lines))
	}
	for i, ln := range lines {
		if len(ln) > 9 {
			t.Fatalf("line %d has %d chars", i, len(ln))
		}
	}
}

func TestWrapLongTokenMeasureCount(t *testing.T) {
	const n = 2000
	measured := 0
	width := func(s string) (int, error) {
		measured++
		return charWidths(s)
	}
	got, err := Wrap(strings.Repeat("m", n), 95, width)
	if err != nil {
		t.Fatalf("Wrap error: %v", err)
	}
	lines := SplitLines(got)
	if len(lines) != 223 {
		t.Fatalf("expected 223 lines, got %d", len(lines))
	}
	for i, ln := range lines[:len(lines)-1] {
		if len(ln) != 9 {
			t.Fatalf("line %d has %d chars, want 9", i, len(ln))
		}
	}
	if last := lines[len(lines)-1]; last != "mm" {
		t.Fatalf("unexpected last line %q", last)
	}
	// 每段一次整体度量加一次二分，总次数应与 token 长度线性相关
	if measured > 4*n {
		t.Fatalf("measured %d times for a %d-rune token", measured, n)
	}
}

func TestWrapSplitMatchesGreedyPrefix(t *testing.T) {
	// 宽度不均匀的字符：i 为 4px，其余 10px
	width := func(s string) (int, error) {
		w := 0
		for _, r := range s {
			if r == 'i' {
				w += 4
			} else {
				w += 10
			}
		}
		return w, nil
	}
	got, err := Wrap("iiiiimmmmmiiiiim", 30, width)
	if err != nil {
		t.Fatalf("Wrap error: %v", err)
	}
	if want := "iiiiim\nmmm\nmiiiii\nm"; got != want {
		t.Fatalf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapPropagatesMeasureError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	width := func(s string) (int, error) {
		calls++
		if calls > 1 {
			return 0, boom
		}
		return 1000, nil
	}
	if _, err := Wrap("aa bb", 10, width); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestWrapUTF8Runes(t *testing.T) {
	got, err := Wrap("日本語テキスト", 30, charWidths)
	if err != nil {
		t.Fatalf("Wrap error: %v", err)
	}
	if got != "日本語\nテキス\nト" {
		t.Fatalf("按字符（而非字节）拆分失败: %q", got)
	}
}

package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/textstamp/fonts"
	"github.com/ByLCY/textstamp/layout"
	"github.com/ByLCY/textstamp/renderer"
)

// mmToPt converts canvas millimetres to points. The renderer maps one canvas
// millimetre to one output pixel.
const mmToPt = 72 / 25.4

// Renderer measures text with golang.org/x/image/font/opentype and draws it via
// github.com/tdewolff/canvas. It is safe for concurrent use.
type Renderer struct {
	baseDir string

	// injected resources
	fontBlobs map[string][]byte // by unique name
	fontErrs  map[string]error  // 读取失败的注入字体，使用时报告

	fontMu sync.Mutex
	fonts  map[string]*fontEntry
}

var _ renderer.Backend = (*Renderer)(nil)

// fontEntry 同时持有度量用的 sfnt 字体与绘制用的 canvas 字族。
type fontEntry struct {
	sfnt   *opentype.Font
	family *canvas.FontFamily
	style  canvas.FontStyle

	mu    sync.Mutex // font.Face 内部有缓冲区，不能并发使用
	faces map[float64]font.Face
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // fonts accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:   opts.BaseDir,
		fontBlobs: map[string][]byte{},
		fontErrs:  map[string]error{},
		fonts:     map[string]*fontEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				r.fontErrs[name] = err
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// Register 把同一个共享的 Renderer 注册为 .ttf/.otf 字体的后端。
func Register(opts Options) *Renderer {
	r := NewRendererWithOptions(opts)
	renderer.Register(func() renderer.Backend { return r }, ".ttf", ".otf")
	return r
}

func init() {
	Register(Options{})
}

// MeasureBBox 实现 layout.Measurer：返回 96 DPI 下的四角包围盒。
// 每行的范围取字形包围盒与笔进（advance）的并集，因此行尾空格也计入宽度；
// 多行文本按字体行高向下累加，最后绕第一行基线起点按 angle 逆时针旋转四角。
func (r *Renderer) MeasureBBox(text string, size, angle float64, fr layout.FontResource) (layout.BBox, error) {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return layout.BBox{}, &layout.FontError{Font: fr, Op: "度量", Err: fmt.Errorf("无效字号 %g", size)}
	}
	entry, err := r.ensureFont(fr)
	if err != nil {
		return layout.BBox{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	face, err := entry.face(size)
	if err != nil {
		return layout.BBox{}, layout.NewFontError(fr, "创建字体面", err)
	}

	lineHeight := face.Metrics().Height
	var minX, minY, maxX, maxY fixed.Int26_6
	for i, line := range strings.Split(text, "\n") {
		bounds, advance := fontBoundString(face, line)
		dy := lineHeight * fixed.Int26_6(i)
		minX = min(minX, bounds.Min.X)
		maxX = max(maxX, bounds.Max.X, advance)
		if bounds.Empty() {
			maxY = max(maxY, dy)
			continue
		}
		minY = min(minY, bounds.Min.Y+dy)
		maxY = max(maxY, bounds.Max.Y+dy)
	}

	x0, x1 := float64(minX.Floor()), float64(maxX.Ceil())
	y0, y1 := float64(minY.Floor()), float64(maxY.Ceil())
	return rotateBox(x0, y0, x1, y1, angle), nil
}

// rotateBox 按 GD 的角点顺序（左下、右下、右上、左上）输出旋转后的整数坐标。
// y 轴向下，正角度在屏幕上表现为逆时针。
func rotateBox(x0, y0, x1, y1, angle float64) layout.BBox {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	corners := [4][2]float64{{x0, y1}, {x1, y1}, {x1, y0}, {x0, y0}}
	var b layout.BBox
	for i, c := range corners {
		x := c[0]*cos + c[1]*sin
		y := -c[0]*sin + c[1]*cos
		b[2*i] = int(math.Round(x))
		b[2*i+1] = int(math.Round(y))
	}
	return b
}

func fontBoundString(face font.Face, s string) (fixed.Rectangle26_6, fixed.Int26_6) {
	if s == "" {
		return fixed.Rectangle26_6{}, 0
	}
	return font.BoundString(face, s)
}

// DrawText 实现 renderer.Backend：在透明画布上绘制文本，栅格化后叠加到 dst。
// (x, y) 为第一行基线起点（dst 坐标），旋转围绕该点进行。
func (r *Renderer) DrawText(dst draw.Image, x, y int, col color.Color, size, angle float64, fr layout.FontResource, text string) error {
	if size <= 0 {
		return &layout.FontError{Font: fr, Op: "绘制", Err: fmt.Errorf("无效字号 %g", size)}
	}
	entry, err := r.ensureFont(fr)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	face, err := entry.face(size)
	var lineHeight float64
	if err == nil {
		lineHeight = float64(face.Metrics().Height) / 64
	}
	entry.mu.Unlock()
	if err != nil {
		return layout.NewFontError(fr, "创建字体面", err)
	}

	bounds := dst.Bounds()
	if bounds.Empty() {
		return nil
	}
	c := canvas.New(float64(bounds.Dx()), float64(bounds.Dy()))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 与栅格坐标一致：左上角为原点，y 向下

	// 字号 pt → 像素 em，再把像素当作毫米换算回 canvas 使用的 pt
	canvasFace := entry.family.Face(size*layout.PtToPx*mmToPt, col, entry.style, canvas.FontNormal)

	ox := float64(x - bounds.Min.X)
	oy := float64(y - bounds.Min.Y)
	if angle != 0 {
		ctx.RotateAbout(-angle, ox, oy)
	}
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ctx.DrawText(ox, oy+float64(i)*lineHeight, canvas.NewTextLine(canvasFace, line, canvas.Left))
	}

	img := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	draw.Draw(dst, bounds, img, image.Point{}, draw.Over)
	return nil
}

func (e *fontEntry) face(size float64) (font.Face, error) {
	if f, ok := e.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(e.sfnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     layout.DPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	e.faces[size] = f
	return f, nil
}

func (r *Renderer) ensureFont(fr layout.FontResource) (*fontEntry, error) {
	if fr.Src == "" {
		fr.Src = "builtin:" + fonts.Default
	}
	key := fontCacheKey(fr)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fonts[key]; ok {
		return entry, nil
	}

	data, err := r.loadFontBytes(fr)
	if err != nil {
		return nil, layout.NewFontError(fr, "加载", err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, layout.NewFontError(fr, "解析", err)
	}

	style := parseFontStyle(fr.Style)
	familyName := fr.Name
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, layout.NewFontError(fr, "加载", err)
	}

	entry := &fontEntry{sfnt: parsed, family: family, style: style, faces: map[float64]font.Face{}}
	r.fonts[key] = entry
	return entry, nil
}

func (r *Renderer) loadFontBytes(fr layout.FontResource) ([]byte, error) {
	src := fr.Src
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		if err, ok := r.fontErrs[name]; ok {
			return nil, fmt.Errorf("读取注入字体 %s 失败: %w", name, err)
		}
		return fonts.Load(name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	// Path based
	path := src
	if !filepath.IsAbs(path) {
		if r.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin: 或绝对路径）", src)
		}
		path = filepath.Join(r.baseDir, path)
	}
	if r.baseDir != "" && !within(r.baseDir, path) {
		return nil, fmt.Errorf("字体路径超出资源目录 %s：%s", r.baseDir, src)
	}
	return os.ReadFile(path)
}

// within 判断 path 清理后是否位于 dir 之内（不解析符号链接）。
func within(dir, path string) bool {
	base, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(fr layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", fr.Name, fr.Src, fr.Style)
}

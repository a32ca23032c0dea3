package renderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/ByLCY/textstamp/layout"
)

// fakeBackend 按每个字符 10px 度量，并在基线起点（x 截到 0）画一个前景色像素。
type fakeBackend struct {
	drawErr error
	calls   int
}

func (f *fakeBackend) MeasureBBox(text string, size, angle float64, font layout.FontResource) (layout.BBox, error) {
	w := 10 * len([]rune(text))
	return layout.BBox{0, 4, w, 4, w, -10, 0, -10}, nil
}

func (f *fakeBackend) DrawText(dst draw.Image, x, y int, col color.Color, size, angle float64, font layout.FontResource, text string) error {
	f.calls++
	if f.drawErr != nil {
		return f.drawErr
	}
	dst.Set(max(x, 0), y, col)
	return nil
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":      PNG,
		"PNG":   PNG,
		".jpg":  JPEG,
		"jpeg":  JPEG,
		"gif":   GIF,
		"bmp":   BMP,
		"tif":   TIFF,
		" tiff": TIFF,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}

	_, err := ParseFormat("webp")
	var ue *UnsupportedFormatError
	if !errors.As(err, &ue) || ue.Format != "webp" {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
}

func TestFormatContentTypeAndExt(t *testing.T) {
	if JPEG.ContentType() != "image/jpeg" || JPEG.Ext() != ".jpg" {
		t.Fatalf("jpeg: %s %s", JPEG.ContentType(), JPEG.Ext())
	}
	if PNG.ContentType() != "image/png" || PNG.Ext() != ".png" {
		t.Fatalf("png: %s %s", PNG.ContentType(), PNG.Ext())
	}
	if TIFF.Ext() != ".tiff" {
		t.Fatalf("tiff ext: %s", TIFF.Ext())
	}
}

func TestAllocateColor(t *testing.T) {
	c, err := AllocateColor(layout.Color{R: 1, G: 2, B: 3})
	if err != nil {
		t.Fatal(err)
	}
	if c != (color.RGBA{R: 1, G: 2, B: 3, A: 0xff}) {
		t.Fatalf("unexpected color %v", c)
	}
	if _, err := AllocateColor(layout.Color{R: 256}); err == nil {
		t.Fatalf("expected error for out of range channel")
	}
}

func TestOpenUnknownExtension(t *testing.T) {
	_, err := Open("/fonts/legacy.pcf")
	var fe *layout.FontError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FontError, got %v", err)
	}
}

func TestRegisterAndOpen(t *testing.T) {
	fb := &fakeBackend{}
	Register(func() Backend { return fb }, "FAKE")
	b, err := Open("/fonts/x.fake")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b != Backend(fb) {
		t.Fatalf("unexpected backend %T", b)
	}
	found := false
	for _, ext := range Extensions() {
		if ext == ".fake" {
			found = true
		}
	}
	if !found {
		t.Fatalf(".fake not listed in %v", Extensions())
	}
}

func TestFontExt(t *testing.T) {
	cases := map[string]string{
		"builtin:goregular": ".ttf",
		"embed:Inter.ttf":   ".ttf",
		"a/b/c.OTF":         ".otf",
		"noext":             "",
	}
	for in, want := range cases {
		if got := FontExt(in); got != want {
			t.Fatalf("FontExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func composeFake(t *testing.T, fb *fakeBackend, text string) *layout.Image {
	t.Helper()
	spec := layout.DefaultImageSpec()
	spec.Text = text
	img, err := layout.Compose(spec, fb)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return img
}

func TestRasterize(t *testing.T) {
	fb := &fakeBackend{}
	img := composeFake(t, fb, "abc")
	rgba, err := Rasterize(fb, img)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if rgba.Bounds() != image.Rect(0, 0, img.Width, img.Height) {
		t.Fatalf("unexpected bounds %v", rgba.Bounds())
	}
	if got := rgba.RGBAAt(0, 0); got != (color.RGBA{R: 0xff, G: 0xff, A: 0xff}) {
		t.Fatalf("background not filled: %v", got)
	}
	x := max(img.X, 0)
	if got := rgba.RGBAAt(x, img.Y); got != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Fatalf("text pixel not drawn at (%d,%d): %v", x, img.Y, got)
	}
}

func TestRasterizeSkipsEmptyContent(t *testing.T) {
	fb := &fakeBackend{}
	img := composeFake(t, fb, "")
	if _, err := Rasterize(fb, img); err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if fb.calls != 0 {
		t.Fatalf("DrawText called %d times for empty content", fb.calls)
	}
}

func TestRasterizeWrapsDrawError(t *testing.T) {
	fb := &fakeBackend{}
	img := composeFake(t, fb, "abc")
	fb.drawErr = errors.New("boom")
	_, err := Rasterize(fb, img)
	var fe *layout.FontError
	if !errors.As(err, &fe) || fe.Op != "绘制" {
		t.Fatalf("expected draw FontError, got %v", err)
	}
}

func TestRasterizeRejectsBadColor(t *testing.T) {
	fb := &fakeBackend{}
	img := composeFake(t, fb, "abc")
	img.Spec.Background = layout.Color{R: -1}
	if _, err := Rasterize(fb, img); err == nil {
		t.Fatalf("expected color error")
	}
}

func TestRenderEncodesEveryFormat(t *testing.T) {
	fb := &fakeBackend{}
	img := composeFake(t, fb, "hello")
	decoders := map[Format]func([]byte) (image.Image, error){
		PNG:  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		JPEG: func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
		GIF:  func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) },
		BMP:  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
		TIFF: func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
	}
	for f, decode := range decoders {
		out, err := Render(fb, img, f)
		if err != nil {
			t.Fatalf("Render(%s): %v", f, err)
		}
		decoded, err := decode(out)
		if err != nil {
			t.Fatalf("decode %s: %v", f, err)
		}
		if decoded.Bounds().Dx() != img.Width || decoded.Bounds().Dy() != img.Height {
			t.Fatalf("%s: unexpected size %v", f, decoded.Bounds())
		}
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	fb := &fakeBackend{}
	img := composeFake(t, fb, "hello")
	_, err := Render(fb, img, Format("webp"))
	var ue *UnsupportedFormatError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
}

type countingBackend struct {
	fakeBackend
	measured int
}

func (c *countingBackend) MeasureBBox(text string, size, angle float64, font layout.FontResource) (layout.BBox, error) {
	c.measured++
	return c.fakeBackend.MeasureBBox(text, size, angle, font)
}

func TestWithMeasureCache(t *testing.T) {
	cb := &countingBackend{}
	b := WithMeasureCache(cb, 16)
	for i := 0; i < 3; i++ {
		if _, err := b.MeasureBBox("same", 12, 0, layout.FontResource{}); err != nil {
			t.Fatal(err)
		}
	}
	if cb.measured != 1 {
		t.Fatalf("expected one measurement, got %d", cb.measured)
	}
	if err := b.DrawText(image.NewRGBA(image.Rect(0, 0, 4, 4)), 1, 1, color.Black, 12, 0, layout.FontResource{}, "x"); err != nil {
		t.Fatal(err)
	}
	if cb.calls != 1 {
		t.Fatalf("DrawText not forwarded")
	}
	if WithMeasureCache(cb, 0) != Backend(cb) {
		t.Fatalf("limit 0 should return the backend unchanged")
	}
}

func TestDispatch(t *testing.T) {
	Register(func() Backend { return &fakeBackend{} }, ".stub")
	m := Dispatch(nil)
	b, err := m.MeasureBBox("abc", 12, 0, layout.FontResource{Src: "x.stub"})
	if err != nil {
		t.Fatal(err)
	}
	if b.Metrics().Width != 30 {
		t.Fatalf("unexpected bbox %v", b)
	}
	_, err = m.MeasureBBox("abc", 12, 0, layout.FontResource{Src: "x.pcf"})
	var fe *layout.FontError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FontError, got %v", err)
	}
}

func TestCachingOpener(t *testing.T) {
	created := 0
	Register(func() Backend { created++; return &fakeBackend{} }, ".once")
	open := CachingOpener(8)
	a, err := open("a.once")
	if err != nil {
		t.Fatal(err)
	}
	b, err := open("b.ONCE")
	if err != nil {
		t.Fatal(err)
	}
	if a != b || created != 1 {
		t.Fatalf("expected a single shared backend, created=%d", created)
	}
	if _, err := open("c.pcf"); err == nil {
		t.Fatalf("expected error for unknown extension")
	}
}

package renderer

import (
	"fmt"
	"image/color"
	"image/draw"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ByLCY/textstamp/layout"
)

// Backend 是字体后端的能力接口：度量文本包围盒，并把文本画到栅格缓冲区上。
// (x, y) 是第一行基线起点；text 中的 "\n" 表示换行。
type Backend interface {
	layout.Measurer
	DrawText(dst draw.Image, x, y int, col color.Color, size, angle float64, font layout.FontResource, text string) error
}

// Factory 为某种字体文件格式创建后端。
type Factory func() Backend

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register 以字体文件扩展名（例如 ".ttf"）注册后端工厂，后注册者覆盖先注册者。
func Register(factory Factory, exts ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, ext := range exts {
		registry[normalizeExt(ext)] = factory
	}
}

// Extensions lists the registered font extensions.
func Extensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for ext := range registry {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Open 根据字体来源的扩展名选择后端。builtin:/embed: 形式的内置字体按 .ttf 处理。
func Open(src string) (Backend, error) {
	ext := FontExt(src)
	registryMu.RLock()
	factory, ok := registry[ext]
	registryMu.RUnlock()
	if !ok {
		return nil, &layout.FontError{
			Font: layout.FontResource{Src: src},
			Op:   "选择后端",
			Err:  fmt.Errorf("不支持的字体格式 %q", ext),
		}
	}
	return factory(), nil
}

// FontExt returns the lower-cased extension used to pick a backend for src.
func FontExt(src string) string {
	if strings.HasPrefix(src, "builtin:") || strings.HasPrefix(src, "embed:") || strings.HasPrefix(src, "built-in:") {
		return ".ttf"
	}
	return normalizeExt(filepath.Ext(src))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// cachedBackend 在后端之上缓存度量结果，绘制直接透传。
type cachedBackend struct {
	Backend
	measure *layout.CachedMeasurer
}

func (c *cachedBackend) MeasureBBox(text string, size, angle float64, font layout.FontResource) (layout.BBox, error) {
	return c.measure.MeasureBBox(text, size, angle, font)
}

// WithMeasureCache wraps b so repeated measurements of the same text hit a
// CachedMeasurer. limit <= 0 returns b unchanged.
func WithMeasureCache(b Backend, limit int) Backend {
	if b == nil || limit <= 0 {
		return b
	}
	return &cachedBackend{Backend: b, measure: layout.NewCachedMeasurer(b, limit)}
}

// OpenFunc selects a backend for a font source; Open is the default.
type OpenFunc func(src string) (Backend, error)

// CachingOpener 每种扩展名只创建一次后端，并包上容量为 limit 的度量缓存。
// 返回的函数可并发调用。
func CachingOpener(limit int) OpenFunc {
	var mu sync.Mutex
	backends := map[string]Backend{}
	return func(src string) (Backend, error) {
		ext := FontExt(src)
		mu.Lock()
		defer mu.Unlock()
		if b, ok := backends[ext]; ok {
			return b, nil
		}
		b, err := Open(src)
		if err != nil {
			return nil, err
		}
		b = WithMeasureCache(b, limit)
		backends[ext] = b
		return b, nil
	}
}

// Dispatch 返回按字体来源选择后端的度量器，供一个作业中混用多种字体时使用。
// open 为 nil 时使用 Open。
func Dispatch(open OpenFunc) layout.Measurer {
	if open == nil {
		open = Open
	}
	return layout.MeasurerFunc(func(text string, size, angle float64, font layout.FontResource) (layout.BBox, error) {
		b, err := open(font.Src)
		if err != nil {
			return layout.BBox{}, err
		}
		return b.MeasureBBox(text, size, angle, font)
	})
}

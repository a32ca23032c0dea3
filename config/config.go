// Package config loads textstamp settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/textstamp/cache"
	"github.com/ByLCY/textstamp/layout"
	canvasrenderer "github.com/ByLCY/textstamp/renderer/canvas"
)

// Config 对应配置文件的顶层结构。
type Config struct {
	Render RenderConfig `toml:"render"`
	Fonts  FontsConfig  `toml:"fonts"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
}

// RenderConfig holds defaults applied before any job, flag or request value.
type RenderConfig struct {
	Font         string  `toml:"font"`
	FontName     string  `toml:"font_name"`
	Style        string  `toml:"style"`
	Size         float64 `toml:"size"`
	Color        string  `toml:"color"`
	Background   string  `toml:"background"`
	PaddingX     int     `toml:"padding_x"`
	PaddingY     int     `toml:"padding_y"`
	Align        bool    `toml:"align"`
	VAlign       bool    `toml:"valign"`
	Format       string  `toml:"format"`
	MeasureCache int     `toml:"measure_cache"` // 度量缓存条目上限，0 表示不缓存
}

// FontsConfig 控制字体路径解析与按名称注入的字体文件。
type FontsConfig struct {
	BaseDir string            `toml:"base_dir"`
	Files   map[string]string `toml:"files"` // builtin:<name> → 文件路径
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	MaxTextLen   int           `toml:"max_text_len"`
	MaxCanvas    int64         `toml:"max_canvas"` // 画布像素总数上限，0 表示不限制

	// AllowFontPaths 允许请求以文件路径引用字体；默认只接受 builtin:/embed:。
	AllowFontPaths bool `toml:"allow_font_paths"`
}

// CacheConfig selects the rendered-image cache.
type CacheConfig struct {
	Kind          string        `toml:"kind"` // none | file | redis
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	TTL           time.Duration `toml:"ttl"`
}

// Default 返回内置默认配置。
func Default() Config {
	def := layout.DefaultImageSpec()
	return Config{
		Render: RenderConfig{
			Font:         def.Font.Src,
			FontName:     def.Font.Name,
			Size:         def.Size,
			Color:        "#ff0000",
			Background:   "#ffff00",
			Format:       def.Format,
			MeasureCache: 4096,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxTextLen:   4096,
			MaxCanvas:    4096 * 4096,
		},
		Cache: CacheConfig{
			Kind:   "none",
			Prefix: "textstamp:",
			TTL:    24 * time.Hour,
		},
	}
}

// Load 读取 path 指定的 TOML 文件并覆盖默认值；path 为空时只返回默认配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(data, cfg)
}

// Parse decodes TOML data on top of base and validates the result.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return base, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return base, fmt.Errorf("配置文件包含未知键: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate 检查取值范围，并确认颜色可以解析。
func (c Config) Validate() error {
	var errs []error
	if c.Render.Size <= 0 {
		errs = append(errs, fmt.Errorf("render.size 必须为正数"))
	}
	if c.Render.PaddingX < 0 || c.Render.PaddingY < 0 {
		errs = append(errs, fmt.Errorf("render.padding 不能为负数"))
	}
	if _, err := layout.ParseColor(c.Render.Color); err != nil {
		errs = append(errs, fmt.Errorf("render.color: %w", err))
	}
	if _, err := layout.ParseColor(c.Render.Background); err != nil {
		errs = append(errs, fmt.Errorf("render.background: %w", err))
	}
	switch c.Cache.Kind {
	case "", "none":
	case "file":
		if c.Cache.Dir == "" {
			errs = append(errs, fmt.Errorf("cache.dir 未配置"))
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("cache.redis_addr 未配置"))
		}
	default:
		errs = append(errs, fmt.Errorf("未知的 cache.kind %q", c.Cache.Kind))
	}
	if c.Server.MaxTextLen < 0 {
		errs = append(errs, fmt.Errorf("server.max_text_len 不能为负数"))
	}
	if c.Server.MaxCanvas < 0 {
		errs = append(errs, fmt.Errorf("server.max_canvas 不能为负数"))
	}
	for name, path := range c.Fonts.Files {
		if err := checkFontFile(path); err != nil {
			errs = append(errs, fmt.Errorf("fonts.files.%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// checkFontFile 确认注入的字体文件存在且是普通文件。
func checkFontFile(path string) error {
	if path == "" {
		return errors.New("未指定文件路径")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s 不是普通文件", path)
	}
	return nil
}

// ImageDefaults 把 [render] 段转换为排版默认参数。
func (c Config) ImageDefaults() (layout.ImageSpec, error) {
	spec := layout.DefaultImageSpec()
	spec.Font = layout.FontResource{Name: c.Render.FontName, Src: c.Render.Font, Style: c.Render.Style}
	if spec.Font.Name == "" {
		spec.Font.Name = "Body"
	}
	spec.Size = c.Render.Size
	fg, err := layout.ParseColor(c.Render.Color)
	if err != nil {
		return spec, err
	}
	bg, err := layout.ParseColor(c.Render.Background)
	if err != nil {
		return spec, err
	}
	spec.Color, spec.Background = fg, bg
	spec.PaddingX, spec.PaddingY = c.Render.PaddingX, c.Render.PaddingY
	spec.Align, spec.VAlign = c.Render.Align, c.Render.VAlign
	if c.Render.Format != "" {
		spec.Format = strings.ToLower(c.Render.Format)
	}
	return spec, nil
}

// CacheOptions converts the [cache] section for cache.New.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Kind: c.Cache.Kind,
		Dir:  c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   c.Cache.Prefix,
		},
	}
}

// RendererOptions converts the [fonts] section for the canvas backend.
func (c Config) RendererOptions() canvasrenderer.Options {
	opts := canvasrenderer.Options{BaseDir: c.Fonts.BaseDir}
	if len(c.Fonts.Files) > 0 {
		opts.Fonts = make(map[string]canvasrenderer.Resource, len(c.Fonts.Files))
		for name, path := range c.Fonts.Files {
			opts.Fonts[name] = canvasrenderer.Resource{Path: path}
		}
	}
	return opts
}

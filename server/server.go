// Package server exposes the text-to-image pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/textstamp/cache"
	"github.com/ByLCY/textstamp/layout"
	"github.com/ByLCY/textstamp/renderer"
)

// OpenFunc selects a font backend for a font source.
type OpenFunc = renderer.OpenFunc

// Options configures a Server.
type Options struct {
	Defaults   layout.ImageSpec
	Cache      cache.Cache   // nil 表示不缓存
	TTL        time.Duration // 渲染结果缓存时长
	Logger     *log.Logger
	MaxTextLen int      // 0 表示不限制
	MaxCanvas  int64    // 画布像素总数上限，0 表示不限制
	Open       OpenFunc // 默认为 renderer.Open

	// AllowFontPaths 允许请求直接引用字体文件路径。关闭时只接受
	// builtin:/embed: 来源（[fonts.files] 注入的字体以 builtin:<name> 引用）
	// 以及默认字体。
	AllowFontPaths bool
}

// Server 处理 /render、/measure 与 /healthz。
type Server struct {
	defaults layout.ImageSpec
	cache    cache.Cache
	ttl      time.Duration
	logger   *log.Logger
	maxText  int
	maxPix   int64
	paths    bool
	open     OpenFunc
	router   chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{
		defaults: opts.Defaults,
		cache:    opts.Cache,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		maxText:  opts.MaxTextLen,
		maxPix:   opts.MaxCanvas,
		paths:    opts.AllowFontPaths,
		open:     opts.Open,
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.open == nil {
		s.open = renderer.Open
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/render", s.handleRenderQuery)
	r.Post("/render", s.handleRenderJSON)
	r.Get("/measure", s.handleMeasure)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe 启动服务，ctx 取消时优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"backends": renderer.Extensions(),
	})
}

func (s *Server) handleRenderQuery(w http.ResponseWriter, r *http.Request) {
	spec, err := s.specFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, spec)
}

func (s *Server) handleRenderJSON(w http.ResponseWriter, r *http.Request) {
	spec := s.defaults
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		s.fail(w, r, badRequest(fmt.Errorf("请求体不是有效的 JSON: %w", err)))
		return
	}
	s.render(w, r, spec)
}

func (s *Server) handleMeasure(w http.ResponseWriter, r *http.Request) {
	spec, err := s.specFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	img, _, err := s.compose(spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// render 输出图片，并以格式对应的 Content-Type 返回。
func (s *Server) render(w http.ResponseWriter, r *http.Request, spec layout.ImageSpec) {
	ctx := r.Context()
	format, err := renderer.ParseFormat(spec.Format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	spec.Format = string(format)
	spec.Output = ""

	key := cache.Key("render", spec)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cache get failed", "err", err)
	} else if ok {
		writeImage(w, format, data, "hit")
		return
	}

	img, backend, err := s.compose(spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := renderer.Render(backend, img, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("cache set failed", "err", err)
	}
	writeImage(w, format, data, "miss")
}

func (s *Server) compose(spec layout.ImageSpec) (*layout.Image, renderer.Backend, error) {
	if s.maxText > 0 && len(spec.Text) > s.maxText {
		return nil, nil, badRequest(fmt.Errorf("文本过长: %d > %d", len(spec.Text), s.maxText))
	}
	if err := spec.Validate(); err != nil {
		return nil, nil, badRequest(err)
	}
	if !s.fontAllowed(spec.Font.Src) {
		return nil, nil, badRequest(fmt.Errorf("不允许的字体来源 %q（请使用 builtin: 或 embed:）", spec.Font.Src))
	}
	backend, err := s.open(spec.Font.Src)
	if err != nil {
		return nil, nil, err
	}
	img, err := layout.Compose(spec, backend)
	if err != nil {
		return nil, nil, err
	}
	if s.maxPix > 0 && img.Pixels() > s.maxPix {
		return nil, nil, badRequest(fmt.Errorf("画布过大: %dx%d 超过 %d 像素", img.Width, img.Height, s.maxPix))
	}
	return img, backend, nil
}

// fontAllowed 判断请求中的字体来源是否可以交给后端加载。
func (s *Server) fontAllowed(src string) bool {
	switch {
	case s.paths, src == "", src == s.defaults.Font.Src:
		return true
	}
	for _, prefix := range []string{"builtin:", "built-in:", "embed:"} {
		if strings.HasPrefix(src, prefix) {
			return true
		}
	}
	return false
}

// specFromQuery 以默认值为基础，按查询参数逐个设置属性；键名与 DSL 相同。
func (s *Server) specFromQuery(r *http.Request) (layout.ImageSpec, error) {
	spec := s.defaults
	q := r.URL.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	// 短键先应用：padding 先于 padding-x/padding-y，后者才能覆盖它
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if err := layout.SetAttribute(&spec, strings.ToLower(k), q.Get(k)); err != nil {
			return spec, badRequest(err)
		}
	}
	return spec, nil
}

func writeImage(w http.ResponseWriter, f renderer.Format, data []byte, cacheStatus string) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

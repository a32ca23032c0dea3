package layout

import (
	"errors"
	"fmt"
)

// FontError 表示字体资源缺失、无效或度量失败。布局核心不做恢复，直接向上传递。
type FontError struct {
	Font FontResource
	Op   string
	Err  error
}

func (e *FontError) Error() string {
	name := e.Font.Src
	if name == "" {
		name = e.Font.Name
	}
	if e.Err == nil {
		return fmt.Sprintf("字体 %s %s 失败", name, e.Op)
	}
	return fmt.Sprintf("字体 %s %s 失败: %v", name, e.Op, e.Err)
}

func (e *FontError) Unwrap() error { return e.Err }

// NewFontError wraps err unless it already is a *FontError.
func NewFontError(font FontResource, op string, err error) error {
	var fe *FontError
	if errors.As(err, &fe) {
		return err
	}
	return &FontError{Font: font, Op: op, Err: err}
}

var errNoMeasurer = errors.New("未配置度量后端")

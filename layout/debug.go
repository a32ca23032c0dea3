package layout

import (
	"encoding/json"
	"os"
)

// MarshalDebug 把排版结果编码为缩进 JSON。
func MarshalDebug(res *Result) ([]byte, error) {
	if res == nil {
		res = &Result{}
	}
	return json.MarshalIndent(res, "", "  ")
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试折行与画布尺寸。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := MarshalDebug(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

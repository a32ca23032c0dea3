package layout

// 该文件定义布局阶段的输入、度量与结果，供排版计算、渲染与调试 JSON 共用。

// FontResource 描述字体资源，src 可以是文件路径、embed:/builtin: 形式。
// 对布局引擎而言它只是一个不透明的句柄，真正的解析由后端完成。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style,omitempty"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Valid reports whether every channel lies in [0,255].
func (c Color) Valid() bool {
	return inByte(c.R) && inByte(c.G) && inByte(c.B)
}

func inByte(v int) bool { return v >= 0 && v <= 255 }

// BBox 是字体引擎返回的四角包围盒（8 个整数）。
// 下标 0,1 为左下角，2,3 为右下角，4,5 为右上角，6,7 为左上角；
// y 轴向下，原点为第一行基线起点。旋转后的文本四角不再构成轴对齐矩形。
type BBox [8]int

// Metrics 是由 BBox 归一化得到的宽高与绘制原点。
// OriginX/OriginY 可直接作为绘制坐标的偏移量使用。
type Metrics struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	OriginX int `json:"originX"`
	OriginY int `json:"originY"`
}

// ImageSpec 描述一次文字转图片的全部参数。
// Width/Height 为 0 时由文本度量加上内边距推导。
type ImageSpec struct {
	Name       string       `json:"name,omitempty"`
	Text       string       `json:"text"`
	Font       FontResource `json:"font"`
	Size       float64      `json:"size"`  // 字号（pt）
	Angle      float64      `json:"angle"` // 旋转角度（度），只影响度量与绘制
	Color      Color        `json:"color"`
	Background Color        `json:"background"`
	Width      int          `json:"width,omitempty"`
	Height     int          `json:"height,omitempty"`
	PaddingX   int          `json:"paddingX,omitempty"`
	PaddingY   int          `json:"paddingY,omitempty"`
	Align      bool         `json:"align,omitempty"`  // 水平居中
	VAlign     bool         `json:"valign,omitempty"` // 垂直居中
	Format     string       `json:"format,omitempty"`
	Output     string       `json:"output,omitempty"`
}

// Image 是一次排版的结果：折行后的文本、画布尺寸与绘制起点。
type Image struct {
	Spec    ImageSpec `json:"spec"`
	Content string    `json:"content"` // 带 \n 的折行文本，原样交给 DrawText
	Lines   []string  `json:"lines"`
	Metrics Metrics   `json:"metrics"` // Content 整体的度量
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	X       int       `json:"x"`
	Y       int       `json:"y"`
}

// Pixels 返回画布的像素总数，按 int64 计算避免溢出。
func (img *Image) Pixels() int64 { return int64(img.Width) * int64(img.Height) }

// Result 保存一个作业文件排版后的全部图片。
type Result struct {
	Images []*Image `json:"images"`
}

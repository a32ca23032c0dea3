package layout

// BuildOptions 配置布局阶段所需的依赖，例如度量后端与默认参数。
type BuildOptions struct {
	Measurer Measurer
	// Defaults 在 DSL 的 defaults 段与 image 段之前生效；零值时使用 DefaultImageSpec。
	Defaults *ImageSpec
}

// Measurer 负责返回文本在给定字号、角度与字体下的四角包围盒。
// 实现必须是确定性的，且不修改调用方状态。
type Measurer interface {
	MeasureBBox(text string, size, angle float64, font FontResource) (BBox, error)
}

// MeasurerFunc adapts a plain function to Measurer.
type MeasurerFunc func(text string, size, angle float64, font FontResource) (BBox, error)

func (f MeasurerFunc) MeasureBBox(text string, size, angle float64, font FontResource) (BBox, error) {
	return f(text, size, angle, font)
}

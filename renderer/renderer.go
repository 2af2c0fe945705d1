// Package renderer defines the PDF backends. A backend only draws what a composed
// layout.Result lists; it never decides positions.
package renderer

import "github.com/ByLCY/folio/layout"

// Renderer 将布局结果输出为 PDF 字节。
// 同一 Result 多次渲染必须得到逐字节相同的输出。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Backend names accepted in the configuration.
const (
	BackendFpdf   = "fpdf"
	BackendCanvas = "canvas"
)

// Package pipeline runs one generation: build the block list, paginate, compose every
// page, render and optionally write the result.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/folio/compose"
	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/diag"
	"github.com/ByLCY/folio/document"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/output"
	"github.com/ByLCY/folio/renderer"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
	fpdfrenderer "github.com/ByLCY/folio/renderer/fpdf"
)

// Options configures one generation call. The zero value uses config.Default().
type Options struct {
	Config *config.Config
	Logger logrus.FieldLogger
	// Backend overrides Config.Backend.
	Backend string
	// Measure replaces the backend's own measurement provider.
	Measure measure.Provider
	// Templates defaults to the file named by Config.Covers.
	Templates *compose.Templates
	// DebugPath, when set, receives the plan and composed pages as JSON.
	DebugPath string
}

// Output is everything one generation produced.
type Output struct {
	PDF      []byte
	Pages    int
	Document *document.Document
	Plan     *layout.Plan
	Result   *layout.Result
	Warnings []diag.Warning
}

// Backend returns the renderer named by name together with the provider its layout
// must be measured with.
func Backend(name string) (renderer.Renderer, measure.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", renderer.BackendFpdf:
		m := measure.NewCoreMetrics()
		return fpdfrenderer.New(m), m, nil
	case renderer.BackendCanvas:
		r := canvasrenderer.NewRenderer()
		return r, r, nil
	}
	return nil, nil, fmt.Errorf("pipeline: unknown backend %q", name)
}

// Generate turns q into a finished document held in memory.
// Validation problems come back as *document.ValidationError before any layout.
func Generate(q document.Quotation, opts Options) (*Output, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	name := opts.Backend
	if name == "" {
		name = cfg.Backend
	}
	r, p, err := Backend(name)
	if err != nil {
		return nil, err
	}
	if opts.Measure != nil {
		p = opts.Measure
	}
	templates := opts.Templates
	if templates == nil {
		if templates, err = compose.LoadTemplates(cfg.Covers.File); err != nil {
			return nil, fmt.Errorf("pipeline: cover templates: %w", err)
		}
	}

	report := diag.NewReport(log)
	sub, err := measure.ParseFont(cfg.Fonts.Fallback)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fallback font: %w", err)
	}
	p = measure.Fallback(p, sub, report)

	doc, err := document.Build(q, document.BuildOptions{
		Config:     cfg,
		Measure:    p,
		Report:     report,
		Logger:     log,
		KnownStyle: templates.Has,
	})
	if err != nil {
		return nil, err
	}
	plan, err := layout.Paginate(doc.Blocks, doc.Geometry, log)
	if err != nil {
		return nil, err
	}
	c, err := compose.New(cfg, p, nil, templates, report)
	if err != nil {
		return nil, err
	}
	res, err := c.Compose(doc, plan)
	if err != nil {
		return nil, fmt.Errorf("pipeline: 组版失败: %w", err)
	}
	if opts.DebugPath != "" {
		if err := layout.WriteDebugJSON(opts.DebugPath, plan, res); err != nil {
			return nil, fmt.Errorf("pipeline: 输出调试 JSON 失败: %w", err)
		}
	}
	pdf, err := r.Render(res)
	if err != nil {
		return nil, fmt.Errorf("pipeline: 渲染 PDF 失败: %w", err)
	}

	out := &Output{
		PDF:      pdf,
		Pages:    len(res.Pages),
		Document: doc,
		Plan:     plan,
		Result:   res,
		Warnings: report.Warnings(),
	}
	log.WithFields(logrus.Fields{
		"number":   q.Number,
		"pages":    out.Pages,
		"bytes":    len(pdf),
		"warnings": len(out.Warnings),
	}).Info("pipeline: document generated")
	return out, nil
}

// GenerateTo generates q and delivers it to dest. Nothing reaches dest unless the
// whole document was produced.
func GenerateTo(q document.Quotation, dest output.Destination, opts Options) (*Output, error) {
	out, err := Generate(q, opts)
	if err != nil {
		return nil, err
	}
	if err := dest.Write(out.PDF); err != nil {
		return out, err
	}
	return out, nil
}

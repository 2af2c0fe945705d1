package compose

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/covers"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/table"
)

// ErrUnknownCoverStyle is returned for a style id missing from the template table.
var ErrUnknownCoverStyle = errors.New("unknown cover style")

// Shape is the kind of a cover element.
type Shape int

const (
	ShapeRect Shape = iota
	ShapeRoundedRect
	ShapeCircle
	ShapeLine
	ShapeText
	ShapeWrappedText
	ShapeImage
)

var shapes = map[string]struct {
	shape Shape
	arity int
}{
	"rect":         {ShapeRect, 4},
	"rounded-rect": {ShapeRoundedRect, 4},
	"circle":       {ShapeCircle, 3},
	"line":         {ShapeLine, 4},
	"text":         {ShapeText, 2},
	"wrapped-text": {ShapeWrappedText, 2},
	"image":        {ShapeImage, 4},
}

// Element is one drawing instruction of a cover template. Pos holds the positional
// lengths: x y w h for rectangles and images, cx cy r for circles, x1 y1 x2 y2 for
// lines and x y for text. Color strings may contain placeholders.
type Element struct {
	Shape       Shape
	Pos         []layout.Length
	Src         string
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
	Radius      layout.Length
	Text        string
	Size        float64
	Bold        bool
	Italic      bool
	Color       string
	Font        string
	Align       table.Align
	Width       layout.Length
	LineHeight  float64
	If          string
	Line        int
}

// Template is one cover style.
type Template struct {
	ID         string
	Name       string
	Background string
	Elements   []Element
}

// Templates is the closed table of cover styles loaded from one template file.
type Templates struct {
	Source string
	styles []*Template
	byID   map[string]*Template
}

// DefaultTemplates parses the built-in cover file.
func DefaultTemplates() (*Templates, error) {
	return ParseTemplates(covers.DefaultName, covers.Default())
}

// LoadTemplates reads the cover file at path, or the built-in file when path is empty.
func LoadTemplates(path string) (*Templates, error) {
	name, data, err := covers.Load(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplates(name, data)
}

// ParseTemplates compiles a cover template file.
func ParseTemplates(name string, data []byte) (*Templates, error) {
	file, err := dsl.Parse(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	t := &Templates{Source: name, byID: map[string]*Template{}}
	for _, st := range file.Styles() {
		id := strings.ToLower(st.ID)
		if _, dup := t.byID[id]; dup {
			return nil, fmt.Errorf("%s: cover style %q declared twice", st.Pos, st.ID)
		}
		tpl, err := compileStyle(id, st)
		if err != nil {
			return nil, err
		}
		t.styles = append(t.styles, tpl)
		t.byID[id] = tpl
	}
	if len(t.styles) == 0 {
		return nil, fmt.Errorf("%s: no cover styles", name)
	}
	return t, nil
}

// Has reports whether id names a style; ids are case-insensitive.
func (t *Templates) Has(id string) bool {
	_, ok := t.byID[strings.ToLower(id)]
	return ok
}

// Style returns the style with the given id.
func (t *Templates) Style(id string) (*Template, error) {
	tpl, ok := t.byID[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCoverStyle, id)
	}
	return tpl, nil
}

// List returns the styles in file order.
func (t *Templates) List() []*Template {
	out := make([]*Template, len(t.styles))
	copy(out, t.styles)
	return out
}

func compileStyle(id string, st *dsl.StyleSection) (*Template, error) {
	tpl := &Template{ID: id, Name: id}
	for _, a := range st.Block.Assignments() {
		switch a.Key {
		case "name":
			tpl.Name = a.Value.Text()
		case "background":
			tpl.Background = a.Value.Text()
		default:
			return nil, fmt.Errorf("style %s: unknown property %q", id, a.Key)
		}
	}
	for _, cmd := range st.Block.Commands() {
		el, err := compileElement(cmd)
		if err != nil {
			return nil, fmt.Errorf("%s: style %s: %w", cmd.Pos, id, err)
		}
		tpl.Elements = append(tpl.Elements, el)
	}
	return tpl, nil
}

func compileElement(cmd *dsl.Command) (Element, error) {
	def, ok := shapes[cmd.Name]
	if !ok {
		return Element{}, fmt.Errorf("unknown element %q", cmd.Name)
	}
	el := Element{Shape: def.shape, Line: cmd.Pos.Line, Align: table.Left}
	args := cmd.Args
	if def.shape == ShapeImage {
		if len(args) == 0 {
			return el, fmt.Errorf("image needs a source")
		}
		el.Src = args[0].Value
		if el.Src != "logo" && el.Src != "cover" {
			return el, fmt.Errorf("image source %q is neither logo nor cover", el.Src)
		}
		args = args[1:]
	}
	for len(el.Pos) < def.arity {
		if len(args) == 0 || !args[0].IsNumber() {
			return el, fmt.Errorf("%s needs %d coordinates", cmd.Name, def.arity)
		}
		l, err := layout.ParseLength(args[0].Value)
		if err != nil {
			return el, err
		}
		el.Pos = append(el.Pos, l)
		args = args[1:]
	}

	var lh *layout.LineHeightSpec
	for len(args) > 0 {
		key := args[0].Value
		args = args[1:]
		switch key {
		case "bold":
			el.Bold = true
			continue
		case "italic":
			el.Italic = true
			continue
		}
		if len(args) == 0 {
			return el, fmt.Errorf("%s needs a value", key)
		}
		val := args[0]
		args = args[1:]
		var err error
		switch key {
		case "fill":
			el.Fill = val.Value
		case "stroke":
			el.Stroke = val.Value
		case "color":
			el.Color = val.Value
		case "font":
			el.Font = val.Value
		case "if":
			el.If = val.Value
		case "align":
			el.Align, err = table.ParseAlign(val.Value)
		case "radius":
			el.Radius, err = layout.ParseLength(val.Value)
		case "width":
			el.Width, err = layout.ParseLength(val.Value)
		case "stroke-width":
			el.StrokeWidth, err = number(val)
		case "opacity":
			el.Opacity, err = number(val)
		case "size":
			el.Size, err = number(val)
		case "line-height":
			var spec layout.LineHeightSpec
			if spec, err = layout.ParseLineHeight(val.Value); err == nil {
				lh = &spec
			}
		default:
			return el, fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return el, fmt.Errorf("%s: %w", key, err)
		}
	}

	if cmd.Block != nil {
		el.Text = cmd.Block.Text()
	}
	switch el.Shape {
	case ShapeText, ShapeWrappedText:
		if el.Size <= 0 {
			el.Size = 11
		}
	}
	if lh != nil {
		el.LineHeight = lh.FactorFor(el.Size)
	}
	if el.Shape == ShapeWrappedText && el.Width.IsZero() {
		return el, fmt.Errorf("wrapped-text needs a width")
	}
	return el, nil
}

func number(l *dsl.Lexeme) (float64, error) {
	if !l.IsNumber() {
		return 0, fmt.Errorf("%q is not a number", l.Value)
	}
	return strconv.ParseFloat(l.Value, 64)
}

package layout

// Geometry is the page geometry of one generation run, in mm. The content area lies
// between the header band under the top margin and the footer reserve above the
// bottom margin.
type Geometry struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Margin       Margin  `json:"margin"`
	HeaderBand   float64 `json:"headerBand"`
	BlockSpacing float64 `json:"blockSpacing"`
}

// ContentTop is the y coordinate where flowed content starts.
func (g Geometry) ContentTop() float64 { return g.Margin.Top + g.HeaderBand }

// ContentLeft is the x coordinate of the content column.
func (g Geometry) ContentLeft() float64 { return g.Margin.Left }

// ContentWidth is the width of the content column.
func (g Geometry) ContentWidth() float64 { return g.Width - g.Margin.Left - g.Margin.Right }

// ContentHeight is the flow height left once the footer reserve is taken.
func (g Geometry) ContentHeight(footer float64) float64 {
	return g.Height - g.Margin.Top - g.Margin.Bottom - g.HeaderBand - footer
}

// FooterTop is the y coordinate of a footer band of the given height.
func (g Geometry) FooterTop(footer float64) float64 {
	return g.Height - g.Margin.Bottom - footer
}

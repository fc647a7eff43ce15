// Package render draws graphs: DOT emission plus SVG and PNG rasterization
// via Graphviz. It consumes the graph contract only - node ids, labels, and
// role-labeled edges - and owns nothing about how the graph was produced.
package render

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"
)

// Allowed values for the enumerated style fields.
var (
	allowedFonts    = []string{"Menlo", "Monaco", "Helvetica", "JetBrains Mono"}
	allowedRankDirs = []string{"TB", "LR"}
	allowedSplines  = []string{"true", "line", "polyline", "ortho"}
)

// Style holds the Graphviz appearance settings for a rendered graph.
// The zero value is not usable; start from [DefaultStyle] or [LoadStyle].
type Style struct {
	FontName    string  `toml:"font_name"`
	FontSize    int     `toml:"font_size"`
	FontColor   string  `toml:"font_color"`
	FillColor   string  `toml:"fill_color"`
	BorderColor string  `toml:"border_color"`
	PenWidth    float64 `toml:"pen_width"`

	EdgeFontSize  int     `toml:"edge_font_size"`
	EdgeFontColor string  `toml:"edge_font_color"`
	EdgeColor     string  `toml:"edge_color"`
	EdgePenWidth  float64 `toml:"edge_pen_width"`
	EdgeArrowSize float64 `toml:"edge_arrow_size"`

	RankDir string  `toml:"rank_dir"`
	RankSep float64 `toml:"rank_sep"`
	NodeSep float64 `toml:"node_sep"`
	Splines string  `toml:"splines"`

	// WidthIn/HeightIn constrain the drawing size in inches; zero means
	// unconstrained. ForceFit scales the drawing up to the requested size
	// rather than only down.
	WidthIn  float64 `toml:"width_in"`
	HeightIn float64 `toml:"height_in"`
	ForceFit bool    `toml:"force_fit"`
}

// DefaultStyle returns the stock appearance: Menlo on pale green boxes,
// top-to-bottom ranking, compact separation.
func DefaultStyle() Style {
	return Style{
		FontName:    "Menlo",
		FontSize:    15,
		FontColor:   "#000000",
		FillColor:   "#E5FDCD",
		BorderColor: "#000000",
		PenWidth:    1.0,

		EdgeFontSize:  12,
		EdgeFontColor: "#555555",
		EdgeColor:     "#000000",
		EdgePenWidth:  1.0,
		EdgeArrowSize: 0.5,

		RankDir:  "TB",
		RankSep:  0.4,
		NodeSep:  0.25,
		Splines:  "true",
		ForceFit: true,
	}
}

// LoadStyle reads a TOML style file over the defaults, so a file only needs
// to name the settings it changes.
func LoadStyle(path string) (Style, error) {
	s := DefaultStyle()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Style{}, fmt.Errorf("load style %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Style{}, fmt.Errorf("style %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the enumerated fields. Unknown fonts fall back to the
// default rather than erroring, since font availability is host-specific.
func (s *Style) Validate() error {
	if !slices.Contains(allowedFonts, s.FontName) {
		s.FontName = "Menlo"
	}
	if !slices.Contains(allowedRankDirs, s.RankDir) {
		return fmt.Errorf("invalid rank_dir: %q (must be 'TB' or 'LR')", s.RankDir)
	}
	if !slices.Contains(allowedSplines, s.Splines) {
		return fmt.Errorf("invalid splines: %q (must be 'true', 'line', 'polyline', or 'ortho')", s.Splines)
	}
	return nil
}

// sizeAttr renders the graph-level size constraint, empty when unset.
func (s Style) sizeAttr() string {
	bang := ""
	if s.ForceFit {
		bang = "!"
	}
	switch {
	case s.WidthIn > 0 && s.HeightIn > 0:
		return fmt.Sprintf("size=\"%g,%g%s\"", s.WidthIn, s.HeightIn, bang)
	case s.WidthIn > 0:
		return fmt.Sprintf("size=\"%g%s\"", s.WidthIn, bang)
	case s.HeightIn > 0:
		return fmt.Sprintf("size=\"100,%g%s\"", s.HeightIn, bang)
	}
	return ""
}

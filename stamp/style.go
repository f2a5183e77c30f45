package stamp

import "github.com/AdamNissen/speedyf/project"

// drawSpec is the fully resolved appearance of one field: design parameters
// merged with config defaults and any rule style override. Drawing code
// reads only drawSpec, never raw params, so resolution happens in exactly
// one place.
type drawSpec struct {
	fontFamily  string
	fontStyle   string
	fontSize    float64
	align       string
	color       project.Color
	overflow    string
	minFontSize float64
	shape       string
	strokeWidth float64
	padding     float64
}

// resolveSpec folds defaults, field parameters and the rule override, in
// that order. Later layers win entry by entry.
func resolveSpec(cfg Config, params *project.Params, override *project.Style) drawSpec {
	spec := drawSpec{
		fontFamily:  cfg.FontFamily,
		fontSize:    cfg.FontSize,
		align:       "L",
		overflow:    project.OverflowTruncate,
		minFontSize: cfg.MinFontSize,
		shape:       project.ShapeCheck,
		strokeWidth: cfg.StrokeWidth,
	}
	if params != nil {
		mergeParams(&spec, params)
	}
	if override != nil {
		mergeOverride(&spec, override)
	}
	if spec.minFontSize > spec.fontSize {
		spec.minFontSize = spec.fontSize
	}
	return spec
}

func mergeParams(dst *drawSpec, src *project.Params) {
	if src.FontFamily != "" {
		dst.fontFamily = src.FontFamily
	}
	if src.FontStyle != "" {
		dst.fontStyle = src.FontStyle
	}
	if src.FontSize > 0 {
		dst.fontSize = src.FontSize
	}
	if src.Align != "" {
		dst.align = src.Align
	}
	if src.Color != nil {
		dst.color = *src.Color
	}
	if src.Overflow != "" {
		dst.overflow = src.Overflow
	}
	if src.MinFontSize > 0 {
		dst.minFontSize = src.MinFontSize
	}
	if src.Shape != "" {
		dst.shape = src.Shape
	}
	if src.StrokeWidth > 0 {
		dst.strokeWidth = src.StrokeWidth
	}
	if src.Padding > 0 {
		dst.padding = src.Padding
	}
}

func mergeOverride(dst *drawSpec, src *project.Style) {
	if src.Color != nil {
		dst.color = *src.Color
	}
	if src.FontStyle != "" {
		dst.fontStyle = src.FontStyle
	}
	if src.FontSize > 0 {
		dst.fontSize = src.FontSize
	}
	if src.StrokeWidth > 0 {
		dst.strokeWidth = src.StrokeWidth
	}
}

// Package cssgen deterministically maps shadow tokens to layered CSS
// box-shadow parameters. Direction defines a unit offset vector scaled by a
// fixed magnitude, softness defines blur and spread through a monotonic
// lookup table, and contrast drives opacity. Three named variants
// (subtle/medium/strong) co-scale opacity and blur.
package cssgen

import (
	"fmt"
	"math"
	"strings"

	"github.com/joshband/copy-that-sub002/pkg/models"
	"github.com/joshband/copy-that-sub002/pkg/tokens"
)

// softnessBlur is the monotonic blur/spread table: hard edges get tight
// shadows, soft edges get wide diffuse ones.
var softnessBlur = map[string]struct{ blur, spread float64 }{
	tokens.SoftnessVeryHard: {blur: 0, spread: 0},
	tokens.SoftnessHard:     {blur: 2, spread: 0},
	tokens.SoftnessMedium:   {blur: 6, spread: 1},
	tokens.SoftnessSoft:     {blur: 14, spread: 2},
	tokens.SoftnessVerySoft: {blur: 28, spread: 4},
}

// compassOffsets maps the direction token (where the light comes FROM) to the
// unit offset of the cast shadow, which falls on the opposite side.
var compassOffsets = map[string][2]float64{
	"top":          {0, 1},
	"top_right":    {-0.707, 0.707},
	"right":        {-1, 0},
	"bottom_right": {-0.707, -0.707},
	"bottom":       {0, -1},
	"bottom_left":  {0.707, -0.707},
	"left":         {1, 0},
	"top_left":     {0.707, 0.707},
}

// Variant scale factors, applied to both opacity and blur.
var variantScales = []struct {
	name    string
	opacity float64
	blur    float64
}{
	{name: "subtle", opacity: 0.6, blur: 0.7},
	{name: "medium", opacity: 1.0, blur: 1.0},
	{name: "strong", opacity: 1.4, blur: 1.3},
}

// Mapper generates box-shadow suggestions from tokens and features.
type Mapper struct {
	// OffsetMagnitude scales the unit direction vector, in px
	OffsetMagnitude float64

	// BaseOpacity and OpacityRange map shadow_contrast onto the medium
	// variant's opacity: base + range*contrast
	BaseOpacity  float64
	OpacityRange float64
}

// NewMapper creates a mapper with the stock magnitudes.
func NewMapper() *Mapper {
	return &Mapper{
		OffsetMagnitude: 8,
		BaseOpacity:     0.12,
		OpacityRange:    0.38,
	}
}

// Suggest produces the named variants for the given tokens and features.
func (m *Mapper) Suggest(t models.ShadowTokens, f models.ShadowFeatures) *models.CSSSuggestion {
	offX, offY := m.offset(t.Direction.Label)
	table, ok := softnessBlur[t.Softness.Label]
	if !ok {
		table = softnessBlur[tokens.SoftnessMedium]
	}
	baseOpacity := m.BaseOpacity + m.OpacityRange*f.ShadowContrast

	suggestion := &models.CSSSuggestion{}
	for _, vs := range variantScales {
		// A tight contact layer under a broader ambient layer
		contact := models.BoxShadowLayer{
			OffsetX:    round1(offX * m.OffsetMagnitude * 0.5),
			OffsetY:    round1(offY * m.OffsetMagnitude * 0.5),
			BlurRadius: round1(table.blur * vs.blur * 0.5),
			Spread:     round1(table.spread * 0.5),
			Opacity:    round2(clampOpacity(baseOpacity * vs.opacity)),
		}
		ambient := models.BoxShadowLayer{
			OffsetX:    round1(offX * m.OffsetMagnitude),
			OffsetY:    round1(offY * m.OffsetMagnitude),
			BlurRadius: round1((table.blur + 4) * vs.blur),
			Spread:     round1(table.spread),
			Opacity:    round2(clampOpacity(baseOpacity * vs.opacity * 0.6)),
		}
		layers := []models.BoxShadowLayer{contact, ambient}
		suggestion.Variants = append(suggestion.Variants, models.CSSVariant{
			Name:   vs.name,
			Layers: layers,
			Value:  renderValue(layers),
		})
	}
	return suggestion
}

// offset resolves the direction token to a unit shadow offset. Unknown,
// overhead, front, and back all cast straight down, the neutral CSS default.
func (m *Mapper) offset(direction string) (float64, float64) {
	if v, ok := compassOffsets[direction]; ok {
		return v[0], v[1]
	}
	return 0, 1
}

// renderValue renders the layers as a CSS box-shadow value string.
func renderValue(layers []models.BoxShadowLayer) string {
	parts := make([]string, 0, len(layers))
	for _, l := range layers {
		parts = append(parts, fmt.Sprintf("%spx %spx %spx %spx rgba(0, 0, 0, %s)",
			trimFloat(l.OffsetX), trimFloat(l.OffsetY),
			trimFloat(l.BlurRadius), trimFloat(l.Spread),
			trimFloat(l.Opacity)))
	}
	return strings.Join(parts, ", ")
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

func clampOpacity(v float64) float64 {
	if v < 0.02 {
		return 0.02
	}
	if v > 0.85 {
		return 0.85
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

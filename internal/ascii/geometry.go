package ascii

import (
	"math"

	"asciimation/internal/model"
)

const (
	// DefaultWidth is the output width in character cells.
	DefaultWidth = 180
	// DefaultCorrection compensates for terminal cells being taller than wide.
	DefaultCorrection = 0.55
)

// Geometry is the output size in character cells.
type Geometry struct {
	Width  int
	Height int
}

// NewGeometry derives the output height from the source aspect ratio:
// height = round(width / (srcW/srcH) * correction).
func NewGeometry(width, srcW, srcH int, correction float64) (Geometry, error) {
	if width <= 0 {
		return Geometry{}, model.Preconditionf("output width must be positive, got %d", width)
	}
	if srcW <= 0 || srcH <= 0 {
		return Geometry{}, model.Preconditionf("source dimensions must be positive, got %dx%d", srcW, srcH)
	}
	if correction <= 0 || math.IsNaN(correction) || math.IsInf(correction, 0) {
		return Geometry{}, model.Preconditionf("aspect correction must be positive, got %v", correction)
	}
	aspect := float64(srcW) / float64(srcH)
	h := int(math.Round(float64(width) / aspect * correction))
	g := Geometry{Width: width, Height: h}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// Validate reports a precondition error for non-positive dimensions.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return model.Preconditionf("invalid output geometry %dx%d", g.Width, g.Height)
	}
	return nil
}

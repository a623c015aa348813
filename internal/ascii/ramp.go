package ascii

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// DefaultRamp orders glyphs from lightest to darkest.
const DefaultRamp = " .°*oO#@"

// Ramp maps luminance to glyphs. Index 0 is used for black.
type Ramp []rune

// NewRamp validates a glyph sequence. A ramp needs at least two distinct runes.
func NewRamp(s string) (Ramp, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("ramp %q is not valid UTF-8", s)
	}
	r := Ramp([]rune(s))
	if len(r) < 2 {
		return nil, fmt.Errorf("ramp %q needs at least 2 glyphs", s)
	}
	seen := make(map[rune]struct{}, len(r))
	for _, g := range r {
		if _, ok := seen[g]; ok {
			return nil, fmt.Errorf("ramp %q repeats glyph %q", s, g)
		}
		seen[g] = struct{}{}
	}
	return r, nil
}

// MustRamp is NewRamp for constants known to be valid.
func MustRamp(s string) Ramp {
	r, err := NewRamp(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Index returns round(v/255 * (N-1)), clamped to the ramp.
func (r Ramp) Index(v uint8) int {
	n := len(r)
	if n == 0 {
		return 0
	}
	i := int(math.Round(float64(v) / 255 * float64(n-1)))
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return i
}

// Glyph returns the rune for luminance v.
func (r Ramp) Glyph(v uint8) rune {
	return r[r.Index(v)]
}

func (r Ramp) String() string { return string(r) }

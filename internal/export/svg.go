// Package export writes plate frames and field profiles as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/wrjanan/chladni/internal/particle"
	"github.com/wrjanan/chladni/internal/pixel"
)

// ParticlesSVG draws every in-bounds particle of a width x height plate as
// a dot, scaled by scale.
func ParticlesSVG(ps *particle.Set, width, height int, bg, fg pixel.RGB, scale float64) string {
	if ps == nil || width <= 0 || height <= 0 {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}

	w := float64(width) * scale
	h := float64(height) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, w, h, w, h, bg.Hex(), fg.Hex()))

	r := scale * 0.5
	for i := 0; i < ps.Len(); i++ {
		x, y := ps.At(i)
		if x < 0 || y < 0 || x >= float64(width) || y >= float64(height) {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.2f"/>
`, x*scale, y*scale, r))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ProfileToSVG plots values left to right as a polyline scaled to fill
// the image with 10% padding.
func ProfileToSVG(values []float64, width, height int, stroke string) string {
	if len(values) < 2 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2
	step := float64(width) / float64(len(values)-1)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, stroke))

	for i, v := range values {
		x := float64(i) * step
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

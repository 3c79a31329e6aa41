package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wrjanan/chladni/internal/pixel"
)

const (
	upperHalf     = "▀"
	maxCachedCell = 8192
)

// blockRenderer draws two plate rows per terminal row: the upper pixel is
// the foreground of "▀", the lower one its background.
type blockRenderer struct {
	codec pixel.Codec
	cells map[[2]uint32]string
}

func newBlockRenderer(codec pixel.Codec) *blockRenderer {
	return &blockRenderer{codec: codec, cells: make(map[[2]uint32]string)}
}

func (r *blockRenderer) cell(top, bottom uint32) string {
	key := [2]uint32{top, bottom}
	if s, ok := r.cells[key]; ok {
		return s
	}
	if len(r.cells) >= maxCachedCell {
		clear(r.cells)
	}
	s := lipgloss.NewStyle().
		Foreground(lipgloss.Color(r.codec.UnpackRGB(top).Hex())).
		Background(lipgloss.Color(r.codec.UnpackRGB(bottom).Hex())).
		Render(upperHalf)
	r.cells[key] = s
	return s
}

// Render returns (height+1)/2 lines of width cells.
func (r *blockRenderer) Render(buf []uint32, width, height int) string {
	if width <= 0 || height <= 0 || len(buf) < width*height {
		return ""
	}
	var b strings.Builder
	for y := 0; y < height; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		top := buf[y*width : (y+1)*width]
		bottom := top
		if y+1 < height {
			bottom = buf[(y+1)*width : (y+2)*width]
		}
		for x := range top {
			b.WriteString(r.cell(top[x], bottom[x]))
		}
	}
	return b.String()
}

package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/wrjanan/chladni/internal/pixel"
)

// plateTexture mirrors the frame buffer in a GPU texture. The texture is
// recreated whenever the plate changes size.
type plateTexture struct {
	tex    rl.Texture2D
	width  int
	height int
	loaded bool
}

func (p *plateTexture) present(buf []uint32, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if !p.loaded || p.width != width || p.height != height {
		p.unload()
		img := rl.GenImageColor(width, height, rl.Black)
		p.tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		p.width, p.height, p.loaded = width, height, true
	}
	rl.UpdateTexture(p.tex, pixel.Colors(buf[:width*height]))
}

func (p *plateTexture) draw() {
	if p.loaded {
		rl.DrawTexture(p.tex, 0, 0, rl.White)
	}
}

func (p *plateTexture) unload() {
	if p.loaded {
		rl.UnloadTexture(p.tex)
		p.loaded = false
	}
}

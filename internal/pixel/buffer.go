package pixel

import (
	"image"
	"image/color"
	"unsafe"
)

// Bytes views a word buffer as its raw bytes without copying. When the
// words were packed by the host codec the result is interleaved RGBA.
func Bytes(buf []uint32) []byte {
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*4)
}

// Colors views a host-packed word buffer as RGBA pixels without copying.
func Colors(buf []uint32) []color.RGBA {
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*color.RGBA)(unsafe.Pointer(&buf[0])), len(buf))
}

// ToImage copies a host-packed buffer into a new RGBA image.
func ToImage(buf []uint32, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	n := width * height
	if n > len(buf) {
		n = len(buf)
	}
	copy(img.Pix, Bytes(buf[:n]))
	return img
}

// Fill sets every word of buf to v.
func Fill(buf []uint32, v uint32) {
	if len(buf) == 0 {
		return
	}
	buf[0] = v
	for filled := 1; filled < len(buf); filled *= 2 {
		copy(buf[filled:], buf[:filled])
	}
}

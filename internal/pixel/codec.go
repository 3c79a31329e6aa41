package pixel

import "unsafe"

// hostBigEndian reports the byte order of the running machine.
var hostBigEndian = func() bool {
	x := uint32(1)
	return *(*byte)(unsafe.Pointer(&x)) == 0
}()

// Codec packs RGB triples into 32-bit words whose in-memory bytes read as
// R, G, B, A. The layout depends on the byte order the codec was built for.
type Codec struct {
	bigEndian bool
}

// NewCodec returns a codec for the host byte order.
func NewCodec() Codec { return Codec{bigEndian: hostBigEndian} }

// NewCodecFor returns a codec for an explicit byte order.
func NewCodecFor(bigEndian bool) Codec { return Codec{bigEndian: bigEndian} }

// BigEndian reports which packing path the codec uses.
func (c Codec) BigEndian() bool { return c.bigEndian }

// Pack returns an opaque pixel word.
func (c Codec) Pack(r, g, b uint8) uint32 {
	if c.bigEndian {
		return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | 0xff
	}
	return 0xff<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// Unpack is the inverse of Pack. Alpha is dropped.
func (c Codec) Unpack(word uint32) (r, g, b uint8) {
	if c.bigEndian {
		return uint8(word >> 24), uint8(word >> 16), uint8(word >> 8)
	}
	return uint8(word), uint8(word >> 8), uint8(word >> 16)
}

// PackRGB packs a color value.
func (c Codec) PackRGB(col RGB) uint32 { return c.Pack(col.R, col.G, col.B) }

// UnpackRGB unpacks a word into a color value.
func (c Codec) UnpackRGB(word uint32) RGB {
	r, g, b := c.Unpack(word)
	return RGB{R: r, G: g, B: b}
}

package codec

// Pixel is a quantized elevation or quantity sample. Differences and
// predictions wrap modulo 65536.
type Pixel = uint16

// PixelBits is the raw width of a Pixel on the wire.
const PixelBits = 16

// Grid is a rectangular row-major array of pixels. Both ends of a
// connection agree on dimensions out of band, via the handshake.
type Grid struct {
	Width  int
	Height int
	Pix    []Pixel
}

// NewGrid allocates a zeroed grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]Pixel, width*height),
	}
}

// At returns the pixel at (x, y).
func (g *Grid) At(x, y int) Pixel {
	return g.Pix[y*g.Width+x]
}

// Set stores the pixel at (x, y).
func (g *Grid) Set(x, y int, p Pixel) {
	g.Pix[y*g.Width+x] = p
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{Width: g.Width, Height: g.Height, Pix: make([]Pixel, len(g.Pix))}
	copy(c.Pix, g.Pix)
	return c
}

// Equal reports whether two grids have identical dimensions and pixels.
func (g *Grid) Equal(o *Grid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	for i, p := range g.Pix {
		if o.Pix[i] != p {
			return false
		}
	}
	return true
}

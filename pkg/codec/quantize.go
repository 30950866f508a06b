package codec

// Quantizer maps floating-point elevations into the 16-bit pixel range.
type Quantizer struct {
	scale  float32
	offset float32
}

// WidenRange applies the safety margin used when deriving the quantization
// range from a simulation domain: 5% of the span on either side, so
// transient overshoots still quantize in range.
func WidenRange(min, max float32) (float32, float32) {
	margin := (max - min) * 0.05
	return min - margin, max + margin
}

// NewQuantizer creates a quantizer covering [min, max].
func NewQuantizer(min, max float32) Quantizer {
	scale := 65535.0 / (max - min)
	return Quantizer{
		scale:  scale,
		offset: 0.5 - min*scale,
	}
}

// Quantize converts source samples into dst's pixels, clamping to
// [0, 65535]. len(src) must equal len(dst.Pix).
func (q Quantizer) Quantize(src []float32, dst *Grid) {
	for i, s := range src {
		se := s*q.scale + q.offset
		switch {
		case se <= 0:
			dst.Pix[i] = 0
		case se >= 65535:
			dst.Pix[i] = 65535
		default:
			dst.Pix[i] = Pixel(se)
		}
	}
}

// Dequantizer maps received pixels back into elevations. It is the
// receiving side's inverse of a Quantizer built over the same range.
type Dequantizer struct {
	scale  float32
	offset float32
}

// NewDequantizer creates the inverse mapping for [min, max].
func NewDequantizer(min, max float32) Dequantizer {
	return Dequantizer{
		scale:  (max - min) / 65535.0,
		offset: min,
	}
}

// Dequantize converts src's pixels into dst samples. len(dst) must equal
// len(src.Pix).
func (d Dequantizer) Dequantize(src *Grid, dst []float32) {
	for i, p := range src.Pix {
		dst[i] = float32(p)*d.scale + d.offset
	}
}

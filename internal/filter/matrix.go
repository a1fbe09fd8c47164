package filter

import "math"

// rgbOp transforms one pixel with channels in [0,1].
type rgbOp func(r, g, b float64) (float64, float64, float64)

// matrix is a 3x3 color matrix in row-major order.
type matrix [3][3]float64

func (m matrix) op() rgbOp {
	return func(r, g, b float64) (float64, float64, float64) {
		return clamp01(m[0][0]*r + m[0][1]*g + m[0][2]*b),
			clamp01(m[1][0]*r + m[1][1]*g + m[1][2]*b),
			clamp01(m[2][0]*r + m[2][1]*g + m[2][2]*b)
	}
}

// The matrices below are the Filter Effects Module Level 1 definitions of
// the CSS shorthand functions.

func grayscaleMatrix(amount float64) matrix {
	s := 1 - amount
	return matrix{
		{0.2126 + 0.7874*s, 0.7152 - 0.7152*s, 0.0722 - 0.0722*s},
		{0.2126 - 0.2126*s, 0.7152 + 0.2848*s, 0.0722 - 0.0722*s},
		{0.2126 - 0.2126*s, 0.7152 - 0.7152*s, 0.0722 + 0.9278*s},
	}
}

func sepiaMatrix(amount float64) matrix {
	s := 1 - amount
	return matrix{
		{0.393 + 0.607*s, 0.769 - 0.769*s, 0.189 - 0.189*s},
		{0.349 - 0.349*s, 0.686 + 0.314*s, 0.168 - 0.168*s},
		{0.272 - 0.272*s, 0.534 - 0.534*s, 0.131 + 0.869*s},
	}
}

func saturateMatrix(s float64) matrix {
	return matrix{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s},
	}
}

func hueRotateMatrix(deg float64) matrix {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return matrix{
		{0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928},
		{0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283},
		{0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072},
	}
}

func brightnessOp(amount float64) rgbOp {
	return func(r, g, b float64) (float64, float64, float64) {
		return clamp01(r * amount), clamp01(g * amount), clamp01(b * amount)
	}
}

func contrastOp(amount float64) rgbOp {
	f := func(v float64) float64 { return clamp01((v-0.5)*amount + 0.5) }
	return func(r, g, b float64) (float64, float64, float64) {
		return f(r), f(g), f(b)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

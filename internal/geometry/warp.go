package geometry

import (
	"image"
	"image/color"
	"math"
)

// warpPerspective fills a dstW x dstH image by mapping every destination
// pixel through the homography sending dst corners onto src corners and
// bilinearly sampling the source. Returns nil when the corner correspondence
// is singular.
func warpPerspective(src image.Image, srcQuad, dstQuad [4]Point, dstW, dstH int) image.Image {
	if dstW <= 0 || dstH <= 0 {
		return nil
	}
	h, ok := homography(dstQuad, srcQuad)
	if !ok {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	sb := src.Bounds()
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := applyHomography(h, float64(x), float64(y))
			out.Set(x, y, sampleBilinear(src, sx+float64(sb.Min.X), sy+float64(sb.Min.Y)))
		}
	}
	return out
}

// homography solves for the 3x3 matrix H with H22=1 mapping p[i] to q[i].
func homography(p, q [4]Point) ([9]float64, bool) {
	// Two rows per correspondence:
	//   x' = (h0 X + h1 Y + h2) / (h6 X + h7 Y + 1)
	//   y' = (h3 X + h4 Y + h5) / (h6 X + h7 Y + 1)
	var m [8][9]float64 // augmented 8x8 system
	for i := 0; i < 4; i++ {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		m[2*i] = [9]float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x, x}
		m[2*i+1] = [9]float64{0, 0, 0, X, Y, 1, -X * y, -Y * y, y}
	}

	// Gauss-Jordan with partial pivoting.
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if m[pivot][col] == 0 {
			return [9]float64{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		div := m[col][col]
		for c := col; c < 9; c++ {
			m[col][c] /= div
		}
		for r := 0; r < 8; r++ {
			if r == col || m[r][col] == 0 {
				continue
			}
			f := m[r][col]
			for c := col; c < 9; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	return [9]float64{
		m[0][8], m[1][8], m[2][8],
		m[3][8], m[4][8], m[5][8],
		m[6][8], m[7][8], 1,
	}, true
}

func applyHomography(h [9]float64, x, y float64) (float64, float64) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return -1e9, -1e9
	}
	return (h[0]*x + h[1]*y + h[2]) / denom, (h[3]*x + h[4]*y + h[5]) / denom
}

// sampleBilinear samples the source at a fractional position, returning
// opaque black for positions outside the image.
func sampleBilinear(src image.Image, x, y float64) color.Color {
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) ||
		x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.RGBA{A: 255}
	}
	x0, y0 := int(x), int(y)
	x1 := min(x0+1, b.Max.X-1)
	y1 := min(y0+1, b.Max.Y-1)
	fx, fy := x-float64(x0), y-float64(y0)

	mix := func(a, b channelRGBA, t float64) channelRGBA {
		return channelRGBA{
			a.r + (b.r-a.r)*t,
			a.g + (b.g-a.g)*t,
			a.b + (b.b-a.b)*t,
			a.a + (b.a-a.a)*t,
		}
	}
	top := mix(channels(src.At(x0, y0)), channels(src.At(x1, y0)), fx)
	bot := mix(channels(src.At(x0, y1)), channels(src.At(x1, y1)), fx)
	c := mix(top, bot, fy)
	return color.RGBA{
		R: uint8(c.r + 0.5),
		G: uint8(c.g + 0.5),
		B: uint8(c.b + 0.5),
		A: uint8(c.a + 0.5),
	}
}

type channelRGBA struct{ r, g, b, a float64 }

func channels(c color.Color) channelRGBA {
	r, g, b, a := c.RGBA()
	return channelRGBA{float64(r >> 8), float64(g >> 8), float64(b >> 8), float64(a >> 8)}
}

// Package grid turns decoded images into the fixed 28x28 binarized input the
// digit classifier expects.
package grid

import (
	"strings"

	"github.com/Brownie44l1/digit-api/internal/bitmap"
)

const (
	Size  = 28
	Cells = Size * Size

	// inkThreshold splits the mean RGB intensity: darker is ink.
	inkThreshold = 128
)

// Grid is row-major: cell (u, v) lives at u*Size+v. 1.0 is ink, 0.0 is background.
type Grid [Cells]float32

func (g *Grid) At(u, v int) float32 {
	return g[u*Size+v]
}

func (g *Grid) Slice() []float32 {
	return g[:]
}

// String draws the grid as text, one line per row.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow(Cells + Size)
	for u := 0; u < Size; u++ {
		for v := 0; v < Size; v++ {
			switch c := g.At(u, v); {
			case c >= 1:
				sb.WriteByte('#')
			case c > 0:
				sb.WriteByte('+')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Sample area-averages img onto the grid. Row window u covers input rows
// [u*H/Size, (u+1)*H/Size), column window v covers [v*W/Size, (v+1)*W/Size).
// Windows that hold no pixels stay 0.
func Sample(img *bitmap.DecodedImage) Grid {
	var g Grid
	if img == nil {
		return g
	}
	h, w := img.Height, img.Width
	for u := 0; u < Size; u++ {
		rowFrom, rowTo := u*h/Size, (u+1)*h/Size
		for v := 0; v < Size; v++ {
			colFrom, colTo := v*w/Size, (v+1)*w/Size
			var sum float32
			count := 0
			for i := rowFrom; i < rowTo; i++ {
				for j := colFrom; j < colTo; j++ {
					sum += Intensity(img, i, j)
					count++
				}
			}
			if count > 0 {
				g[u*Size+v] = sum / float32(count)
			}
		}
	}
	return g
}

// Intensity is the binarized ink value of pixel (row i, column j).
// Coordinates outside the image and color formats other than RGB and RGBA
// read as background.
//
// For RGBA the RGB mean is thresholded first and alpha is applied to the
// 0/1 result afterwards, so a transparent pixel is background and any
// visible pixel keeps its full weight.
func Intensity(img *bitmap.DecodedImage, i, j int) float32 {
	p := img.Pixel(i, j)
	if p == nil {
		return 0
	}
	switch img.Format {
	case bitmap.ColorRGB:
		return binarize(p[0], p[1], p[2])
	case bitmap.ColorRGBA:
		if p[3] == 0 {
			return 0
		}
		return binarize(p[0], p[1], p[2])
	default:
		return 0
	}
}

func binarize(r, g, b uint8) float32 {
	if (int(r)+int(g)+int(b))/3 < inkThreshold {
		return 1
	}
	return 0
}

// ArgMax returns the index of the largest score; the first one wins ties.
// It returns -1 for an empty slice.
func ArgMax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}
	best := 0
	for i, s := range scores[1:] {
		if s > scores[best] {
			best = i + 1
		}
	}
	return best
}

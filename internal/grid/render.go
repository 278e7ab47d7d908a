package grid

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// Render draws g as a grayscale picture, ink black on white, scaled to
// size x size pixels. Partial cells are drawn gray.
func Render(g *Grid, size uint) image.Image {
	img := image.NewGray(image.Rect(0, 0, Size, Size))
	for u := 0; u < Size; u++ {
		for v := 0; v < Size; v++ {
			c := g.At(u, v)
			if c > 1 {
				c = 1
			} else if c < 0 {
				c = 0
			}
			img.SetGray(v, u, color.Gray{Y: uint8(255 - c*255)})
		}
	}
	if size == 0 || size == Size {
		return img
	}
	return resize.Resize(size, size, img, resize.NearestNeighbor)
}

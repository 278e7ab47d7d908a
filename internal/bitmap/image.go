package bitmap

import (
	"image"

	"github.com/disintegration/imaging"
)

// ColorFormat follows the PNG IHDR color type values.
type ColorFormat uint8

const (
	ColorGray      ColorFormat = 0
	ColorRGB       ColorFormat = 2
	ColorPalette   ColorFormat = 3
	ColorGrayAlpha ColorFormat = 4
	ColorRGBA      ColorFormat = 6
)

func (f ColorFormat) String() string {
	switch f {
	case ColorGray:
		return "gray"
	case ColorRGB:
		return "rgb"
	case ColorPalette:
		return "palette"
	case ColorGrayAlpha:
		return "gray+alpha"
	case ColorRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// Channels is the number of bytes one pixel occupies in a row.
func (f ColorFormat) Channels() int {
	switch f {
	case ColorRGB:
		return 3
	case ColorRGBA:
		return 4
	case ColorGrayAlpha:
		return 2
	case ColorGray, ColorPalette:
		return 1
	default:
		return 0
	}
}

func (f ColorFormat) valid() bool {
	return f.Channels() > 0
}

// DecodedImage holds 8-bit pixel rows exactly as the PNG color type lays
// them out. It belongs to a single recognition call.
type DecodedImage struct {
	Width    int
	Height   int
	Format   ColorFormat
	RowBytes int
	Rows     [][]byte
}

// Pixel returns the channel bytes of pixel (row i, column j), or nil when
// the coordinate falls outside the image.
func (d *DecodedImage) Pixel(i, j int) []byte {
	if d == nil || i < 0 || i >= d.Height || j < 0 || j >= d.Width || i >= len(d.Rows) {
		return nil
	}
	n := d.Format.Channels()
	row := d.Rows[i]
	if (j+1)*n > len(row) {
		return nil
	}
	return row[j*n : (j+1)*n]
}

// Release drops every row buffer. Safe to call more than once.
func (d *DecodedImage) Release() {
	if d == nil {
		return
	}
	for i := range d.Rows {
		d.Rows[i] = nil
	}
	d.Rows = nil
}

// FromImage converts an already decoded image of any kind into RGBA rows.
func FromImage(img image.Image) *DecodedImage {
	return fromNRGBA(imaging.Clone(img), ColorRGBA)
}

func newDecodedImage(width, height int, format ColorFormat) *DecodedImage {
	d := &DecodedImage{
		Width:    width,
		Height:   height,
		Format:   format,
		RowBytes: width * format.Channels(),
		Rows:     make([][]byte, height),
	}
	for i := range d.Rows {
		d.Rows[i] = make([]byte, d.RowBytes)
	}
	return d
}

// fromNRGBA packs the channels of format out of a non-premultiplied image.
func fromNRGBA(src *image.NRGBA, format ColorFormat) *DecodedImage {
	b := src.Bounds()
	d := newDecodedImage(b.Dx(), b.Dy(), format)
	n := format.Channels()
	for y := 0; y < d.Height; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+d.Width*4]
		row := d.Rows[y]
		for x := 0; x < d.Width; x++ {
			p := srcRow[x*4 : x*4+4]
			out := row[x*n : x*n+n]
			switch format {
			case ColorRGB:
				copy(out, p[:3])
			case ColorRGBA:
				copy(out, p)
			case ColorGray:
				out[0] = p[0]
			case ColorGrayAlpha:
				out[0], out[1] = p[0], p[3]
			}
		}
	}
	return d
}

func fromPaletted(src *image.Paletted) *DecodedImage {
	b := src.Bounds()
	d := newDecodedImage(b.Dx(), b.Dy(), ColorPalette)
	for y := 0; y < d.Height; y++ {
		copy(d.Rows[y], src.Pix[y*src.Stride:y*src.Stride+d.Width])
	}
	return d
}

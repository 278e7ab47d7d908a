package grid

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/digit-api/internal/bitmap"
)

func filled(w, h int, format bitmap.ColorFormat, px ...byte) *bitmap.DecodedImage {
	img := &bitmap.DecodedImage{
		Width:    w,
		Height:   h,
		Format:   format,
		RowBytes: w * format.Channels(),
		Rows:     make([][]byte, h),
	}
	for i := range img.Rows {
		row := make([]byte, 0, img.RowBytes)
		for j := 0; j < w; j++ {
			row = append(row, px...)
		}
		img.Rows[i] = row
	}
	return img
}

func setRGB(img *bitmap.DecodedImage, i, j int, r, g, b byte) {
	copy(img.Pixel(i, j), []byte{r, g, b})
}

func TestSample_IdentityAt28(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := filled(Size, Size, bitmap.ColorRGB, 255, 255, 255)
	var want Grid
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			r, g, b := byte(rng.Intn(256)), byte(rng.Intn(256)), byte(rng.Intn(256))
			setRGB(img, i, j, r, g, b)
			if (int(r)+int(g)+int(b))/3 < 128 {
				want[i*Size+j] = 1
			}
		}
	}

	got := Sample(img)
	require.Equal(t, want, got)
}

func TestSample_UniformImages(t *testing.T) {
	sizes := [][2]int{{28, 28}, {29, 31}, {56, 84}, {300, 45}, {28, 1000}}
	for _, s := range sizes {
		white := Sample(filled(s[0], s[1], bitmap.ColorRGB, 255, 255, 255))
		black := Sample(filled(s[0], s[1], bitmap.ColorRGB, 0, 0, 0))
		for k := 0; k < Cells; k++ {
			require.Equal(t, float32(0), white[k], "white %dx%d cell %d", s[0], s[1], k)
			require.Equal(t, float32(1), black[k], "black %dx%d cell %d", s[0], s[1], k)
		}
	}
}

func TestSample_WhiteSmallImage(t *testing.T) {
	g := Sample(filled(5, 3, bitmap.ColorRGB, 255, 255, 255))
	require.Equal(t, Grid{}, g)
}

func TestSample_ExactMultipleAverages(t *testing.T) {
	img := filled(56, 56, bitmap.ColorRGB, 255, 255, 255)
	for i := 0; i < 56; i++ {
		for j := 0; j < 56; j++ {
			if (i+j)%2 == 0 {
				setRGB(img, i, j, 0, 0, 0)
			}
		}
	}

	first := Sample(img)
	for k := 0; k < Cells; k++ {
		require.Equal(t, float32(0.5), first[k])
	}
	require.Equal(t, first, Sample(img))
}

func TestSample_TruncatedWindowBounds(t *testing.T) {
	// For 30 pixels, window 13 spans [390/28, 420/28) = [13, 15), so a single
	// inked line at 14 averages to 0.5 there and leaves window 14 = [15, 16) empty.
	cases := []struct {
		name  string
		w, h  int
		inked func(i, j int) bool
		cell  func(u, v int) bool
	}{
		{
			name:  "column 14 of 30",
			w:     30,
			h:     28,
			inked: func(i, j int) bool { return j == 14 },
			cell:  func(u, v int) bool { return v == 13 },
		},
		{
			name:  "row 14 of 30",
			w:     28,
			h:     30,
			inked: func(i, j int) bool { return i == 14 },
			cell:  func(u, v int) bool { return u == 13 },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := filled(tc.w, tc.h, bitmap.ColorRGB, 255, 255, 255)
			for i := 0; i < tc.h; i++ {
				for j := 0; j < tc.w; j++ {
					if tc.inked(i, j) {
						setRGB(img, i, j, 0, 0, 0)
					}
				}
			}

			g := Sample(img)
			for u := 0; u < Size; u++ {
				for v := 0; v < Size; v++ {
					want := float32(0)
					if tc.cell(u, v) {
						want = 0.5
					}
					require.Equal(t, want, g.At(u, v), "cell (%d, %d)", u, v)
				}
			}
		})
	}
}

func TestSample_ThresholdBoundary(t *testing.T) {
	img := filled(Size, Size, bitmap.ColorRGB, 255, 255, 255)
	setRGB(img, 0, 0, 127, 127, 127)
	setRGB(img, 0, 1, 128, 128, 128)
	setRGB(img, 0, 2, 129, 127, 127)
	setRGB(img, 0, 3, 130, 127, 127)

	g := Sample(img)
	require.Equal(t, float32(1), g.At(0, 0))
	require.Equal(t, float32(0), g.At(0, 1))
	require.Equal(t, float32(1), g.At(0, 2))
	require.Equal(t, float32(0), g.At(0, 3))
}

func TestSample_OnePixelImage(t *testing.T) {
	img := filled(1, 1, bitmap.ColorRGB, 0, 0, 0)

	var g Grid
	require.NotPanics(t, func() { g = Sample(img) })
	for k := 0; k < Cells-1; k++ {
		require.Equal(t, float32(0), g[k])
	}
	require.Equal(t, float32(1), g.At(Size-1, Size-1))
}

func TestIntensity_OutOfBounds(t *testing.T) {
	img := filled(1, 1, bitmap.ColorRGB, 0, 0, 0)
	require.Equal(t, float32(0), Intensity(img, -1, 0))
	require.Equal(t, float32(0), Intensity(img, 0, 1))
	require.Equal(t, float32(0), Intensity(img, 27, 27))
	require.Equal(t, float32(1), Intensity(img, 0, 0))
}

func TestIntensity_RGBA(t *testing.T) {
	require.Equal(t, float32(0), Intensity(filled(1, 1, bitmap.ColorRGBA, 0, 0, 0, 0), 0, 0))
	require.Equal(t, float32(1), Intensity(filled(1, 1, bitmap.ColorRGBA, 0, 0, 0, 255), 0, 0))
	require.Equal(t, float32(1), Intensity(filled(1, 1, bitmap.ColorRGBA, 0, 0, 0, 100), 0, 0))
	require.Equal(t, float32(0), Intensity(filled(1, 1, bitmap.ColorRGBA, 255, 255, 255, 255), 0, 0))
}

func TestSample_UnsupportedFormatIsBlank(t *testing.T) {
	require.Equal(t, Grid{}, Sample(filled(28, 28, bitmap.ColorGray, 0)))
	require.Equal(t, Grid{}, Sample(filled(28, 28, bitmap.ColorGrayAlpha, 0, 255)))
	require.Equal(t, Grid{}, Sample(filled(28, 28, bitmap.ColorPalette, 1)))
	require.Equal(t, Grid{}, Sample(nil))
}

func TestSample_ReleasedImageIsBlank(t *testing.T) {
	img := filled(28, 28, bitmap.ColorRGB, 0, 0, 0)
	img.Release()
	require.Equal(t, Grid{}, Sample(img))
}

func TestArgMax(t *testing.T) {
	require.Equal(t, -1, ArgMax(nil))
	require.Equal(t, 0, ArgMax([]float32{3}))
	require.Equal(t, 4, ArgMax([]float32{0, 1, 2, 3, 9, 1, 0, 0, 0, 0}))
	require.Equal(t, 2, ArgMax([]float32{-1, 0, 5, 5, 1, 5, 0, 0, 0, 0}))
	require.Equal(t, 0, ArgMax([]float32{-3, -3, -3}))
}

func TestString(t *testing.T) {
	var g Grid
	g[0] = 1
	g[1] = 0.5
	lines := strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n")
	require.Len(t, lines, Size)
	require.True(t, strings.HasPrefix(lines[0], "#+."))
	require.Equal(t, strings.Repeat(".", Size), lines[1])
}

func TestRender(t *testing.T) {
	var g Grid
	g[0] = 1

	small := Render(&g, 0)
	require.Equal(t, Size, small.Bounds().Dx())

	big := Render(&g, 280)
	require.Equal(t, 280, big.Bounds().Dx())
	require.Equal(t, 280, big.Bounds().Dy())
	r, _, _, _ := big.At(5, 5).RGBA()
	require.Equal(t, uint32(0), r)
	r, _, _, _ = big.At(200, 200).RGBA()
	require.Equal(t, uint32(0xffff), r)
}

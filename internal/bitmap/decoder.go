// Package bitmap decodes PNG files into per-row pixel buffers.
package bitmap

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

const (
	signatureLen = 8
	ihdrLen      = 13
	// PNG chunk lengths are limited to 2^31-1.
	maxChunkLen = 0x7fffffff
)

var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// File is what the decoder needs from an opened image file.
type File interface {
	io.ReadSeeker
	io.Closer
}

type Decoder struct {
	open func(name string) (File, error)
}

func NewDecoder() *Decoder {
	return &Decoder{
		open: func(name string) (File, error) {
			return os.Open(name)
		},
	}
}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return len(data) >= signatureLen && bytes.Equal(data[:signatureLen], signature)
}

// Decode opens path and decodes it as a PNG. The file is closed before
// Decode returns, whatever the outcome.
func (d *Decoder) Decode(path string) (*DecodedImage, error) {
	f, err := d.open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrFileOpen, "%s: %v", path, err)
	}
	defer f.Close()

	img, err := d.DecodeReader(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return img, nil
}

// DecodeReader decodes a PNG stream in three steps: signature check, header
// decode (every chunk before the first IDAT) and pixel decode. Each failure
// is reported with its own error so callers can tell a foreign file from a
// malformed header or body.
func (d *Decoder) DecodeReader(r io.ReadSeeker) (*DecodedImage, error) {
	sig := make([]byte, signatureLen)
	if _, err := io.ReadFull(r, sig); err != nil || !IsPNG(sig) {
		return nil, ErrSignatureMismatch
	}

	format, err := readHeader(r)
	if err != nil {
		return nil, &DecodeError{Stage: StageHeader, Err: err}
	}
	if !format.valid() {
		return nil, &DecodeError{Stage: StageHeader, Err: errors.Errorf("unsupported color type %d", format)}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Stage: StageHeader, Err: err}
	}
	cfg, err := png.DecodeConfig(r)
	if err != nil {
		return nil, &DecodeError{Stage: StageHeader, Err: err}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Stage: StagePixels, Err: err}
	}
	pixels, err := png.Decode(r)
	if err != nil {
		return nil, &DecodeError{Stage: StagePixels, Err: err}
	}
	if b := pixels.Bounds(); b.Dx() != cfg.Width || b.Dy() != cfg.Height {
		return nil, &DecodeError{
			Stage: StagePixels,
			Err:   errors.Errorf("decoded %dx%d pixels, header declares %dx%d", b.Dx(), b.Dy(), cfg.Width, cfg.Height),
		}
	}

	return toRows(pixels, format), nil
}

// readHeader walks the chunks that follow the signature up to the first
// IDAT, checking lengths and CRCs, and returns the IHDR color type.
func readHeader(r io.Reader) (ColorFormat, error) {
	var (
		head     [8]byte
		sum      [4]byte
		ihdr     []byte
		seenIHDR bool
	)
	for {
		if _, err := io.ReadFull(r, head[:]); err != nil {
			return 0, errors.Wrap(noEOF(err), "reading chunk header")
		}
		length := binary.BigEndian.Uint32(head[:4])
		kind := string(head[4:8])
		if length > maxChunkLen {
			return 0, errors.Errorf("chunk %q: bad length %d", kind, length)
		}

		if kind == "IDAT" {
			if !seenIHDR {
				return 0, errors.New("missing IHDR")
			}
			return ColorFormat(ihdr[9]), nil
		}
		if !seenIHDR && kind != "IHDR" {
			return 0, errors.Errorf("missing IHDR, found %q", kind)
		}

		crc := crc32.NewIEEE()
		crc.Write(head[4:8])
		if kind == "IHDR" {
			if length != ihdrLen {
				return 0, errors.Errorf("IHDR: bad length %d", length)
			}
			ihdr = make([]byte, ihdrLen)
			if _, err := io.ReadFull(r, ihdr); err != nil {
				return 0, errors.Wrap(noEOF(err), "reading IHDR")
			}
			crc.Write(ihdr)
			seenIHDR = true
		} else if _, err := io.CopyN(crc, r, int64(length)); err != nil {
			return 0, errors.Wrapf(noEOF(err), "reading chunk %q", kind)
		}

		if _, err := io.ReadFull(r, sum[:]); err != nil {
			return 0, errors.Wrapf(noEOF(err), "reading chunk %q checksum", kind)
		}
		if binary.BigEndian.Uint32(sum[:]) != crc.Sum32() {
			return 0, errors.Errorf("chunk %q: checksum mismatch", kind)
		}
	}
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func toRows(img image.Image, format ColorFormat) *DecodedImage {
	if p, ok := img.(*image.Paletted); ok && format == ColorPalette {
		return fromPaletted(p)
	}
	return fromNRGBA(imaging.Clone(img), format)
}

// Package pixel normalizes camera bitmaps into the display format.
package pixel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/BrunoKrugel/irpreview/internal/model"
)

// Display format expected by every surface.
const (
	DisplayFormat = model.BGRA8
	DisplayAlpha  = model.Premultiplied
)

var ErrUnsupportedFormat = errors.New("unsupported pixel format")

// NeedsConversion reports whether b differs from the display format.
func NeedsConversion(b *model.Bitmap) bool {
	return b.Format != DisplayFormat || b.Alpha != DisplayAlpha
}

// ToDisplay returns b itself when it is already displayable, otherwise a
// converted copy.
func ToDisplay(b *model.Bitmap) (*model.Bitmap, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if !NeedsConversion(b) {
		return b, nil
	}
	return Convert(b, DisplayFormat, DisplayAlpha)
}

// Convert copies src into a new bitmap of the requested format and alpha
// mode. Only BGRA8 output is implemented.
func Convert(src *model.Bitmap, format model.PixelFormat, alpha model.AlphaMode) (*model.Bitmap, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if format != model.BGRA8 {
		return nil, fmt.Errorf("%w: cannot convert to %s", ErrUnsupportedFormat, format)
	}

	dst := model.NewBitmap(src.Width, src.Height, format, alpha)
	dst.Timestamp = src.Timestamp

	switch src.Format {
	case model.Gray8:
		for y := 0; y < src.Height; y++ {
			in, out := src.Row(y), dst.Row(y)
			for x, v := range in {
				putBGRA(out[x*4:], v, v, v, 0xff)
			}
		}
	case model.Gray16:
		lo, hi := gray16Range(src)
		for y := 0; y < src.Height; y++ {
			in, out := src.Row(y), dst.Row(y)
			for x := 0; x < src.Width; x++ {
				v := stretch(binary.LittleEndian.Uint16(in[x*2:]), lo, hi)
				putBGRA(out[x*4:], v, v, v, 0xff)
			}
		}
	case model.RGBA8, model.BGRA8:
		swap := src.Format == model.RGBA8
		for y := 0; y < src.Height; y++ {
			in, out := src.Row(y), dst.Row(y)
			for x := 0; x < src.Width; x++ {
				p := in[x*4 : x*4+4]
				c0, c1, c2, a := p[0], p[1], p[2], p[3]
				if swap {
					c0, c2 = c2, c0
				}
				c0, c1, c2, a = applyAlpha(c0, c1, c2, a, src.Alpha, alpha)
				putBGRA(out[x*4:], c0, c1, c2, a)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, src.Format)
	}

	return dst, nil
}

func applyAlpha(b, g, r, a byte, from, to model.AlphaMode) (byte, byte, byte, byte) {
	if from == model.Ignore {
		a = 0xff
	}
	switch {
	case to == model.Ignore:
		return b, g, r, 0xff
	case from == model.Premultiplied && to == model.Straight:
		return unpremul(b, a), unpremul(g, a), unpremul(r, a), a
	case from != model.Premultiplied && to == model.Premultiplied:
		return premul(b, a), premul(g, a), premul(r, a), a
	}
	return b, g, r, a
}

func premul(c, a byte) byte {
	return byte((uint32(c)*uint32(a) + 127) / 255)
}

func unpremul(c, a byte) byte {
	if a == 0 {
		return 0
	}
	v := (uint32(c)*255 + uint32(a)/2) / uint32(a)
	if v > 0xff {
		v = 0xff
	}
	return byte(v)
}

func putBGRA(p []byte, b, g, r, a byte) {
	p[0], p[1], p[2], p[3] = b, g, r, a
}

// gray16Range finds the raw value span used to stretch 16 bit IR data into
// 8 bits.
func gray16Range(b *model.Bitmap) (lo, hi uint16) {
	lo, hi = 0xffff, 0
	for y := 0; y < b.Height; y++ {
		row := b.Row(y)
		for x := 0; x < b.Width; x++ {
			v := binary.LittleEndian.Uint16(row[x*2:])
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

func stretch(v, lo, hi uint16) byte {
	if hi <= lo {
		return 0
	}
	return byte(uint32(v-lo) * 255 / uint32(hi-lo))
}

// ToImage wraps a display bitmap as an image.RGBA, which Go also treats as
// alpha-premultiplied.
func ToImage(b *model.Bitmap) (*image.RGBA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if NeedsConversion(b) {
		return nil, fmt.Errorf("%w: %s/%s is not displayable", ErrUnsupportedFormat, b.Format, b.Alpha)
	}
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		in := b.Row(y)
		out := img.Pix[y*img.Stride : y*img.Stride+b.Width*4]
		for x := 0; x < b.Width; x++ {
			i := x * 4
			out[i], out[i+1], out[i+2], out[i+3] = in[i+2], in[i+1], in[i], in[i+3]
		}
	}
	return img, nil
}

// FromImage turns a decoded image into a bitmap. Gray images stay single
// channel; everything else becomes premultiplied RGBA8.
func FromImage(img image.Image) *model.Bitmap {
	bounds := img.Bounds()
	if gray, ok := img.(*image.Gray); ok {
		b := model.NewBitmap(bounds.Dx(), bounds.Dy(), model.Gray8, model.Ignore)
		for y := 0; y < b.Height; y++ {
			start := gray.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(b.Row(y), gray.Pix[start:start+b.Width])
		}
		return b
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	b := model.NewBitmap(bounds.Dx(), bounds.Dy(), model.RGBA8, model.Premultiplied)
	b.Stride = rgba.Stride
	b.Pix = rgba.Pix
	return b
}

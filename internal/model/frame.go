package model

import (
	"errors"
	"fmt"
	"time"
)

type PixelFormat int

const (
	Unknown PixelFormat = iota
	Gray8
	Gray16
	RGBA8
	BGRA8
)

func (f PixelFormat) String() string {
	switch f {
	case Gray8:
		return "gray8"
	case Gray16:
		return "gray16"
	case RGBA8:
		return "rgba8"
	case BGRA8:
		return "bgra8"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case Gray8:
		return 1
	case Gray16:
		return 2
	case RGBA8, BGRA8:
		return 4
	default:
		return 0
	}
}

type AlphaMode int

const (
	Straight AlphaMode = iota
	Premultiplied
	Ignore
)

func (m AlphaMode) String() string {
	switch m {
	case Premultiplied:
		return "premultiplied"
	case Ignore:
		return "ignore"
	default:
		return "straight"
	}
}

var ErrMalformedBitmap = errors.New("malformed bitmap")

// Bitmap is a CPU-side pixel buffer
type Bitmap struct {
	Width     int
	Height    int
	Stride    int
	Format    PixelFormat
	Alpha     AlphaMode
	Pix       []byte
	Timestamp time.Time
}

// NewBitmap allocates a zeroed bitmap with a tightly packed stride.
func NewBitmap(width, height int, format PixelFormat, alpha AlphaMode) *Bitmap {
	stride := width * format.BytesPerPixel()
	return &Bitmap{
		Width:     width,
		Height:    height,
		Stride:    stride,
		Format:    format,
		Alpha:     alpha,
		Pix:       make([]byte, stride*height),
		Timestamp: time.Now(),
	}
}

// Validate checks that the buffer is large enough for the declared geometry
func (b *Bitmap) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil", ErrMalformedBitmap)
	}
	bpp := b.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: format %s", ErrMalformedBitmap, b.Format)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrMalformedBitmap, b.Width, b.Height)
	}
	if b.Stride < b.Width*bpp {
		return fmt.Errorf("%w: stride %d too small for width %d", ErrMalformedBitmap, b.Stride, b.Width)
	}
	if need := b.Stride*(b.Height-1) + b.Width*bpp; len(b.Pix) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrMalformedBitmap, len(b.Pix), need)
	}
	return nil
}

// Row returns the pixel bytes of row y without stride padding.
func (b *Bitmap) Row(y int) []byte {
	start := y * b.Stride
	return b.Pix[start : start+b.Width*b.Format.BytesPerPixel()]
}

// VideoFrame is a single frame produced by a source
type VideoFrame struct {
	Bitmap *Bitmap
}

// FrameReference is the latest frame handed out by a reader. Either field may
// be nil when the source had nothing to offer.
type FrameReference struct {
	SourceID string
	Sequence uint64
	Video    *VideoFrame
}

// Bitmap returns nil when the reference carries no video frame.
func (r *FrameReference) Bitmap() *Bitmap {
	if r == nil || r.Video == nil {
		return nil
	}
	return r.Video.Bitmap
}

// Frame is a displayed image encoded as JPEG
type Frame struct {
	Timestamp time.Time
	Sequence  uint64
	Data      []byte
}

package utils

import "errors"

var (
	ErrJPEGTooShort  = errors.New("jpeg too short")
	ErrJPEGNoSOI     = errors.New("jpeg missing SOI marker")
	ErrJPEGTruncated = errors.New("jpeg missing EOI marker")
)

// CheckJPEG does a cheap marker check before a frame is handed to the decoder.
// Cameras that drop the connection mid-transfer produce truncated bodies.
func CheckJPEG(data []byte) error {
	if len(data) < 4 {
		return ErrJPEGTooShort
	}
	// SOI marker: FF D8
	if data[0] != 0xFF || data[1] != 0xD8 {
		return ErrJPEGNoSOI
	}
	// EOI marker: FF D9
	if data[len(data)-2] != 0xFF || data[len(data)-1] != 0xD9 {
		return ErrJPEGTruncated
	}
	return nil
}

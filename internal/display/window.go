//go:build gocv

package display

import (
	"context"
	"log/slog"

	"github.com/BrunoKrugel/irpreview/internal/preview"
	"gocv.io/x/gocv"
)

// RunWindow shows updates in a HighGUI window. HighGUI must be driven from
// the main OS thread, so call it from main and nowhere else.
func RunWindow(ctx context.Context, title string, updates <-chan preview.Update, logger *slog.Logger) error {
	window := gocv.NewWindow(title)
	defer window.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()

	sizeSet := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-updates:
			b := u.Bitmap
			pix := b.Pix
			if b.Stride != b.Width*4 {
				pix = make([]byte, 0, b.Width*4*b.Height)
				for y := 0; y < b.Height; y++ {
					pix = append(pix, b.Row(y)...)
				}
			}

			mat, err := gocv.NewMatFromBytes(b.Height, b.Width, gocv.MatTypeCV8UC4, pix)
			if err != nil {
				logger.Warn("cannot wrap frame", "sequence", u.Sequence, "error", err)
				u.Done()
				continue
			}
			gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR)
			mat.Close()

			if !sizeSet {
				window.ResizeWindow(b.Width, b.Height)
				sizeSet = true
			}
			window.IMShow(bgr)
			u.Done()
		default:
			// Keeps the window responsive between frames.
			if window.WaitKey(10) == 27 {
				return nil
			}
		}
	}
}

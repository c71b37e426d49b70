//go:build !gocv

package display

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BrunoKrugel/irpreview/internal/preview"
)

var ErrNoWindow = errors.New("window display requires building with -tags gocv")

func RunWindow(ctx context.Context, title string, updates <-chan preview.Update, logger *slog.Logger) error {
	return ErrNoWindow
}

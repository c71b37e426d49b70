//go:build !gocv

package opencv

import (
	"errors"
	"log/slog"

	"github.com/BrunoKrugel/irpreview/internal/config"
	"github.com/BrunoKrugel/irpreview/internal/source"
)

var ErrNotBuilt = errors.New("opencv source requires building with -tags gocv")

func New(devices []config.Device, fps int, logger *slog.Logger) (source.Backend, error) {
	return nil, ErrNotBuilt
}

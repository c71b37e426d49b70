// Package display owns the on-screen side of the preview: it takes updates
// from the presenter, renders them and serves the result.
package display

import (
	"bytes"
	"context"
	"image/jpeg"
	"log/slog"
	"sync"

	"github.com/BrunoKrugel/irpreview/internal/model"
	"github.com/BrunoKrugel/irpreview/internal/pixel"
	"github.com/BrunoKrugel/irpreview/internal/preview"
)

// Surface is the current image. Run is its only writer, so image assignment
// happens on a single goroutine.
type Surface struct {
	quality int
	logger  *slog.Logger

	mu      sync.RWMutex
	current *model.Frame
	changed chan struct{}
}

func NewSurface(quality int, logger *slog.Logger) *Surface {
	return &Surface{
		quality: quality,
		logger:  logger,
		changed: make(chan struct{}),
	}
}

// Run consumes updates until ctx is done.
func (s *Surface) Run(ctx context.Context, updates <-chan preview.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			s.show(u)
		}
	}
}

func (s *Surface) show(u preview.Update) {
	defer u.Done()

	img, err := pixel.ToImage(u.Bitmap)
	if err != nil {
		s.logger.Warn("cannot render frame", "sequence", u.Sequence, "error", err)
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		s.logger.Warn("cannot encode frame", "sequence", u.Sequence, "error", err)
		return
	}

	s.assign(&model.Frame{
		Timestamp: u.Bitmap.Timestamp,
		Sequence:  u.Sequence,
		Data:      buf.Bytes(),
	})
}

func (s *Surface) assign(f *model.Frame) {
	s.mu.Lock()
	s.current = f
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Current returns the displayed frame, or nil before the first one.
func (s *Surface) Current() *model.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Changed returns a channel closed on the next assignment.
func (s *Surface) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

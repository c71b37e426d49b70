// Package preview connects a frame reader to a display surface. It keeps a
// single in-flight flag: while the surface is busy with one frame, newly
// arriving frames are dropped rather than queued.
package preview

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BrunoKrugel/irpreview/internal/log"
	"github.com/BrunoKrugel/irpreview/internal/model"
	"github.com/BrunoKrugel/irpreview/internal/pixel"
	"github.com/BrunoKrugel/irpreview/internal/source"
)

// Update is one frame handed to the display. The receiver must call Done
// once the image has been assigned to the surface.
type Update struct {
	SourceID string
	Sequence uint64
	Bitmap   *model.Bitmap
	done     func()
}

// Done marks the display update complete. Calling it more than once is a no-op.
func (u Update) Done() {
	if u.done != nil {
		u.done()
	}
}

type Stats struct {
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Skipped   uint64 `json:"skipped"`
	Converted uint64 `json:"converted"`
}

type Presenter struct {
	updates chan Update
	running atomic.Bool
	limiter *log.Limiter

	delivered atomic.Uint64
	dropped   atomic.Uint64
	skipped   atomic.Uint64
	converted atomic.Uint64
}

func NewPresenter(logger *slog.Logger) *Presenter {
	return &Presenter{
		// One slot is enough: running guarantees at most one update is
		// outstanding, so sends never block.
		updates: make(chan Update, 1),
		limiter: log.NewLimiter(logger, 10*time.Second),
	}
}

// Updates is the single channel the display layer reads from. The reader
// owns any thread affinity the surface needs.
func (p *Presenter) Updates() <-chan Update {
	return p.updates
}

// HandleFrameArrived is registered as the reader's frame-arrived handler.
func (p *Presenter) HandleFrameArrived(reader source.FrameReader) {
	ref := reader.TryAcquireLatestFrame()
	bitmap := ref.Bitmap()
	if bitmap == nil {
		p.skipped.Add(1)
		p.limiter.Debug("frame arrived without a video frame")
		return
	}

	if !p.running.CompareAndSwap(false, true) {
		p.dropped.Add(1)
		return
	}

	display, err := pixel.ToDisplay(bitmap)
	if err != nil {
		p.running.Store(false)
		p.skipped.Add(1)
		p.limiter.Warn("frame conversion failed", "source", ref.SourceID, "format", bitmap.Format.String(), "error", err)
		return
	}
	if display != bitmap {
		p.converted.Add(1)
	}

	p.delivered.Add(1)
	p.updates <- Update{
		SourceID: ref.SourceID,
		Sequence: ref.Sequence,
		Bitmap:   display,
		done:     sync.OnceFunc(func() { p.running.Store(false) }),
	}
}

// Busy reports whether a display update is in flight.
func (p *Presenter) Busy() bool {
	return p.running.Load()
}

func (p *Presenter) Stats() Stats {
	return Stats{
		Delivered: p.delivered.Load(),
		Dropped:   p.dropped.Load(),
		Skipped:   p.skipped.Load(),
		Converted: p.converted.Load(),
	}
}

package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BrunoKrugel/irpreview/internal/log"
	"github.com/BrunoKrugel/irpreview/internal/model"
)

// GrabFunc fetches one frame. Returning a nil bitmap and nil error means the
// device had nothing new.
type GrabFunc func(ctx context.Context) (*model.Bitmap, error)

// PollingReader turns a GrabFunc into a FrameReader by calling it on a fixed
// interval. Only the newest frame is kept.
type PollingReader struct {
	sourceID string
	interval time.Duration
	grab     GrabFunc
	limiter  *log.Limiter

	mu      sync.Mutex
	handler func(FrameReader)
	latest  *model.FrameReference
	seq     uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewPollingReader(sourceID string, fps int, grab GrabFunc, logger *slog.Logger) *PollingReader {
	if fps <= 0 {
		fps = 1
	}
	return &PollingReader{
		sourceID: sourceID,
		interval: time.Second / time.Duration(fps),
		grab:     grab,
		limiter:  log.NewLimiter(logger.With("source", sourceID), 10*time.Second),
	}
}

func (r *PollingReader) OnFrameArrived(handler func(FrameReader)) {
	r.mu.Lock()
	r.handler = handler
	r.mu.Unlock()
}

// TryAcquireLatestFrame hands out the newest frame once. Nil means no frame
// arrived since the previous call.
func (r *PollingReader) TryAcquireLatestFrame() *model.FrameReference {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.latest
	r.latest = nil
	return ref
}

func (r *PollingReader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrReaderStarted
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
	return nil
}

// Stop blocks until the polling goroutine has exited.
func (r *PollingReader) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *PollingReader) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

func (r *PollingReader) poll(ctx context.Context) {
	bitmap, err := r.grab(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.limiter.Warn("frame grab failed", "error", err)
		}
		return
	}
	if bitmap == nil {
		return
	}
	r.Publish(bitmap)
}

// Publish stores bitmap as the latest frame and notifies the handler.
func (r *PollingReader) Publish(bitmap *model.Bitmap) {
	r.mu.Lock()
	r.seq++
	r.latest = &model.FrameReference{
		SourceID: r.sourceID,
		Sequence: r.seq,
		Video:    &model.VideoFrame{Bitmap: bitmap},
	}
	handler := r.handler
	r.mu.Unlock()

	if handler != nil {
		handler(r)
	}
}

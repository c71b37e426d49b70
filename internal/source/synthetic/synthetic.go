// Package synthetic generates a 16 bit infrared test pattern: a flat
// background with a warm spot drifting across it.
package synthetic

import (
	"context"
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/BrunoKrugel/irpreview/internal/model"
	"github.com/BrunoKrugel/irpreview/internal/source"
)

const (
	GroupID    = "synthetic"
	InfraredID = "synthetic/ir"

	BackgroundVal = 3300
	BrightSpotVal = 600
	spotRadius    = 6
)

type Backend struct {
	width, height int
	fps           int
	logger        *slog.Logger
	locks         *source.Locks
}

func New(width, height, fps int, logger *slog.Logger) *Backend {
	return &Backend{
		width:  width,
		height: height,
		fps:    fps,
		logger: logger,
		locks:  source.NewLocks(),
	}
}

func (b *Backend) FindAll(ctx context.Context) ([]source.SourceGroup, error) {
	return []source.SourceGroup{{
		ID:          GroupID,
		DisplayName: "Synthetic infrared camera",
		SourceInfos: []source.SourceInfo{{ID: InfraredID, Kind: source.Infrared}},
	}}, nil
}

func (b *Backend) Initialize(ctx context.Context, settings source.InitSettings) (source.Session, error) {
	if err := source.CheckSettings(settings); err != nil {
		return nil, err
	}
	if settings.SourceGroup.ID != GroupID {
		return nil, source.ErrUnknownGroup
	}
	release, err := b.locks.Acquire(settings.SourceGroup.ID, settings.SharingMode)
	if err != nil {
		return nil, err
	}

	return source.NewBasicSession(settings.SourceGroup, func(ctx context.Context, info source.SourceInfo) (source.FrameReader, error) {
		maker := NewFrameMaker(b.width, b.height)
		return source.NewPollingReader(info.ID, b.fps, maker.Grab, b.logger), nil
	}, release), nil
}

// FrameMaker produces successive test frames.
type FrameMaker struct {
	width, height int

	mu           sync.Mutex
	spotPosition int
}

func NewFrameMaker(width, height int) *FrameMaker {
	return &FrameMaker{width: width, height: height}
}

func (m *FrameMaker) Grab(ctx context.Context) (*model.Bitmap, error) {
	return m.Next(), nil
}

// Next returns a Gray16 frame with the warm spot moved three pixels along.
func (m *FrameMaker) Next() *model.Bitmap {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame := model.NewBitmap(m.width, m.height, model.Gray16, model.Ignore)
	cx := m.spotPosition % m.width
	cy := m.height / 2
	for y := 0; y < m.height; y++ {
		row := frame.Row(y)
		for x := 0; x < m.width; x++ {
			v := uint16(BackgroundVal)
			if dx, dy := x-cx, y-cy; dx*dx+dy*dy <= spotRadius*spotRadius {
				v += BrightSpotVal
			}
			binary.LittleEndian.PutUint16(row[x*2:], v)
		}
	}
	m.spotPosition += 3
	return frame
}

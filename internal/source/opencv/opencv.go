//go:build gocv

package opencv

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/BrunoKrugel/irpreview/internal/config"
	"github.com/BrunoKrugel/irpreview/internal/model"
	"github.com/BrunoKrugel/irpreview/internal/source"
	"gocv.io/x/gocv"
)

type Backend struct {
	devices []device
	fps     int
	logger  *slog.Logger
	locks   *source.Locks
}

type device struct {
	index int
	group source.SourceGroup
}

func New(devices []config.Device, fps int, logger *slog.Logger) (source.Backend, error) {
	b := &Backend{fps: fps, logger: logger, locks: source.NewLocks()}
	for _, d := range devices {
		kind, err := source.ParseKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", d.Index, err)
		}
		id := "video" + strconv.Itoa(d.Index)
		b.devices = append(b.devices, device{
			index: d.Index,
			group: source.SourceGroup{
				ID:          id,
				DisplayName: "OpenCV device " + strconv.Itoa(d.Index),
				SourceInfos: []source.SourceInfo{{ID: id + "/0", Kind: kind}},
			},
		})
	}
	return b, nil
}

func (b *Backend) FindAll(ctx context.Context) ([]source.SourceGroup, error) {
	groups := make([]source.SourceGroup, 0, len(b.devices))
	for _, d := range b.devices {
		groups = append(groups, d.group)
	}
	return groups, nil
}

func (b *Backend) Initialize(ctx context.Context, settings source.InitSettings) (source.Session, error) {
	if err := source.CheckSettings(settings); err != nil {
		return nil, err
	}
	var dev *device
	for i := range b.devices {
		if b.devices[i].group.ID == settings.SourceGroup.ID {
			dev = &b.devices[i]
		}
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownGroup, settings.SourceGroup.ID)
	}

	release, err := b.locks.Acquire(dev.group.ID, settings.SharingMode)
	if err != nil {
		return nil, err
	}

	capture, err := gocv.OpenVideoCapture(dev.index)
	if err != nil {
		release()
		return nil, fmt.Errorf("open device %d: %w", dev.index, err)
	}

	g := &grabber{capture: capture, mat: gocv.NewMat(), converted: gocv.NewMat()}

	var once sync.Once
	closeAll := func() {
		once.Do(func() {
			g.close()
			release()
		})
	}

	return source.NewBasicSession(dev.group, func(ctx context.Context, info source.SourceInfo) (source.FrameReader, error) {
		return source.NewPollingReader(info.ID, b.fps, g.grab, b.logger), nil
	}, closeAll), nil
}

type grabber struct {
	capture   *gocv.VideoCapture
	mat       gocv.Mat
	converted gocv.Mat
}

// close runs after every reader of the session has stopped.
func (g *grabber) close() {
	g.mat.Close()
	g.converted.Close()
	g.capture.Close()
}

func (g *grabber) grab(ctx context.Context) (*model.Bitmap, error) {
	if ok := g.capture.Read(&g.mat); !ok {
		return nil, fmt.Errorf("device read failed")
	}
	if g.mat.Empty() {
		return nil, nil
	}

	var (
		src    = g.mat
		format = model.Gray8
	)
	if g.mat.Channels() == 3 {
		gocv.CvtColor(g.mat, &g.converted, gocv.ColorBGRToBGRA)
		src = g.converted
		format = model.BGRA8
	}

	pix := src.ToBytes()
	b := model.NewBitmap(src.Cols(), src.Rows(), format, model.Ignore)
	copy(b.Pix, pix)
	return b, nil
}

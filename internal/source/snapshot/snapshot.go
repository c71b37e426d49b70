// Package snapshot exposes network cameras that serve a JPEG still on an
// HTTP URL. Each configured camera becomes its own source group.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"

	"github.com/BrunoKrugel/irpreview/internal/config"
	"github.com/BrunoKrugel/irpreview/internal/model"
	"github.com/BrunoKrugel/irpreview/internal/pixel"
	"github.com/BrunoKrugel/irpreview/internal/source"
	"github.com/BrunoKrugel/irpreview/internal/utils"
)

// Fetcher is satisfied by *client.Client.
type Fetcher interface {
	GetSnapshot(ctx context.Context, url string) ([]byte, error)
}

type camera struct {
	group source.SourceGroup
	url   string
}

type Backend struct {
	cameras  []camera
	fetcher  Fetcher
	fetchFPS int
	logger   *slog.Logger
	locks    *source.Locks
}

func New(cameras []config.Camera, fetcher Fetcher, fetchFPS int, logger *slog.Logger) (*Backend, error) {
	b := &Backend{
		fetcher:  fetcher,
		fetchFPS: fetchFPS,
		logger:   logger,
		locks:    source.NewLocks(),
	}
	for _, c := range cameras {
		kind, err := source.ParseKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("camera %s: %w", c.Name, err)
		}
		b.cameras = append(b.cameras, camera{
			group: source.SourceGroup{
				ID:          c.Name,
				DisplayName: c.Name,
				SourceInfos: []source.SourceInfo{{ID: c.Name + "/0", Kind: kind}},
			},
			url: c.URL,
		})
	}
	return b, nil
}

func (b *Backend) FindAll(ctx context.Context) ([]source.SourceGroup, error) {
	groups := make([]source.SourceGroup, 0, len(b.cameras))
	for _, c := range b.cameras {
		groups = append(groups, c.group)
	}
	return groups, nil
}

func (b *Backend) Initialize(ctx context.Context, settings source.InitSettings) (source.Session, error) {
	if err := source.CheckSettings(settings); err != nil {
		return nil, err
	}
	cam, ok := b.lookup(settings.SourceGroup.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownGroup, settings.SourceGroup.ID)
	}

	// Probe once so an unreachable camera fails initialization rather than
	// every later poll.
	if _, err := b.grab(ctx, cam.url); err != nil {
		return nil, fmt.Errorf("probe %s: %w", cam.group.ID, err)
	}

	release, err := b.locks.Acquire(cam.group.ID, settings.SharingMode)
	if err != nil {
		return nil, err
	}

	return source.NewBasicSession(cam.group, func(ctx context.Context, info source.SourceInfo) (source.FrameReader, error) {
		grab := func(ctx context.Context) (*model.Bitmap, error) {
			return b.grab(ctx, cam.url)
		}
		return source.NewPollingReader(info.ID, b.fetchFPS, grab, b.logger), nil
	}, release), nil
}

func (b *Backend) lookup(groupID string) (camera, bool) {
	for _, c := range b.cameras {
		if c.group.ID == groupID {
			return c, true
		}
	}
	return camera{}, false
}

func (b *Backend) grab(ctx context.Context, url string) (*model.Bitmap, error) {
	body, err := b.fetcher.GetSnapshot(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := utils.CheckJPEG(body); err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return pixel.FromImage(img), nil
}

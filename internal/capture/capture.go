// Package capture runs the startup sequence: find an infrared source group,
// open an exclusive capture session on it and start a frame reader.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BrunoKrugel/irpreview/internal/source"
)

var (
	ErrNoInfraredSource = errors.New("no infrared camera found")
	ErrInitialize       = errors.New("capture session initialization failed")
)

type Capture struct {
	Group   source.SourceGroup
	Source  source.SourceInfo
	Session source.Session
	Reader  source.FrameReader
}

// Settings returns the options used for every session: exclusive access,
// CPU-side frames and video only.
func Settings(group source.SourceGroup) source.InitSettings {
	return source.InitSettings{
		SourceGroup:      group,
		SharingMode:      source.SharingExclusive,
		MemoryPreference: source.MemoryCPU,
		StreamingMode:    source.StreamingVideo,
	}
}

// Start enumerates, initializes and starts reading. No infrared group and a
// failed initialization are both terminal and returned as ErrNoInfraredSource
// and ErrInitialize respectively. handler is called once per arriving frame.
func Start(ctx context.Context, enum source.Enumerator, init source.Initializer, handler func(source.FrameReader), logger *slog.Logger) (*Capture, error) {
	groups, err := enum.FindAll(ctx)
	if err != nil {
		logger.Error("source enumeration failed", "error", err)
		return nil, fmt.Errorf("enumerate sources: %w", err)
	}

	group, ok := source.SelectInfrared(groups)
	if !ok {
		logger.Error("no infrared camera found", "groups", len(groups))
		return nil, ErrNoInfraredSource
	}
	info := firstInfrared(group)
	logger = logger.With("group", group.ID, "source", info.ID)

	session, err := init.Initialize(ctx, Settings(group))
	if err != nil {
		logger.Error("capture session initialization failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInitialize, err)
	}

	reader, err := session.CreateFrameReader(ctx, info.ID)
	if err != nil {
		session.Close()
		logger.Error("frame reader creation failed", "error", err)
		return nil, fmt.Errorf("create frame reader: %w", err)
	}

	reader.OnFrameArrived(handler)

	if err := reader.Start(ctx); err != nil {
		session.Close()
		logger.Error("frame reader start failed", "error", err)
		return nil, fmt.Errorf("start frame reader: %w", err)
	}

	logger.Info("capture started", "session", session.ID(), "name", group.DisplayName)
	return &Capture{
		Group:   group,
		Source:  info,
		Session: session,
		Reader:  reader,
	}, nil
}

// firstInfrared picks the stream to read from a group that is known to carry
// at least one infrared stream.
func firstInfrared(group source.SourceGroup) source.SourceInfo {
	for _, info := range group.SourceInfos {
		if info.Kind == source.Infrared {
			return info
		}
	}
	return group.SourceInfos[0]
}

// Close stops the reader and releases the session.
func (c *Capture) Close() error {
	c.Reader.Stop()
	return c.Session.Close()
}

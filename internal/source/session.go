package source

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ReaderFactory builds a frame reader for one stream of a group.
type ReaderFactory func(ctx context.Context, info SourceInfo) (FrameReader, error)

// BasicSession is the Session shared by the back ends in this module.
type BasicSession struct {
	id        string
	group     SourceGroup
	newReader ReaderFactory
	release   func()

	mu      sync.Mutex
	readers []FrameReader
	closed  bool
}

func NewBasicSession(group SourceGroup, newReader ReaderFactory, release func()) *BasicSession {
	return &BasicSession{
		id:        uuid.NewString(),
		group:     group,
		newReader: newReader,
		release:   release,
	}
}

func (s *BasicSession) ID() string {
	return s.id
}

func (s *BasicSession) CreateFrameReader(ctx context.Context, sourceID string) (FrameReader, error) {
	info, err := FindSource(s.group, sourceID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	reader, err := s.newReader(ctx, info)
	if err != nil {
		return nil, err
	}
	s.readers = append(s.readers, reader)
	return reader, nil
}

// Close stops every reader created by the session and releases the group.
func (s *BasicSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	readers := s.readers
	s.readers = nil
	s.mu.Unlock()

	for _, r := range readers {
		r.Stop()
	}
	if s.release != nil {
		s.release()
	}
	return nil
}

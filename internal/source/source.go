// Package source describes camera frame sources: how they are enumerated,
// how a capture session is opened on them, and how frames are read.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BrunoKrugel/irpreview/internal/model"
)

type SourceKind int

const (
	Custom SourceKind = iota
	Color
	Infrared
	Depth
)

func (k SourceKind) String() string {
	switch k {
	case Color:
		return "color"
	case Infrared:
		return "infrared"
	case Depth:
		return "depth"
	default:
		return "custom"
	}
}

// ParseKind maps configuration names onto kinds. "ir" is accepted for infrared.
func ParseKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "color", "colour", "rgb":
		return Color, nil
	case "infrared", "ir":
		return Infrared, nil
	case "depth":
		return Depth, nil
	case "custom", "":
		return Custom, nil
	}
	return Custom, fmt.Errorf("unknown source kind %q", s)
}

type SourceInfo struct {
	ID   string
	Kind SourceKind
}

// SourceGroup is a bundle of streams reported together by one device.
type SourceGroup struct {
	ID          string
	DisplayName string
	SourceInfos []SourceInfo
}

// HasKind reports whether any stream in the group is of kind k.
func (g SourceGroup) HasKind(k SourceKind) bool {
	for _, info := range g.SourceInfos {
		if info.Kind == k {
			return true
		}
	}
	return false
}

// SelectInfrared returns the first group advertising an infrared stream.
func SelectInfrared(groups []SourceGroup) (SourceGroup, bool) {
	for _, g := range groups {
		if g.HasKind(Infrared) {
			return g, true
		}
	}
	return SourceGroup{}, false
}

type SharingMode int

const (
	SharingShared SharingMode = iota
	SharingExclusive
)

type MemoryPreference int

const (
	MemoryAuto MemoryPreference = iota
	MemoryCPU
)

type StreamingMode int

const (
	StreamingAudioAndVideo StreamingMode = iota
	StreamingVideo
)

type InitSettings struct {
	SourceGroup      SourceGroup
	SharingMode      SharingMode
	MemoryPreference MemoryPreference
	StreamingMode    StreamingMode
}

var (
	ErrGroupInUse    = errors.New("source group is in exclusive use")
	ErrUnknownGroup  = errors.New("unknown source group")
	ErrUnknownSource = errors.New("unknown source")
	ErrUnsupported   = errors.New("unsupported initialization settings")
	ErrReaderStarted = errors.New("frame reader already started")
	ErrSessionClosed = errors.New("capture session closed")
)

// Enumerator lists the frame source groups currently available.
type Enumerator interface {
	FindAll(ctx context.Context) ([]SourceGroup, error)
}

// Initializer opens a capture session on a source group.
type Initializer interface {
	Initialize(ctx context.Context, settings InitSettings) (Session, error)
}

type Session interface {
	ID() string
	CreateFrameReader(ctx context.Context, sourceID string) (FrameReader, error)
	Close() error
}

// FrameReader delivers frames asynchronously. The handler is called once per
// arriving frame and should fetch it with TryAcquireLatestFrame; frames that
// were never acquired are replaced by newer ones.
type FrameReader interface {
	OnFrameArrived(handler func(FrameReader))
	TryAcquireLatestFrame() *model.FrameReference
	Start(ctx context.Context) error
	Stop()
}

// Backend is what a concrete camera implementation provides.
type Backend interface {
	Enumerator
	Initializer
}

package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BrunoKrugel/irpreview/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSelectInfrared(t *testing.T) {
	groups := []SourceGroup{
		{ID: "front", SourceInfos: []SourceInfo{{ID: "front/0", Kind: Color}}},
		{ID: "hello", SourceInfos: []SourceInfo{{ID: "hello/0", Kind: Color}, {ID: "hello/1", Kind: Infrared}}},
		{ID: "other", SourceInfos: []SourceInfo{{ID: "other/0", Kind: Infrared}}},
	}

	g, ok := SelectInfrared(groups)
	require.True(t, ok)
	assert.Equal(t, "hello", g.ID)

	_, ok = SelectInfrared(groups[:1])
	assert.False(t, ok)

	_, ok = SelectInfrared(nil)
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("IR")
	require.NoError(t, err)
	assert.Equal(t, Infrared, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, Custom, k)

	_, err = ParseKind("thermal-ish")
	assert.Error(t, err)
}

func TestLocksExclusive(t *testing.T) {
	locks := NewLocks()

	release, err := locks.Acquire("ir", SharingExclusive)
	require.NoError(t, err)

	_, err = locks.Acquire("ir", SharingExclusive)
	assert.ErrorIs(t, err, ErrGroupInUse)
	_, err = locks.Acquire("ir", SharingShared)
	assert.ErrorIs(t, err, ErrGroupInUse)

	release()
	release()

	releaseShared, err := locks.Acquire("ir", SharingShared)
	require.NoError(t, err)
	_, err = locks.Acquire("ir", SharingExclusive)
	assert.ErrorIs(t, err, ErrGroupInUse)
	releaseShared()

	_, err = locks.Acquire("ir", SharingExclusive)
	assert.NoError(t, err)
}

func TestCheckSettings(t *testing.T) {
	group := SourceGroup{ID: "g", SourceInfos: []SourceInfo{{ID: "g/0", Kind: Infrared}}}

	assert.NoError(t, CheckSettings(InitSettings{SourceGroup: group, StreamingMode: StreamingVideo, MemoryPreference: MemoryCPU}))
	assert.ErrorIs(t, CheckSettings(InitSettings{SourceGroup: group, StreamingMode: StreamingAudioAndVideo}), ErrUnsupported)
	assert.ErrorIs(t, CheckSettings(InitSettings{SourceGroup: SourceGroup{ID: "empty"}, StreamingMode: StreamingVideo}), ErrUnknownGroup)
}

func TestPollingReaderKeepsOnlyLatest(t *testing.T) {
	r := NewPollingReader("ir/0", 1, nil, discard)

	var calls atomic.Int32
	r.OnFrameArrived(func(FrameReader) { calls.Add(1) })

	first := model.NewBitmap(1, 1, model.Gray8, model.Ignore)
	second := model.NewBitmap(1, 1, model.Gray8, model.Ignore)
	r.Publish(first)
	r.Publish(second)

	ref := r.TryAcquireLatestFrame()
	require.NotNil(t, ref)
	assert.Same(t, second, ref.Bitmap())
	assert.Equal(t, uint64(2), ref.Sequence)
	assert.Equal(t, "ir/0", ref.SourceID)
	assert.EqualValues(t, 2, calls.Load())

	assert.Nil(t, r.TryAcquireLatestFrame())
}

func TestPollingReaderPolls(t *testing.T) {
	grabbed := make(chan struct{}, 16)
	grab := func(ctx context.Context) (*model.Bitmap, error) {
		select {
		case grabbed <- struct{}{}:
		default:
		}
		return model.NewBitmap(1, 1, model.Gray8, model.Ignore), nil
	}
	r := NewPollingReader("ir/0", 100, grab, discard)

	arrived := make(chan *model.FrameReference, 16)
	r.OnFrameArrived(func(fr FrameReader) {
		if ref := fr.TryAcquireLatestFrame(); ref != nil {
			select {
			case arrived <- ref:
			default:
			}
		}
	})

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrReaderStarted)

	select {
	case ref := <-arrived:
		assert.NotNil(t, ref.Bitmap())
	case <-time.After(2 * time.Second):
		t.Fatal("no frame arrived")
	}

	r.Stop()
	r.Stop()
}

func TestPollingReaderSkipsErrors(t *testing.T) {
	var n atomic.Int32
	grab := func(ctx context.Context) (*model.Bitmap, error) {
		if n.Add(1) == 1 {
			return nil, errors.New("camera offline")
		}
		return nil, nil
	}
	r := NewPollingReader("ir/0", 200, grab, discard)

	var calls atomic.Int32
	r.OnFrameArrived(func(FrameReader) { calls.Add(1) })
	require.NoError(t, r.Start(context.Background()))
	assert.Eventually(t, func() bool { return n.Load() > 2 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()

	assert.Zero(t, calls.Load())
}

func TestBasicSession(t *testing.T) {
	group := SourceGroup{ID: "g", SourceInfos: []SourceInfo{{ID: "g/0", Kind: Infrared}}}
	var released atomic.Bool
	var created []*PollingReader
	session := NewBasicSession(group, func(ctx context.Context, info SourceInfo) (FrameReader, error) {
		r := NewPollingReader(info.ID, 10, func(context.Context) (*model.Bitmap, error) { return nil, nil }, discard)
		created = append(created, r)
		return r, nil
	}, func() { released.Store(true) })

	assert.NotEmpty(t, session.ID())

	_, err := session.CreateFrameReader(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownSource)

	reader, err := session.CreateFrameReader(context.Background(), "g/0")
	require.NoError(t, err)
	require.NoError(t, reader.Start(context.Background()))

	require.NoError(t, session.Close())
	assert.True(t, released.Load())
	assert.Len(t, created, 1)

	_, err = session.CreateFrameReader(context.Background(), "g/0")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.NoError(t, session.Close())
}

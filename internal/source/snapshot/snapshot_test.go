package snapshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BrunoKrugel/irpreview/internal/client"
	"github.com/BrunoKrugel/irpreview/internal/config"
	"github.com/BrunoKrugel/irpreview/internal/model"
	"github.com/BrunoKrugel/irpreview/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func grayJPEG(t *testing.T) []byte {
	img := image.NewGray(image.Rect(0, 0, 16, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func settingsFor(g source.SourceGroup) source.InitSettings {
	return source.InitSettings{
		SourceGroup:      g,
		SharingMode:      source.SharingExclusive,
		MemoryPreference: source.MemoryCPU,
		StreamingMode:    source.StreamingVideo,
	}
}

func TestGroupsFromConfig(t *testing.T) {
	b, err := New([]config.Camera{
		{Name: "door", Kind: "color", URL: "http://x/door.jpg"},
		{Name: "yard", Kind: "ir", URL: "http://x/yard.jpg"},
	}, nil, 10, discard)
	require.NoError(t, err)

	groups, err := b.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	g, ok := source.SelectInfrared(groups)
	require.True(t, ok)
	assert.Equal(t, "yard", g.ID)
	assert.Equal(t, "yard/0", g.SourceInfos[0].ID)

	_, err = New([]config.Camera{{Name: "bad", Kind: "sonar"}}, nil, 10, discard)
	assert.Error(t, err)
}

func TestStreamsDecodedFrames(t *testing.T) {
	frame := grayJPEG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(frame)
	}))
	defer srv.Close()

	b, err := New([]config.Camera{{Name: "ir", Kind: "infrared", URL: srv.URL}}, client.NewRestyClient(&config.Config{}), 50, discard)
	require.NoError(t, err)
	groups, _ := b.FindAll(context.Background())

	session, err := b.Initialize(context.Background(), settingsFor(groups[0]))
	require.NoError(t, err)
	defer session.Close()

	reader, err := session.CreateFrameReader(context.Background(), "ir/0")
	require.NoError(t, err)

	arrived := make(chan *model.FrameReference, 1)
	reader.OnFrameArrived(func(r source.FrameReader) {
		select {
		case arrived <- r.TryAcquireLatestFrame():
		default:
		}
	})
	require.NoError(t, reader.Start(context.Background()))

	select {
	case ref := <-arrived:
		b := ref.Bitmap()
		require.NotNil(t, b)
		assert.Equal(t, model.Gray8, b.Format)
		assert.Equal(t, 16, b.Width)
		assert.Equal(t, 8, b.Height)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame arrived")
	}
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) GetSnapshot(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func TestInitializeFailsWhenCameraUnreachable(t *testing.T) {
	down := fetchFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	b, err := New([]config.Camera{{Name: "ir", Kind: "infrared", URL: "http://x"}}, down, 10, discard)
	require.NoError(t, err)
	groups, _ := b.FindAll(context.Background())

	_, err = b.Initialize(context.Background(), settingsFor(groups[0]))
	assert.ErrorContains(t, err, "connection refused")
}

func TestInitializeRejectsTruncatedJPEG(t *testing.T) {
	truncated := fetchFunc(func(context.Context, string) ([]byte, error) {
		return []byte{0xFF, 0xD8, 0x00, 0x00}, nil
	})
	b, err := New([]config.Camera{{Name: "ir", Kind: "infrared", URL: "http://x"}}, truncated, 10, discard)
	require.NoError(t, err)
	groups, _ := b.FindAll(context.Background())

	_, err = b.Initialize(context.Background(), settingsFor(groups[0]))
	assert.Error(t, err)
}

func TestInitializeColorImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 4; i++ {
		img.Set(i, i, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	ok := fetchFunc(func(context.Context, string) ([]byte, error) { return buf.Bytes(), nil })
	b, err := New([]config.Camera{{Name: "ir", Kind: "infrared", URL: "http://x"}}, ok, 10, discard)
	require.NoError(t, err)

	bitmap, err := b.grab(context.Background(), "http://x")
	require.NoError(t, err)
	assert.Equal(t, model.RGBA8, bitmap.Format)
	assert.Equal(t, model.Premultiplied, bitmap.Alpha)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10, cfg.Server.FPS)
	assert.Equal(t, 30, cfg.Source.FetchFPS)
	assert.Equal(t, "synthetic", cfg.Source.Backend)

	w, h, err := cfg.Source.Size()
	require.NoError(t, err)
	assert.Equal(t, 160, w)
	assert.Equal(t, 120, h)
}

func TestSnapshotCameras(t *testing.T) {
	t.Setenv("SOURCE", "snapshot")
	t.Setenv("SNAPSHOT_URLS", "front=color=http://cam/a.jpg,ir=infrared=http://cam/ir.jpg?x=1")

	cfg, err := NewConfig()
	require.NoError(t, err)

	cameras, err := cfg.Source.Cameras()
	require.NoError(t, err)
	assert.Equal(t, []Camera{
		{Name: "front", Kind: "color", URL: "http://cam/a.jpg"},
		{Name: "ir", Kind: "infrared", URL: "http://cam/ir.jpg?x=1"},
	}, cameras)
}

func TestOpenCVDevices(t *testing.T) {
	t.Setenv("OPENCV_DEVICES", "0=color, 2=infrared")

	cfg, err := NewConfig()
	require.NoError(t, err)

	devices, err := cfg.Source.Devices()
	require.NoError(t, err)
	assert.Equal(t, []Device{{Index: 0, Kind: "color"}, {Index: 2, Kind: "infrared"}}, devices)
}

func TestInvalidConfig(t *testing.T) {
	tests := map[string][2]string{
		"unknown source":  {"SOURCE", "webcam"},
		"zero fps":        {"FPS", "0"},
		"bad quality":     {"JPEG_QUALITY", "101"},
		"bad size":        {"SYNTHETIC_SIZE", "160"},
		"bad camera":      {"SNAPSHOT_URLS", "ir=infrared"},
		"bad device":      {"OPENCV_DEVICES", "x=infrared"},
		"zero fetch rate": {"FETCH_FPS", "0"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

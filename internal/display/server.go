package display

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type Server struct {
	surface *Surface
	fps     int
	stats   func() any
	logger  *slog.Logger
}

// NewServer serves surface over HTTP. stats, if set, is reported on /stats.
func NewServer(surface *Surface, fps int, stats func() any, logger *slog.Logger) *Server {
	return &Server{
		surface: surface,
		fps:     fps,
		stats:   stats,
		logger:  logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.stream)
	mux.HandleFunc("/snapshot", s.snapshot)
	mux.HandleFunc("/stats", s.statsHandler)
	return mux
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	frame := s.surface.Current()
	if frame == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame.Data)))
	w.Write(frame.Data)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	var body any = struct{}{}
	if s.stats != nil {
		body = s.stats()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write stats failed", "error", err)
	}
}

// stream writes the surface as MJPEG. A frame is only written when the
// surface changed, and never faster than the configured FPS.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// MJPEG headers
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	frameInterval := time.Second / time.Duration(s.fps)
	ctx := r.Context()

	// Pre-allocate buffer for frame header to avoid repeated allocations
	headerBuf := make([]byte, 0, 128)
	var lastSeq uint64
	var lastWrite time.Time

	for {
		changed := s.surface.Changed()
		frame := s.surface.Current()

		if frame != nil && (lastWrite.IsZero() || frame.Sequence != lastSeq) {
			headerBuf = headerBuf[:0]
			headerBuf = append(headerBuf, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: "...)
			headerBuf = strconv.AppendInt(headerBuf, int64(len(frame.Data)), 10)
			headerBuf = append(headerBuf, "\r\n\r\n"...)

			if _, err := w.Write(headerBuf); err != nil {
				s.logger.Debug("write header error", "error", err)
				return
			}
			if _, err := w.Write(frame.Data); err != nil {
				s.logger.Debug("write body error", "error", err)
				return
			}
			if _, err := w.Write([]byte("\r\n")); err != nil {
				s.logger.Debug("write separator error", "error", err)
				return
			}
			flusher.Flush()

			lastSeq = frame.Sequence
			lastWrite = time.Now()
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("client disconnected", "path", r.URL.Path)
			return
		case <-changed:
		}

		if wait := frameInterval - time.Since(lastWrite); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

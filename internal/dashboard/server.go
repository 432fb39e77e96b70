package dashboard

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dj-oyu/vision-dash/internal/feed"
	"github.com/dj-oyu/vision-dash/internal/history"
	"github.com/dj-oyu/vision-dash/internal/logger"
	"github.com/dj-oyu/vision-dash/internal/metrics"
	"github.com/dj-oyu/vision-dash/internal/sortview"
)

// Server serves the dashboard UI and its JSON API.
type Server struct {
	cfg       Config
	metrics   *metrics.Metrics
	stream    *feed.Manager
	dashboard *Dashboard
	live      *LiveBroadcaster
	observer  int
}

// NewServer wires the upstream feed, history log and dashboard state.
func NewServer(cfg Config, m *metrics.Metrics) *Server {
	cfg = cfg.withDefaults()
	if m == nil {
		m = metrics.New()
	}

	stream := feed.NewManager(feed.Options{
		BaseURL: cfg.APIBase,
		Strict:  cfg.StrictPayload,
		Metrics: m,
	})
	live := NewLiveBroadcaster(m)
	dash := New(CameraNames(cfg.CameraCount), stream, history.New(cfg.HistoryCapacity), m, live)

	return &Server{
		cfg:       cfg,
		metrics:   m,
		stream:    stream,
		dashboard: dash,
		live:      live,
		observer:  stream.Subscribe(dash),
	}
}

// Dashboard exposes the view state controller.
func (s *Server) Dashboard() *Dashboard {
	return s.dashboard
}

// Close stops the upstream session.
func (s *Server) Close() {
	s.stream.Unsubscribe(s.observer)
	s.stream.Stop()
}

// Handler exposes the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", newAssetHandler(s.cfg.AssetsDir)))
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.metrics.Handler())

	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/cameras", s.handleCameras)
	mux.HandleFunc("/api/live/stream", s.handleLiveStream)
	mux.HandleFunc("/api/live/ws", s.handleLiveSocket)
	mux.HandleFunc("/api/live/frame.jpg", s.handleLiveFrame)
	mux.HandleFunc("/api/stream/start", s.handleStreamStart)
	mux.HandleFunc("/api/stream/stop", s.handleStreamStop)
	mux.HandleFunc("/api/camera", s.handleCamera)
	mux.HandleFunc("/api/tab", s.handleTab)
	mux.HandleFunc("/api/sidebar/toggle", s.handleSidebarToggle)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/sort", s.handleHistorySort)
	mux.HandleFunc("GET /api/history/{id}/thumbnail.jpg", s.handleThumbnail)

	return logRequests(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"streaming": s.stream.Open(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.dashboard.Snapshot())
}

func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	st := s.dashboard.Snapshot()
	writeJSON(w, map[string]any{
		"cameras":  st.Cameras,
		"selected": st.Camera,
	})
}

func (s *Server) handleLiveStream(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	useProtobuf := strings.Contains(accept, "application/protobuf") ||
		strings.Contains(accept, "application/x-protobuf")

	id, eventCh := s.live.Subscribe()
	defer s.live.Unsubscribe(id)

	first, err := SerializeLiveEvent(s.dashboard.liveEvent())
	if err != nil {
		http.Error(w, "Failed to encode state", http.StatusInternalServerError)
		return
	}
	streamLiveEvents(r.Context(), w, first, eventCh, useProtobuf, s.cfg.KeepaliveInterval)
}

func (s *Server) handleLiveFrame(w http.ResponseWriter, r *http.Request) {
	var frame []byte
	if p, ok := s.dashboard.Current(); ok && p.Img != "" {
		data, err := decodeJPEG(p.Img)
		if err != nil {
			logger.Warn("HTTP", "Current image: %v", err)
		} else {
			frame = data
		}
	}
	if frame == nil {
		placeholder, err := placeholderJPEG(640, 480)
		if err != nil {
			http.Error(w, "Failed to render frame", http.StatusInternalServerError)
			return
		}
		frame = placeholder
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(frame)
}

func (s *Server) handleStreamStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.dashboard.Start(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.dashboard.Snapshot())
}

func (s *Server) handleStreamStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.dashboard.Stop()
	writeJSON(w, s.dashboard.Snapshot())
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Camera string `json:"camera"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONWithStatus(w, map[string]any{"error": "Invalid camera request"}, http.StatusBadRequest)
		return
	}
	if err := s.dashboard.SelectCamera(req.Camera); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.dashboard.Snapshot())
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Tab string `json:"tab"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONWithStatus(w, map[string]any{"error": "Invalid tab request"}, http.StatusBadRequest)
		return
	}
	if err := s.dashboard.SetTab(Tab(req.Tab)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.dashboard.Snapshot())
}

func (s *Server) handleSidebarToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"sidebar_open": s.dashboard.ToggleSidebar()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("sort") && !q.Has("dir") {
		writeJSON(w, s.dashboard.Rows())
		return
	}

	// Explicit projection; the dashboard's own sort state is left alone.
	st := s.dashboard.Rows().Sort
	if q.Has("sort") {
		// An unrecognized key leaves the rows in log order.
		key, ok := sortview.ParseKey(q.Get("sort"))
		if !ok {
			key = sortview.Key(q.Get("sort"))
		}
		st.Key = key
	}
	if q.Has("dir") {
		dir, ok := sortview.ParseDir(q.Get("dir"))
		if !ok {
			writeJSONWithStatus(w, map[string]any{"error": "dir must be asc or desc"}, http.StatusBadRequest)
			return
		}
		st.Dir = dir
	}
	writeJSON(w, HistoryPage{
		Sort: st,
		Rows: sortview.Project(s.dashboard.history.Records(), st.Key, st.Dir),
	})
}

func (s *Server) handleHistorySort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONWithStatus(w, map[string]any{"error": "Invalid sort request"}, http.StatusBadRequest)
		return
	}
	if _, err := s.dashboard.SortBy(req.Key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.dashboard.Rows())
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.dashboard.Record(r.PathValue("id"))
	if !ok {
		writeJSONWithStatus(w, map[string]any{"error": "record not found"}, http.StatusNotFound)
		return
	}
	if rec.Img == "" {
		writeJSONWithStatus(w, map[string]any{"error": "record has no image"}, http.StatusNotFound)
		return
	}

	src, err := decodeJPEG(rec.Img)
	if err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusUnprocessableEntity)
		return
	}
	thumb, err := thumbnailJPEG(src, s.cfg.ThumbnailWidth, s.cfg.ThumbnailHeight)
	if err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "max-age=3600")
	_, _ = w.Write(thumb)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotLive),
		errors.Is(err, ErrUnknownCamera),
		errors.Is(err, ErrUnknownTab),
		errors.Is(err, ErrUnknownSortKey):
		status = http.StatusBadRequest
	}
	writeJSONWithStatus(w, map[string]any{"error": err.Error()}, status)
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":"%s"}`, err.Error())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("connection does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP", "%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

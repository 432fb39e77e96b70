package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dj-oyu/vision-dash/internal/logger"
	"github.com/dj-oyu/vision-dash/internal/metrics"
	"github.com/dj-oyu/vision-dash/pkg/types"
)

// Observer receives the output of the open session.
// Callbacks run on the session's reader goroutine, one at a time, and must
// not call Start or Stop synchronously.
type Observer interface {
	OnPrediction(p types.Prediction)
	OnError(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Prediction func(types.Prediction)
	Error      func(error)
}

func (o ObserverFuncs) OnPrediction(p types.Prediction) {
	if o.Prediction != nil {
		o.Prediction(p)
	}
}

func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

// Options configures a Manager.
type Options struct {
	BaseURL string
	Client  *http.Client // nil uses a client without timeouts
	Strict  bool         // reject non-integer counts instead of coercing
	Metrics *metrics.Metrics
}

// Status describes the session state machine.
type Status struct {
	Open     bool      `json:"open"`
	Camera   string    `json:"camera,omitempty"`
	URL      string    `json:"url,omitempty"`
	OpenedAt time.Time `json:"opened_at,omitzero"`
}

type session struct {
	id       uint64
	camera   string
	url      string
	openedAt time.Time
	cancel   context.CancelFunc
}

// Manager owns the single subscription to the upstream prediction feed.
// States are Closed and Open; Start opens, Stop or a transport failure
// closes. There is no automatic reconnect.
type Manager struct {
	baseURL string
	client  *http.Client
	strict  bool
	metrics *metrics.Metrics

	// deliverMu serializes observer callbacks with Stop, so nothing from a
	// stopped session is delivered once Stop has returned.
	deliverMu sync.Mutex

	mu        sync.Mutex
	current   *session
	nextID    uint64
	observers map[int]Observer
	nextObs   int
}

// NewManager returns a closed Manager.
func NewManager(opts Options) *Manager {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Manager{
		baseURL:   opts.BaseURL,
		client:    client,
		strict:    opts.Strict,
		metrics:   m,
		observers: make(map[int]Observer),
	}
}

// StreamURL returns the feed endpoint for camera. An empty camera selects
// the producer's default.
func StreamURL(base, camera string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q: scheme must be http or https", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/stream"
	u.RawPath = ""
	q := u.Query()
	if camera != "" {
		q.Set("camera", camera)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe registers an observer and returns its id.
func (m *Manager) Subscribe(o Observer) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextObs
	m.nextObs++
	m.observers[id] = o
	return id
}

// Unsubscribe removes an observer.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.observers, id)
}

// Start opens a session for camera. It returns false, doing nothing, when
// a session is already open. Connecting happens in the background; a
// failure is reported to observers as a TransportError.
func (m *Manager) Start(camera string) bool {
	m.mu.Lock()
	if m.current != nil {
		id := m.current.id
		m.mu.Unlock()
		logger.Debug("Feed", "Start ignored, session #%d already open", id)
		return false
	}

	target, err := StreamURL(m.baseURL, camera)
	ctx, cancel := context.WithCancel(context.Background())
	m.nextID++
	s := &session{
		id:       m.nextID,
		camera:   camera,
		url:      target,
		openedAt: time.Now(),
		cancel:   cancel,
	}
	m.current = s
	m.metrics.SessionsOpened.Add(1)
	m.metrics.SetStreamActive(true)
	m.mu.Unlock()

	if err != nil {
		go m.fail(s, err)
		return true
	}

	logger.Info("Feed", "Session #%d opening %s", s.id, target)
	go m.run(ctx, s)
	return true
}

// Stop closes the open session, if any.
func (m *Manager) Stop() {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	if s := m.detach(nil); s != nil {
		s.cancel()
		logger.Info("Feed", "Session #%d stopped", s.id)
	}
}

// Open reports whether a session is open.
func (m *Manager) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Status returns the current session state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Status{}
	}
	return Status{
		Open:     true,
		Camera:   m.current.camera,
		URL:      m.current.url,
		OpenedAt: m.current.openedAt,
	}
}

// detach clears the current session if it is want (or any session when
// want is nil) and returns what was cleared.
func (m *Manager) detach(want *session) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.current
	if s == nil || (want != nil && s != want) {
		return nil
	}
	m.current = nil
	m.metrics.SessionsClosed.Add(1)
	m.metrics.SetStreamActive(false)
	return s
}

func (m *Manager) run(ctx context.Context, s *session) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		m.fail(s, err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := m.client.Do(req)
	if err != nil {
		m.fail(s, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.fail(s, fmt.Errorf("unexpected status %s", resp.Status))
		return
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		m.fail(s, fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type")))
		return
	}

	logger.Debug("Feed", "Session #%d connected", s.id)

	events := newEventReader(resp.Body)
	for {
		ev, err := events.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrStreamClosed
			}
			m.fail(s, err)
			return
		}
		if !ev.isMessage() {
			continue
		}
		m.dispatch(s, ev.Data)
	}
}

// dispatch decodes one payload and hands it to observers, if s is still
// the open session.
func (m *Manager) dispatch(s *session, data []byte) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	if !m.isCurrent(s) {
		return
	}

	p, err := DecodePrediction(data, m.strict)
	if err != nil {
		m.metrics.ParseErrors.Add(1)
		logger.Warn("Feed", "Session #%d: %v", s.id, err)
		for _, o := range m.snapshotObservers() {
			o.OnError(err)
		}
		return
	}

	m.metrics.PredictionsReceived.Add(1)
	for _, o := range m.snapshotObservers() {
		o.OnPrediction(p)
	}
}

// fail tears s down after a transport failure and notifies observers.
// It does nothing if s was already stopped.
func (m *Manager) fail(s *session, cause error) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	if m.detach(s) == nil {
		return
	}
	s.cancel()

	m.metrics.TransportErrors.Add(1)
	err := &TransportError{URL: s.url, Err: cause}
	logger.Warn("Feed", "Session #%d closed: %v", s.id, err)
	for _, o := range m.snapshotObservers() {
		o.OnError(err)
	}
}

func (m *Manager) isCurrent(s *session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current == s
}

func (m *Manager) snapshotObservers() []Observer {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Observer, 0, len(m.observers))
	for _, id := range slices.Sorted(maps.Keys(m.observers)) {
		out = append(out, m.observers[id])
	}
	return out
}

package dashboard

import (
	"errors"
	"slices"
	"sync"

	"github.com/dj-oyu/vision-dash/internal/feed"
	"github.com/dj-oyu/vision-dash/internal/history"
	"github.com/dj-oyu/vision-dash/internal/logger"
	"github.com/dj-oyu/vision-dash/internal/metrics"
	"github.com/dj-oyu/vision-dash/internal/sortview"
	"github.com/dj-oyu/vision-dash/pkg/types"
)

var (
	// ErrNotLive is returned by Start when the database tab is active.
	ErrNotLive = errors.New("stream can only be started from the live tab")
	// ErrUnknownCamera is returned when selecting a camera not in the sidebar.
	ErrUnknownCamera = errors.New("unknown camera")
	// ErrUnknownTab is returned for a tab other than live or database.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrUnknownSortKey is returned when toggling a column that is not sortable.
	ErrUnknownSortKey = errors.New("unknown sort key")
)

var _ feed.Observer = (*Dashboard)(nil)

// Streamer is the upstream session the dashboard drives.
type Streamer interface {
	Start(camera string) bool
	Stop()
	Open() bool
}

// Dashboard holds the view state and reacts to the upstream feed.
// It implements feed.Observer.
type Dashboard struct {
	stream  Streamer
	history *history.Log
	metrics *metrics.Metrics
	live    *LiveBroadcaster

	// transMu orders view transitions together with their stream effects.
	// Feed callbacks never take it.
	transMu sync.Mutex

	mu          sync.Mutex
	cameras     []string
	camera      string
	tab         Tab
	sidebarOpen bool
	sort        sortview.State
	current     *types.Prediction
	lastError   string
}

// New returns a dashboard on the live tab with the first camera selected.
// live may be nil when no browser fan-out is needed.
func New(cameras []string, stream Streamer, log *history.Log, m *metrics.Metrics, live *LiveBroadcaster) *Dashboard {
	if len(cameras) == 0 {
		cameras = CameraNames(DefaultConfig().CameraCount)
	}
	if m == nil {
		m = metrics.New()
	}
	return &Dashboard{
		stream:      stream,
		history:     log,
		metrics:     m,
		live:        live,
		cameras:     slices.Clone(cameras),
		camera:      cameras[0],
		tab:         TabLive,
		sidebarOpen: true,
		sort:        sortview.DefaultState(),
	}
}

// viewContext is the part of the view state the stream depends on.
type viewContext struct {
	camera string
	tab    Tab
}

type effect struct {
	stop  bool
	start bool
}

// reconcile decides what the stream must do after the view moved from prev
// to next. Leaving the live tab stops the stream; switching camera while
// streaming restarts it on the new camera.
func reconcile(prev, next viewContext, running bool) effect {
	if !running {
		return effect{}
	}
	if next.tab != TabLive {
		return effect{stop: true}
	}
	if next.camera != prev.camera {
		return effect{stop: true, start: true}
	}
	return effect{}
}

// transition applies mutate under the state lock, then runs the stream
// effect outside it. Transitions run one at a time.
func (d *Dashboard) transition(mutate func() error) error {
	d.transMu.Lock()
	defer d.transMu.Unlock()

	d.mu.Lock()
	prev := viewContext{camera: d.camera, tab: d.tab}
	if err := mutate(); err != nil {
		d.mu.Unlock()
		return err
	}
	next := viewContext{camera: d.camera, tab: d.tab}
	d.mu.Unlock()

	e := reconcile(prev, next, d.stream.Open())
	if e.stop {
		logger.Debug("Dashboard", "Stopping stream (tab=%s camera=%s)", next.tab, next.camera)
		d.stream.Stop()
	}
	if e.start {
		logger.Info("Dashboard", "Restarting stream on %s", next.camera)
		d.stream.Start(next.camera)
	}
	d.publish()
	return nil
}

// Start opens the stream on the selected camera.
func (d *Dashboard) Start() error {
	d.transMu.Lock()
	defer d.transMu.Unlock()

	d.mu.Lock()
	tab, camera := d.tab, d.camera
	d.mu.Unlock()

	if tab != TabLive {
		return ErrNotLive
	}
	if d.stream.Start(camera) {
		logger.Info("Dashboard", "Stream started on %s", camera)
	}
	d.publish()
	return nil
}

// Stop closes the stream.
func (d *Dashboard) Stop() {
	d.transMu.Lock()
	defer d.transMu.Unlock()

	d.stream.Stop()
	d.publish()
}

// SelectCamera changes the selected camera.
func (d *Dashboard) SelectCamera(name string) error {
	return d.transition(func() error {
		if !slices.Contains(d.cameras, name) {
			return ErrUnknownCamera
		}
		d.camera = name
		return nil
	})
}

// SetTab switches the active view.
func (d *Dashboard) SetTab(tab Tab) error {
	return d.transition(func() error {
		if tab != TabLive && tab != TabDatabase {
			return ErrUnknownTab
		}
		d.tab = tab
		return nil
	})
}

// ToggleSidebar flips the camera sidebar and returns whether it is open.
func (d *Dashboard) ToggleSidebar() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sidebarOpen = !d.sidebarOpen
	return d.sidebarOpen
}

// SortBy selects a history column; selecting the active column flips the direction.
func (d *Dashboard) SortBy(name string) (sortview.State, error) {
	key, ok := sortview.ParseKey(name)
	if !ok {
		return sortview.State{}, ErrUnknownSortKey
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sort = d.sort.Toggle(key)
	return d.sort, nil
}

// Rows projects the history under the active sort state.
func (d *Dashboard) Rows() HistoryPage {
	d.mu.Lock()
	s := d.sort
	d.mu.Unlock()
	return HistoryPage{Sort: s, Rows: sortview.Project(d.history.Records(), s.Key, s.Dir)}
}

// Current returns the latest prediction, if any.
func (d *Dashboard) Current() (types.Prediction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return types.Prediction{}, false
	}
	return *d.current, true
}

// Record looks up a history record by id.
func (d *Dashboard) Record(id string) (types.HistoryRecord, bool) {
	return d.history.Get(id)
}

// Snapshot returns the full view state.
func (d *Dashboard) Snapshot() State {
	running := d.stream.Open()

	d.mu.Lock()
	defer d.mu.Unlock()

	st := State{
		Running:       running,
		Camera:        d.camera,
		Cameras:       slices.Clone(d.cameras),
		Tab:           d.tab,
		SidebarOpen:   d.sidebarOpen,
		Sort:          d.sort,
		Error:         d.lastError,
		HistoryLength: d.history.Len(),
	}
	if d.current != nil {
		p := *d.current
		st.Prediction = &p
		st.ImageSrc = sortview.ImageSource(p.Img)
	}
	return st
}

// OnPrediction records p as the current prediction and appends it to the history.
func (d *Dashboard) OnPrediction(p types.Prediction) {
	d.mu.Lock()
	d.history.Append(p)
	d.current = &p
	d.lastError = ""
	d.mu.Unlock()

	d.metrics.HistoryLength.Store(uint64(d.history.Len()))
	d.publish()
}

// OnError shows a message for a failed event or a lost stream.
func (d *Dashboard) OnError(err error) {
	msg := msgStreamError
	if feed.IsParseError(err) {
		msg = msgBadPayload
	}

	d.mu.Lock()
	d.lastError = msg
	d.mu.Unlock()

	d.publish()
}

func (d *Dashboard) liveEvent() LiveEvent {
	st := d.Snapshot()
	return LiveEvent{
		Running:       st.Running,
		Camera:        st.Camera,
		Tab:           st.Tab,
		Error:         st.Error,
		Prediction:    st.Prediction,
		HistoryLength: st.HistoryLength,
	}
}

func (d *Dashboard) publish() {
	if d.live == nil {
		return
	}
	d.live.Publish(d.liveEvent())
}

package dashboard

import (
	"github.com/dj-oyu/vision-dash/internal/sortview"
	"github.com/dj-oyu/vision-dash/pkg/types"
)

// Tab is the active dashboard view.
type Tab string

const (
	TabLive     Tab = "live"
	TabDatabase Tab = "database"
)

// User-visible error messages.
const (
	msgBadPayload  = "Bad event payload"
	msgStreamError = "Stream error"
)

// State is the JSON view state served on /api/state.
type State struct {
	Running       bool              `json:"running"`
	Camera        string            `json:"camera"`
	Cameras       []string          `json:"cameras"`
	Tab           Tab               `json:"tab"`
	SidebarOpen   bool              `json:"sidebar_open"`
	Sort          sortview.State    `json:"sort"`
	Error         string            `json:"error,omitempty"`
	Prediction    *types.Prediction `json:"prediction"`
	ImageSrc      string            `json:"image_src"`
	HistoryLength int               `json:"history_length"`
}

// LiveEvent is the payload pushed to browsers on /api/live/stream.
type LiveEvent struct {
	Running       bool              `json:"running"`
	Camera        string            `json:"camera"`
	Tab           Tab               `json:"tab"`
	Error         string            `json:"error,omitempty"`
	Prediction    *types.Prediction `json:"prediction"`
	HistoryLength int               `json:"history_length"`
}

// HistoryPage is the payload of /api/history.
type HistoryPage struct {
	Sort sortview.State `json:"sort"`
	Rows []sortview.Row `json:"rows"`
}

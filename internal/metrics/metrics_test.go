package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.PredictionsReceived.Add(3)
	m.ParseErrors.Add(1)
	m.HistoryLength.Store(3)
	m.SetStreamActive(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	text := string(body)
	for _, want := range []string{
		"visiondash_predictions_received_total 3",
		"visiondash_parse_errors_total 1",
		"visiondash_history_length 3",
		"visiondash_stream_active 1",
		"visiondash_transport_errors_total 0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSetStreamActive(t *testing.T) {
	m := New()
	m.SetStreamActive(true)
	m.SetStreamActive(false)
	if got := m.StreamActive.Load(); got != 0 {
		t.Fatalf("StreamActive = %d, want 0", got)
	}
}

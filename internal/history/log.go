package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dj-oyu/vision-dash/pkg/types"
)

// DefaultCapacity is the number of records kept when no capacity is given.
const DefaultCapacity = 500

// Log is a bounded, newest-first record of received predictions.
// It is append-only apart from evicting the oldest record past capacity.
type Log struct {
	mu       sync.RWMutex
	records  []types.HistoryRecord
	capacity int

	newID func() string
	now   func() time.Time
}

// New returns an empty log holding at most capacity records.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		records:  make([]types.HistoryRecord, 0, capacity),
		capacity: capacity,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Append stores p at the head of the log and returns the stored record.
func (l *Log) Append(p types.Prediction) types.HistoryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := types.HistoryRecord{
		Prediction: p,
		ID:         l.newID(),
		ReceivedAt: l.now(),
	}

	l.records = append([]types.HistoryRecord{record}, l.records...)
	if len(l.records) > l.capacity {
		l.records = l.records[:l.capacity]
	}
	return record
}

// Records returns a copy of the log, newest first.
func (l *Log) Records() []types.HistoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.HistoryRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Get looks up a record by id.
func (l *Log) Get(id string) (types.HistoryRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.records {
		if r.ID == id {
			return r, true
		}
	}
	return types.HistoryRecord{}, false
}

// Len returns the number of records held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Capacity returns the maximum number of records held.
func (l *Log) Capacity() int {
	return l.capacity
}

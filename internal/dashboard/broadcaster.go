package dashboard

import (
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/dj-oyu/vision-dash/internal/logger"
	"github.com/dj-oyu/vision-dash/internal/metrics"
)

// SerializedEvent holds one live event in both wire formats.
type SerializedEvent struct {
	JSONData     []byte // JSON
	ProtobufData []byte // Protobuf, base64 encoded for SSE
}

// SerializeLiveEvent encodes ev once for every subscriber.
func SerializeLiveEvent(ev LiveEvent) (*SerializedEvent, error) {
	jsonData, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	pb := marshalLiveEvent(ev)
	pbBase64 := make([]byte, base64.StdEncoding.EncodedLen(len(pb)))
	base64.StdEncoding.Encode(pbBase64, pb)
	return &SerializedEvent{JSONData: jsonData, ProtobufData: pbBase64}, nil
}

// LiveBroadcaster fans live events out to browser SSE clients.
// Slow clients miss events rather than block the feed.
type LiveBroadcaster struct {
	mu      sync.Mutex
	clients map[int]chan *SerializedEvent
	nextID  int
	metrics *metrics.Metrics
}

// NewLiveBroadcaster returns a broadcaster with no clients.
func NewLiveBroadcaster(m *metrics.Metrics) *LiveBroadcaster {
	if m == nil {
		m = metrics.New()
	}
	return &LiveBroadcaster{
		clients: make(map[int]chan *SerializedEvent),
		metrics: m,
	}
}

// Subscribe adds a new client and returns a channel for receiving events.
func (lb *LiveBroadcaster) Subscribe() (int, <-chan *SerializedEvent) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	id := lb.nextID
	lb.nextID++
	ch := make(chan *SerializedEvent, 4)
	lb.clients[id] = ch
	lb.metrics.LiveClients.Add(1)

	logger.Debug("LiveStream", "Client #%d subscribed (total clients: %d)", id, len(lb.clients))
	return id, ch
}

// Unsubscribe removes a client and closes its channel.
func (lb *LiveBroadcaster) Unsubscribe(id int) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if ch, ok := lb.clients[id]; ok {
		close(ch)
		delete(lb.clients, id)
		lb.metrics.LiveClients.Add(-1)
		logger.Debug("LiveStream", "Client #%d unsubscribed (remaining clients: %d)", id, len(lb.clients))
	}
}

// Clients returns the number of subscribed clients.
func (lb *LiveBroadcaster) Clients() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.clients)
}

// Publish serializes ev and offers it to every client.
func (lb *LiveBroadcaster) Publish(ev LiveEvent) {
	lb.mu.Lock()
	n := len(lb.clients)
	lb.mu.Unlock()
	if n == 0 {
		return
	}

	event, err := SerializeLiveEvent(ev)
	if err != nil {
		logger.Error("LiveStream", "Serialize error: %v", err)
		return
	}
	lb.broadcast(event)
}

func (lb *LiveBroadcaster) broadcast(event *SerializedEvent) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	for id, ch := range lb.clients {
		select {
		case ch <- event:
		default:
			logger.Debug("LiveStream", "Client #%d too slow, event dropped", id)
		}
	}
}

package webhook

import "time"

const (
	EventImportCompleted = "import.completed"
	EventProductCreated  = "product.created"
)

type Subscription struct {
	ID      int64
	Name    string
	URL     string
	Event   string
	Enabled bool
}

// Payload is the body posted to subscribers.
type Payload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func NewPayload(event string, data map[string]any, at time.Time) Payload {
	if data == nil {
		data = map[string]any{}
	}
	return Payload{
		Event:     event,
		Timestamp: at.UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// DeliveryLog is one attempt to reach a subscription. StatusCode is 0 when
// no HTTP response was received.
type DeliveryLog struct {
	SubscriptionID int64
	EventType      string
	Payload        Payload
	StatusCode     int
	ResponseText   string
	ResponseTime   time.Duration
	Error          string
}

func (l DeliveryLog) Succeeded() bool {
	return l.Error == "" && l.StatusCode >= 200 && l.StatusCode < 300
}

// DeliveryResult is what came back from one HTTP call.
type DeliveryResult struct {
	StatusCode int
	Body       string
	Latency    time.Duration
}

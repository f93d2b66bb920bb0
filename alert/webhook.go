// Package alert pushes violation events to an optional remote endpoint.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"wastewatch/logger"
)

const requestTimeout = 5 * time.Second

// Event is the JSON body posted per violation.
type Event struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	Class        string  `json:"class"`
	Confidence   float32 `json:"confidence"`
	IsMixed      bool    `json:"is_mixed"`
	SnapshotPath string  `json:"snapshot_path"`
}

// Notifier posts violation events. A nil Notifier is valid and silently
// does nothing, so callers need no "webhook configured" branches.
type Notifier struct {
	client *resty.Client
	url    string
}

// NewNotifier returns nil when url is empty.
func NewNotifier(url string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		client: resty.New().SetTimeout(requestTimeout),
		url:    url,
	}
}

// NewEvent stamps a violation with a fresh id and timestamp.
func NewEvent(class string, conf float32, mixed bool, snapshotPath string, ts time.Time) Event {
	return Event{
		ID:           uuid.NewString(),
		Timestamp:    ts.Format(time.RFC3339),
		Class:        class,
		Confidence:   conf,
		IsMixed:      mixed,
		SnapshotPath: snapshotPath,
	}
}

// Send posts the event. Failures are reported but never fatal to the
// session; a dropped alert must not stop the monitoring loop.
func (n *Notifier) Send(ctx context.Context, ev Event) error {
	if n == nil {
		return nil
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ev).
		Post(n.url)
	if err != nil {
		logger.S().Errorw("alert webhook request failed", "url", n.url, "error", err)
		return fmt.Errorf("post alert: %w", err)
	}
	if resp.IsError() {
		logger.S().Errorw("alert webhook rejected event", "url", n.url, "status", resp.Status())
		return fmt.Errorf("alert endpoint returned %s", resp.Status())
	}
	return nil
}

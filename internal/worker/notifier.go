// internal/worker/notifier.go
package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-client/internal/model"
)

// Displayed is a notification currently on screen.
type Displayed struct {
	ID      string
	Payload model.NotificationPayload
}

// TrackingNotifier is the default Notifier: it keeps the set of displayed
// notifications so click and close events can be correlated, replacing
// same-tag notifications the way the platform does.
type TrackingNotifier struct {
	logger *zap.Logger

	mu        sync.Mutex
	displayed map[string]Displayed
	byTag     map[string]string
}

func NewTrackingNotifier(logger *zap.Logger) *TrackingNotifier {
	return &TrackingNotifier{
		logger:    logger,
		displayed: make(map[string]Displayed),
		byTag:     make(map[string]string),
	}
}

func (n *TrackingNotifier) Show(_ context.Context, payload model.NotificationPayload) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// Same tag replaces the previous notification.
	if prev, ok := n.byTag[payload.Tag]; ok {
		delete(n.displayed, prev)
	}

	id := uuid.New().String()
	n.displayed[id] = Displayed{ID: id, Payload: payload}
	n.byTag[payload.Tag] = id

	n.logger.Info("showing notification",
		zap.String("id", id),
		zap.String("title", payload.Title),
		zap.String("body", payload.Body),
		zap.String("tag", payload.Tag))
	return id, nil
}

func (n *TrackingNotifier) Close(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if d, ok := n.displayed[id]; ok {
		delete(n.displayed, id)
		if n.byTag[d.Payload.Tag] == id {
			delete(n.byTag, d.Payload.Tag)
		}
	}
	return nil
}

// Active lists notifications currently displayed.
func (n *TrackingNotifier) Active() []Displayed {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Displayed, 0, len(n.displayed))
	for _, d := range n.displayed {
		out = append(out, d)
	}
	return out
}

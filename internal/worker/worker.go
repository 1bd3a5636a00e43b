// internal/worker/worker.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"campus-client/internal/metrics"
	"campus-client/internal/model"
)

// State is the worker's lifecycle phase.
type State string

const (
	StateInstalling State = "installing"
	StateActivating State = "activating"
	StateActive     State = "active"
)

// Fallbacks used when a payload is missing fields or fails to decode.
// A push received and never displayed is this subsystem's primary failure
// mode, so every path ends in a displayable payload.
const (
	defaultTitle       = "New Notification"
	decodeFailureTitle = "New Message"
	defaultBody        = "You have a new notification"
	defaultIcon        = "/icons/icon-192x192.png"
	defaultBadge       = "/icons/badge-72x72.png"
	defaultTag         = "notification"
)

var defaultVibration = []int{200, 100, 200}

// Notifier displays OS-level notifications.
type Notifier interface {
	Show(ctx context.Context, payload model.NotificationPayload) (id string, err error)
	Close(ctx context.Context, id string) error
}

// Window is one open client window.
type Window interface {
	ID() string
	URL() string
	Focus(ctx context.Context) error
}

// WindowRegistry enumerates and opens client windows, including ones not
// currently controlled by this worker.
type WindowRegistry interface {
	Windows(ctx context.Context) ([]Window, error)
	Open(ctx context.Context, url string) (Window, error)
	// Claim takes control of every open window immediately, instead of
	// waiting for old pages to close.
	Claim(ctx context.Context) error
}

// Worker is the notification delivery worker. It lives outside any page:
// it receives push payloads, normalizes them, displays notifications and
// routes clicks to a focused or freshly opened window.
type Worker struct {
	notifier Notifier
	windows  WindowRegistry
	logger   *zap.Logger

	mu    sync.Mutex
	state State

	// inflight tracks event work so the host can drain instead of
	// terminating the worker mid-operation.
	inflight sync.WaitGroup
}

func New(notifier Notifier, windows WindowRegistry, logger *zap.Logger) *Worker {
	return &Worker{
		notifier: notifier,
		windows:  windows,
		logger:   logger,
		state:    StateInstalling,
	}
}

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Install runs the installing phase. There is nothing to precache on this
// side of the boundary; the phase exists so activation ordering is
// observable.
func (w *Worker) Install(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateInstalling {
		return fmt.Errorf("install in state %s", w.state)
	}
	w.logger.Info("notification worker installed")
	return nil
}

// Activate claims all open windows and moves the worker to active.
func (w *Worker) Activate(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateActive {
		w.mu.Unlock()
		return nil
	}
	w.state = StateActivating
	w.mu.Unlock()

	if err := w.windows.Claim(ctx); err != nil {
		return fmt.Errorf("failed to claim windows: %w", err)
	}

	w.mu.Lock()
	w.state = StateActive
	w.mu.Unlock()

	w.logger.Info("notification worker active")
	return nil
}

// HandlePush runs the full receive→parse→normalize→display pipeline for
// one push event. It never returns an error: a malformed payload falls
// back to a default notification, and a display failure is logged rather
// than allowed to suppress future events.
func (w *Worker) HandlePush(ctx context.Context, raw []byte) {
	w.inflight.Add(1)
	defer w.inflight.Done()

	payload, outcome := w.decode(raw)
	normalized := Normalize(payload)

	id, err := w.notifier.Show(ctx, normalized)
	if err != nil {
		w.logger.Error("failed to display notification",
			zap.String("title", normalized.Title),
			zap.Error(err))
		return
	}

	metrics.NotificationsDisplayed.WithLabelValues(outcome).Inc()
	w.logger.Info("notification displayed",
		zap.String("id", id),
		zap.String("title", normalized.Title),
		zap.String("tag", normalized.Tag))
}

func (w *Worker) decode(raw []byte) (model.RawPushMessage, string) {
	if len(raw) == 0 {
		return model.RawPushMessage{}, "empty"
	}

	var msg model.RawPushMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		metrics.PushDecodeFailures.Inc()
		w.logger.Warn("failed to decode push payload, using fallback",
			zap.Error(err))
		return model.RawPushMessage{
			Title: decodeFailureTitle,
			Body:  defaultBody,
		}, "decode_fallback"
	}
	return msg, "ok"
}

// HandleClick closes the notification and brings exactly one window to
// the resolved route: an already-open window containing the route is
// focused, otherwise a new one is opened.
func (w *Worker) HandleClick(ctx context.Context, notificationID string, data model.RawPushMessage) error {
	w.inflight.Add(1)
	defer w.inflight.Done()

	if err := w.notifier.Close(ctx, notificationID); err != nil {
		w.logger.Warn("failed to close notification",
			zap.String("id", notificationID),
			zap.Error(err))
	}

	route := ResolveRoute(data)

	windows, err := w.windows.Windows(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}

	for _, win := range windows {
		if strings.Contains(win.URL(), route) {
			if err := win.Focus(ctx); err != nil {
				return fmt.Errorf("failed to focus window %s: %w", win.ID(), err)
			}
			metrics.NotificationClicks.WithLabelValues("focused").Inc()
			w.logger.Info("focused existing window",
				zap.String("window", win.ID()),
				zap.String("route", route))
			return nil
		}
	}

	if _, err := w.windows.Open(ctx, route); err != nil {
		return fmt.Errorf("failed to open window at %s: %w", route, err)
	}
	metrics.NotificationClicks.WithLabelValues("opened").Inc()
	w.logger.Info("opened new window", zap.String("route", route))
	return nil
}

// HandleClose is called when a notification is dismissed without a click.
// Closing is not a cancellation signal; log and move on.
func (w *Worker) HandleClose(notificationID string) {
	w.logger.Debug("notification closed without click",
		zap.String("id", notificationID))
}

// Drain waits for in-flight event work, bounded by ctx.
func (w *Worker) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Normalize builds the display model, defaulting every missing field.
// Title and Body are guaranteed non-empty on return.
func Normalize(raw model.RawPushMessage) model.NotificationPayload {
	title := raw.Title
	if title == "" {
		title = defaultTitle
	}

	body := raw.Message
	if body == "" {
		body = raw.Body
	}
	if body == "" {
		body = defaultBody
	}

	icon := raw.Icon
	if icon == "" {
		icon = defaultIcon
	}

	badge := raw.Badge
	if badge == "" {
		badge = defaultBadge
	}

	tag := raw.Tag
	if tag == "" {
		tag = defaultTag
	}

	actions := raw.Actions
	if actions == nil {
		actions = []model.NotificationAction{}
	}

	return model.NotificationPayload{
		Title:              title,
		Body:               body,
		Icon:               icon,
		Badge:              badge,
		Tag:                tag,
		Data:               raw,
		Actions:            actions,
		Vibrate:            defaultVibration,
		RequireInteraction: false,
	}
}

// ResolveRoute maps a payload's routing hints to an in-app route, by
// priority: conversation, post, event, explicit url, root.
func ResolveRoute(data model.RawPushMessage) string {
	switch {
	case data.ConversationID != "":
		return "/messages/" + data.ConversationID
	case data.PostID != "":
		return "/posts/" + data.PostID
	case data.EventID != "":
		return "/events/" + data.EventID
	case data.URL != "":
		return data.URL
	default:
		return "/"
	}
}

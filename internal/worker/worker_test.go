package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus-client/internal/model"
)

// captureNotifier records every displayed payload.
type captureNotifier struct {
	mu     sync.Mutex
	shown  []model.NotificationPayload
	closed []string
	nextID int
	fail   bool
}

func (n *captureNotifier) Show(_ context.Context, payload model.NotificationPayload) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return "", errors.New("display broken")
	}
	n.nextID++
	n.shown = append(n.shown, payload)
	return "n1", nil
}

func (n *captureNotifier) Close(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, id)
	return nil
}

func (n *captureNotifier) displayed() []model.NotificationPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.NotificationPayload, len(n.shown))
	copy(out, n.shown)
	return out
}

func newTestWorker(t *testing.T) (*Worker, *captureNotifier, *Registry) {
	t.Helper()
	notifier := &captureNotifier{}
	registry := NewRegistry()
	w := New(notifier, registry, zap.NewNop())
	require.NoError(t, w.Install(context.Background()))
	require.NoError(t, w.Activate(context.Background()))
	return w, notifier, registry
}

func TestHandlePush_EmptyJSONObjectGetsDefaults(t *testing.T) {
	w, notifier, _ := newTestWorker(t)

	w.HandlePush(context.Background(), []byte(`{}`))

	shown := notifier.displayed()
	require.Len(t, shown, 1)
	assert.Equal(t, "New Notification", shown[0].Title)
	assert.NotEmpty(t, shown[0].Body)
	assert.Equal(t, "notification", shown[0].Tag)
	assert.False(t, shown[0].RequireInteraction)
	assert.NotNil(t, shown[0].Actions)
}

func TestHandlePush_MalformedPayloadFallsBack(t *testing.T) {
	w, notifier, _ := newTestWorker(t)

	w.HandlePush(context.Background(), []byte(`{not json`))

	shown := notifier.displayed()
	require.Len(t, shown, 1, "a malformed payload must still display a notification")
	assert.Equal(t, "New Message", shown[0].Title)
	assert.NotEmpty(t, shown[0].Body)
}

func TestHandlePush_NoPayloadStillDisplays(t *testing.T) {
	w, notifier, _ := newTestWorker(t)

	w.HandlePush(context.Background(), nil)

	shown := notifier.displayed()
	require.Len(t, shown, 1)
	assert.Equal(t, "New Notification", shown[0].Title)
	assert.NotEmpty(t, shown[0].Body)
}

func TestHandlePush_FieldsPassThrough(t *testing.T) {
	w, notifier, _ := newTestWorker(t)

	w.HandlePush(context.Background(),
		[]byte(`{"title":"Exam moved","message":"Room 204 at 10am","tag":"schedule","conversation_id":"42"}`))

	shown := notifier.displayed()
	require.Len(t, shown, 1)
	assert.Equal(t, "Exam moved", shown[0].Title)
	assert.Equal(t, "Room 204 at 10am", shown[0].Body)
	assert.Equal(t, "schedule", shown[0].Tag)
	assert.Equal(t, "42", shown[0].Data.ConversationID)
}

func TestHandlePush_BodyFallsBackToBodyField(t *testing.T) {
	w, notifier, _ := newTestWorker(t)

	w.HandlePush(context.Background(), []byte(`{"body":"plain body"}`))

	shown := notifier.displayed()
	require.Len(t, shown, 1)
	assert.Equal(t, "plain body", shown[0].Body)
}

func TestHandlePush_DisplayFailureDoesNotPanicOrBlock(t *testing.T) {
	notifier := &captureNotifier{fail: true}
	w := New(notifier, NewRegistry(), zap.NewNop())
	require.NoError(t, w.Activate(context.Background()))

	w.HandlePush(context.Background(), []byte(`{}`))
	assert.NoError(t, w.Drain(context.Background()))
}

func TestResolveRoute(t *testing.T) {
	tests := []struct {
		name string
		data model.RawPushMessage
		want string
	}{
		{"conversation", model.RawPushMessage{ConversationID: "42"}, "/messages/42"},
		{"post", model.RawPushMessage{PostID: "7"}, "/posts/7"},
		{"event", model.RawPushMessage{EventID: "9"}, "/events/9"},
		{"explicit url", model.RawPushMessage{URL: "/tutoring/requests"}, "/tutoring/requests"},
		{"empty", model.RawPushMessage{}, "/"},
		{"conversation beats post", model.RawPushMessage{ConversationID: "1", PostID: "2"}, "/messages/1"},
		{"post beats event", model.RawPushMessage{PostID: "2", EventID: "3"}, "/posts/2"},
		{"event beats url", model.RawPushMessage{EventID: "3", URL: "/x"}, "/events/3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRoute(tt.data))
		})
	}
}

func TestHandleClick_FocusesExistingWindow(t *testing.T) {
	w, notifier, registry := newTestWorker(t)

	id := registry.Attach("https://campus.example/messages/42")
	other := registry.Attach("https://campus.example/feed")

	err := w.HandleClick(context.Background(), "n1", model.RawPushMessage{ConversationID: "42"})
	require.NoError(t, err)

	assert.Equal(t, []string{"n1"}, notifier.closed, "click must close the notification first")
	assert.Equal(t, id, registry.LastFocused())

	windows, err := registry.Windows(context.Background())
	require.NoError(t, err)
	assert.Len(t, windows, 2, "no new window when one already shows the route")
	_ = other
}

func TestHandleClick_OpensNewWindowWhenNoneMatches(t *testing.T) {
	w, _, registry := newTestWorker(t)

	registry.Attach("https://campus.example/feed")

	err := w.HandleClick(context.Background(), "n1", model.RawPushMessage{PostID: "7"})
	require.NoError(t, err)

	windows, err := registry.Windows(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 2, "exactly one new window opens")

	var opened Window
	for _, win := range windows {
		if win.URL() == "/posts/7" {
			opened = win
		}
	}
	require.NotNil(t, opened)
	assert.True(t, registry.Controlled(opened.ID()))
}

func TestHandleClick_EmptyDataRoutesToRoot(t *testing.T) {
	w, _, registry := newTestWorker(t)

	err := w.HandleClick(context.Background(), "n1", model.RawPushMessage{})
	require.NoError(t, err)

	windows, err := registry.Windows(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "/", windows[0].URL())
}

func TestActivate_ClaimsAllWindows(t *testing.T) {
	notifier := &captureNotifier{}
	registry := NewRegistry()
	w := New(notifier, registry, zap.NewNop())

	a := registry.Attach("https://campus.example/feed")
	b := registry.Attach("https://campus.example/messages/1")
	assert.False(t, registry.Controlled(a))

	require.NoError(t, w.Install(context.Background()))
	assert.Equal(t, StateInstalling, w.State())

	require.NoError(t, w.Activate(context.Background()))
	assert.Equal(t, StateActive, w.State())
	assert.True(t, registry.Controlled(a))
	assert.True(t, registry.Controlled(b))

	// Re-activation is a no-op.
	require.NoError(t, w.Activate(context.Background()))
}

func TestTrackingNotifier_SameTagReplaces(t *testing.T) {
	n := NewTrackingNotifier(zap.NewNop())
	ctx := context.Background()

	first, err := n.Show(ctx, Normalize(model.RawPushMessage{Title: "a", Tag: "dm"}))
	require.NoError(t, err)
	second, err := n.Show(ctx, Normalize(model.RawPushMessage{Title: "b", Tag: "dm"}))
	require.NoError(t, err)

	active := n.Active()
	require.Len(t, active, 1, "same-tag notifications replace each other")
	assert.Equal(t, second, active[0].ID)
	assert.NotEqual(t, first, active[0].ID)

	require.NoError(t, n.Close(ctx, second))
	assert.Empty(t, n.Active())
}

func TestNormalize_IconBadgeDefaults(t *testing.T) {
	p := Normalize(model.RawPushMessage{})
	assert.NotEmpty(t, p.Icon)
	assert.NotEmpty(t, p.Badge)
	assert.NotEmpty(t, p.Vibrate)

	q := Normalize(model.RawPushMessage{Icon: "/custom.png", Badge: "/b.png"})
	assert.Equal(t, "/custom.png", q.Icon)
	assert.Equal(t, "/b.png", q.Badge)
}

package push

import (
	"context"
	"path/filepath"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRegistrar is a mock implementation of Registrar
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context, sub *webpush.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockRegistrar) Unregister(ctx context.Context, endpoint string) error {
	args := m.Called(ctx, endpoint)
	return args.Error(0)
}

func testSubscription() webpush.Subscription {
	return webpush.Subscription{
		Endpoint: "https://push.example/sub/abc",
		Keys: webpush.Keys{
			P256dh: "p256dh-key",
			Auth:   "auth-secret",
		},
	}
}

func newTestManager(t *testing.T, platform Platform, registrar Registrar) *Manager {
	t.Helper()
	flags, err := OpenFlagStore(filepath.Join(t.TempDir(), "flags.db"))
	require.NoError(t, err)
	t.Cleanup(func() { flags.Close() })
	return NewManager(platform, registrar, flags, zap.NewNop())
}

func TestSubscribe_UnsupportedPlatform(t *testing.T) {
	platform := NewConfigPlatform(false, PermissionDefault, PermissionGranted, testSubscription())
	registrar := new(MockRegistrar)
	m := newTestManager(t, platform, registrar)

	ok, err := m.Subscribe(context.Background())
	require.NoError(t, err, "capability absence is a steady-state answer, not an error")
	assert.False(t, ok)

	registrar.AssertNotCalled(t, "Register")
}

func TestSubscribe_PermissionDenied(t *testing.T) {
	platform := NewConfigPlatform(true, PermissionDenied, PermissionGranted, testSubscription())
	registrar := new(MockRegistrar)
	m := newTestManager(t, platform, registrar)

	ok, err := m.Subscribe(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, PermissionDenied, m.Permission())

	registrar.AssertNotCalled(t, "Register")
}

func TestSubscribe_PromptDeclined(t *testing.T) {
	platform := NewConfigPlatform(true, PermissionDefault, PermissionDenied, testSubscription())
	registrar := new(MockRegistrar)
	m := newTestManager(t, platform, registrar)

	ok, err := m.Subscribe(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	registrar.AssertNotCalled(t, "Register")
}

func TestSubscribe_GrantedFlow(t *testing.T) {
	platform := NewConfigPlatform(true, PermissionDefault, PermissionGranted, testSubscription())
	registrar := new(MockRegistrar)
	registrar.On("Register", mock.Anything, mock.Anything).Return(nil)
	m := newTestManager(t, platform, registrar)

	ok, err := m.Subscribe(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.Subscribed())
	assert.Equal(t, PermissionGranted, m.Permission())

	registrar.AssertCalled(t, "Register", mock.Anything, mock.MatchedBy(func(sub *webpush.Subscription) bool {
		return sub.Endpoint == "https://push.example/sub/abc"
	}))
}

func TestShouldPrompt(t *testing.T) {
	platform := NewConfigPlatform(true, PermissionDefault, PermissionGranted, testSubscription())
	registrar := new(MockRegistrar)
	registrar.On("Register", mock.Anything, mock.Anything).Return(nil)
	m := newTestManager(t, platform, registrar)

	assert.True(t, m.ShouldPrompt())

	require.NoError(t, m.Dismiss())
	assert.False(t, m.ShouldPrompt(), "a dismissed prompt stays dismissed")
}

func TestShouldPrompt_FalseAfterSubscribe(t *testing.T) {
	platform := NewConfigPlatform(true, PermissionDefault, PermissionGranted, testSubscription())
	registrar := new(MockRegistrar)
	registrar.On("Register", mock.Anything, mock.Anything).Return(nil)
	m := newTestManager(t, platform, registrar)

	_, err := m.Subscribe(context.Background())
	require.NoError(t, err)
	assert.False(t, m.ShouldPrompt(), "permission is granted now, nothing to prompt for")
}

func TestUnsubscribe_ClearsStateAndFlag(t *testing.T) {
	platform := NewConfigPlatform(true, PermissionGranted, PermissionGranted, testSubscription())
	registrar := new(MockRegistrar)
	registrar.On("Register", mock.Anything, mock.Anything).Return(nil)
	registrar.On("Unregister", mock.Anything, "https://push.example/sub/abc").Return(nil)
	m := newTestManager(t, platform, registrar)

	_, err := m.Subscribe(context.Background())
	require.NoError(t, err)
	require.True(t, m.Subscribed())

	require.NoError(t, m.Unsubscribe(context.Background()))
	assert.False(t, m.Subscribed())
	registrar.AssertCalled(t, "Unregister", mock.Anything, "https://push.example/sub/abc")
}

// internal/push/manager.go
package push

import (
	"context"
	"fmt"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// Permission mirrors the platform notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Platform is the browser/OS push capability boundary. Absence of the
// capability is a steady-state answer here, never an error.
type Platform interface {
	Supported() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Subscribe(ctx context.Context) (*webpush.Subscription, error)
}

// Registrar delivers the subscription to the application server so it can
// address pushes at this client.
type Registrar interface {
	Register(ctx context.Context, sub *webpush.Subscription) error
	Unregister(ctx context.Context, endpoint string) error
}

// Manager owns the subscribe/dismiss decisions and the persisted
// enablement flags. The prompt UI and the delivery worker both read its
// state; neither owns it.
type Manager struct {
	platform  Platform
	registrar Registrar
	flags     *FlagStore
	logger    *zap.Logger

	mu  sync.Mutex
	sub *webpush.Subscription
}

func NewManager(platform Platform, registrar Registrar, flags *FlagStore, logger *zap.Logger) *Manager {
	return &Manager{
		platform:  platform,
		registrar: registrar,
		flags:     flags,
		logger:    logger,
	}
}

func (m *Manager) Supported() bool {
	return m.platform.Supported()
}

func (m *Manager) Permission() Permission {
	return m.platform.Permission()
}

func (m *Manager) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub != nil
}

// ShouldPrompt reports whether the enablement prompt is worth showing:
// the platform can push, the user has neither decided nor dismissed.
func (m *Manager) ShouldPrompt() bool {
	if !m.platform.Supported() || m.platform.Permission() != PermissionDefault {
		return false
	}
	dismissed, err := m.flags.Get(FlagPromptDismissed)
	if err != nil {
		m.logger.Warn("failed to read prompt-dismissed flag", zap.Error(err))
		return false
	}
	enabled, err := m.flags.Get(FlagNotificationsEnabled)
	if err != nil {
		m.logger.Warn("failed to read notifications-enabled flag", zap.Error(err))
		return false
	}
	return !dismissed && !enabled
}

// Subscribe walks the enable flow: permission prompt if needed, platform
// subscription, server registration, flag write. Returns false (no error)
// when the platform cannot push or the user declined.
func (m *Manager) Subscribe(ctx context.Context) (bool, error) {
	if !m.platform.Supported() {
		return false, nil
	}

	permission := m.platform.Permission()
	if permission == PermissionDefault {
		requested, err := m.platform.RequestPermission(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to request permission: %w", err)
		}
		permission = requested
	}
	if permission != PermissionGranted {
		return false, nil
	}

	sub, err := m.platform.Subscribe(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe: %w", err)
	}

	if err := m.registrar.Register(ctx, sub); err != nil {
		return false, fmt.Errorf("failed to register subscription: %w", err)
	}

	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()

	if err := m.flags.Set(FlagNotificationsEnabled, true); err != nil {
		m.logger.Warn("failed to persist notifications-enabled flag", zap.Error(err))
	}

	m.logger.Info("push subscription registered",
		zap.String("endpoint", sub.Endpoint))
	return true, nil
}

// Unsubscribe tears the subscription down and clears the enablement flag.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		if err := m.registrar.Unregister(ctx, sub.Endpoint); err != nil {
			return fmt.Errorf("failed to unregister subscription: %w", err)
		}
	}
	return m.flags.Set(FlagNotificationsEnabled, false)
}

// Dismiss records the user waving the prompt away.
func (m *Manager) Dismiss() error {
	return m.flags.Set(FlagPromptDismissed, true)
}

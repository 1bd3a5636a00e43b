// internal/push/platform.go
package push

import (
	"context"
	"fmt"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ConfigPlatform is a Platform wired from configuration: the host
// environment probes support and permission once at startup and hands the
// results here. Permission prompts resolve to the configured answer,
// which models the user's OS-level choice.
type ConfigPlatform struct {
	supported    bool
	promptAnswer Permission
	subscription webpush.Subscription

	mu         sync.Mutex
	permission Permission
}

// NewConfigPlatform builds a platform boundary. promptAnswer is what a
// permission request resolves to while permission is still default.
func NewConfigPlatform(supported bool, initial, promptAnswer Permission, sub webpush.Subscription) *ConfigPlatform {
	return &ConfigPlatform{
		supported:    supported,
		promptAnswer: promptAnswer,
		subscription: sub,
		permission:   initial,
	}
}

func (p *ConfigPlatform) Supported() bool {
	return p.supported
}

func (p *ConfigPlatform) Permission() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

func (p *ConfigPlatform) RequestPermission(_ context.Context) (Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.permission == PermissionDefault {
		p.permission = p.promptAnswer
	}
	return p.permission, nil
}

func (p *ConfigPlatform) Subscribe(_ context.Context) (*webpush.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.supported {
		return nil, fmt.Errorf("push not supported on this platform")
	}
	if p.permission != PermissionGranted {
		return nil, fmt.Errorf("push permission is %s", p.permission)
	}

	sub := p.subscription
	return &sub, nil
}

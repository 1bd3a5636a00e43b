// internal/announcer/announcer.go
package announcer

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"campus-client/internal/metrics"
)

// Conn is the persistent connection the announcer talks over. Both calls
// are fire-and-forget announcements; the connection's lifecycle is owned
// elsewhere.
type Conn interface {
	SetActiveConversation(ctx context.Context, conversationID string) error
	ClearActiveConversation(ctx context.Context, conversationID string) error
}

// Announcer keeps the server informed of which conversation this client
// currently has open. It is strictly single-slot: entering a second
// conversation retracts the first. Presence only counts while the tab is
// in the foreground, so hiding the page retracts without forgetting the
// conversation and showing it re-announces.
type Announcer struct {
	conn   Conn
	logger *zap.Logger

	mu        sync.Mutex
	current   string
	visible   bool
	announced bool
}

func New(conn Conn, logger *zap.Logger) *Announcer {
	return &Announcer{
		conn:    conn,
		logger:  logger,
		visible: true,
	}
}

// Enter marks conversationID as the active conversation and announces it
// if the page is visible. Re-entering the active conversation is a no-op;
// entering a different one retracts the previous announcement first.
func (a *Announcer) Enter(ctx context.Context, conversationID string) {
	if conversationID == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == conversationID {
		if a.visible && !a.announced {
			a.announce(ctx, conversationID)
		}
		return
	}

	if a.announced {
		a.retract(ctx, a.current)
	}

	a.current = conversationID
	if a.visible {
		a.announce(ctx, conversationID)
	}
}

// Leave retracts the announcement for conversationID, but only if it is
// still the active one. A stale unmount after a fast conversation switch
// must not retract the successor's announcement.
func (a *Announcer) Leave(ctx context.Context, conversationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if conversationID == "" || a.current != conversationID {
		return
	}

	if a.announced {
		a.retract(ctx, conversationID)
	}
	a.current = ""
}

// SetVisible reacts to page visibility. Hidden retracts the current
// announcement without dropping the conversation; visible re-announces it.
func (a *Announcer) SetVisible(ctx context.Context, visible bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.visible == visible {
		return
	}
	a.visible = visible

	if a.current == "" {
		return
	}

	if visible {
		if !a.announced {
			a.announce(ctx, a.current)
		}
	} else if a.announced {
		a.retract(ctx, a.current)
	}
}

// Active reports the currently entered conversation id, or "".
func (a *Announcer) Active() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Close retracts whatever is announced. Teardown must never leak an
// active-conversation claim, so this runs regardless of prior errors.
func (a *Announcer) Close(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.announced {
		a.retract(ctx, a.current)
	}
	a.current = ""
}

// announce and retract assume a.mu is held. Send failures are logged,
// not surfaced: the server reconciles on reconnect.
func (a *Announcer) announce(ctx context.Context, conversationID string) {
	if err := a.conn.SetActiveConversation(ctx, conversationID); err != nil {
		a.logger.Warn("failed to announce active conversation",
			zap.String("conversationId", conversationID),
			zap.Error(err))
	}
	a.announced = true
	metrics.ConversationAnnounces.Inc()
}

func (a *Announcer) retract(ctx context.Context, conversationID string) {
	if err := a.conn.ClearActiveConversation(ctx, conversationID); err != nil {
		a.logger.Warn("failed to retract active conversation",
			zap.String("conversationId", conversationID),
			zap.Error(err))
	}
	a.announced = false
	metrics.ConversationRetracts.Inc()
}

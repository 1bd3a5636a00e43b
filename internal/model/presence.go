// internal/model/presence.go
package model

import (
	"time"
)

// PresenceInfo is the server's view of a single user's presence. It is
// fetched whole and replaced whole; nothing mutates it locally.
type PresenceInfo struct {
	UserID               string            `json:"user_id"`
	IsOnline             bool              `json:"is_online"`
	ActiveConversationID string            `json:"active_conversation_id,omitempty"`
	LastSeenAt           *time.Time        `json:"last_seen_at,omitempty"`
	LastActivityAt       *time.Time        `json:"last_activity_at,omitempty"`
	ConnectionCount      int               `json:"connection_count"`
	DeviceInfo           map[string]string `json:"device_info,omitempty"`
}

// OnlineStatus is the cheap boolean variant consumed by indicator widgets.
type OnlineStatus struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

// BulkPresenceRequest is the body of POST /presence/bulk.
type BulkPresenceRequest struct {
	UserIDs []string `json:"user_ids"`
}

// BulkPresenceResponse maps user id to presence.
type BulkPresenceResponse struct {
	Presences map[string]PresenceInfo `json:"presences"`
}

// ConversationOnlineResponse is the body of
// GET /presence/conversation/{id}/online.
type ConversationOnlineResponse struct {
	ConversationID string         `json:"conversation_id"`
	OnlineUsers    []PresenceInfo `json:"online_users"`
	Count          int            `json:"count"`
}

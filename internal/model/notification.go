// internal/model/notification.go
package model

// NotificationAction is a button attached to a displayed notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// RawPushMessage mirrors the server's push payload. Every field is
// optional on the wire; normalization fills the gaps.
type RawPushMessage struct {
	Title   string               `json:"title,omitempty"`
	Message string               `json:"message,omitempty"`
	Body    string               `json:"body,omitempty"`
	Icon    string               `json:"icon,omitempty"`
	Badge   string               `json:"badge,omitempty"`
	Tag     string               `json:"tag,omitempty"`
	Actions []NotificationAction `json:"actions,omitempty"`

	// Routing hints. At most one is expected, but the resolver copes
	// with any combination by priority.
	ConversationID string `json:"conversation_id,omitempty"`
	PostID         string `json:"post_id,omitempty"`
	EventID        string `json:"event_id,omitempty"`
	URL            string `json:"url,omitempty"`
}

// NotificationPayload is the normalized display model. Title and Body are
// always non-empty after normalization.
type NotificationPayload struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Icon               string               `json:"icon"`
	Badge              string               `json:"badge"`
	Tag                string               `json:"tag"`
	Data               RawPushMessage       `json:"data"`
	Actions            []NotificationAction `json:"actions"`
	Vibrate            []int                `json:"vibrate,omitempty"`
	RequireInteraction bool                 `json:"require_interaction"`
}

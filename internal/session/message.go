package session

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MediaKind tags what a message carries. Text is the zero default.
type MediaKind string

const (
	KindText  MediaKind = "text"
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Message is one turn of a conversation. An image message carries only
// ImageURL and a video message only VideoURL, never both.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Kind      MediaKind `json:"kind,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

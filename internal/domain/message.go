package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus tracks delivery state. Transitions only move forward:
// sent → delivered or sent → error, never backward.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusError     MessageStatus = "error"
)

// Message is a single persisted chat message. It is immutable once stored,
// except for Status.
type Message struct {
	ID                  string         `json:"id"`
	ConversationID      string         `json:"conversation_id"`
	Role                Role           `json:"role"`
	Content             string         `json:"content"`
	DetectedLanguage    LanguageCode   `json:"detected_language,omitempty"`
	OriginalContent     string         `json:"original_content,omitempty"`
	TranslationMetadata map[string]any `json:"translation_metadata,omitempty"`
	AttachmentURL       string         `json:"attachment_url,omitempty"`
	AttachmentType      string         `json:"attachment_type,omitempty"`
	Status              MessageStatus  `json:"status"`
	ConfidenceScore     *float64       `json:"confidence_score,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// Conversation groups messages for one user. UpdatedAt is bumped on every
// message append and never moves backward.
type Conversation struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Title     string       `json:"title"`
	Language  LanguageCode `json:"language"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ContextEntry is the role+content pair fed to the response generator.
// It is derived from persisted messages per request and never stored.
type ContextEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

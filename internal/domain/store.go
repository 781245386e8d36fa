package domain

import (
	"context"
	"errors"
	"time"
)

// SortOrder controls message query ordering by created_at.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

var (
	// ErrNotFound is returned when a conversation or message does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a message status update would
	// move backward (anything other than sent → delivered or sent → error).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ConversationStore is the persistence contract the pipeline relies on.
// Implementations assign IDs and creation timestamps on insert.
type ConversationStore interface {
	InsertConversation(ctx context.Context, conv Conversation) (*Conversation, error)
	Conversation(ctx context.Context, id string) (*Conversation, error)
	Conversations(ctx context.Context, userID string) ([]Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// TouchConversation bumps updated_at to at. It never moves updated_at
	// backward; touching with an older timestamp is a no-op.
	TouchConversation(ctx context.Context, id string, at time.Time) error

	InsertMessage(ctx context.Context, msg Message) (*Message, error)

	// Messages returns up to limit messages for the conversation ordered by
	// created_at. limit <= 0 means no limit.
	Messages(ctx context.Context, convID string, order SortOrder, limit int) ([]Message, error)

	UpdateMessageStatus(ctx context.Context, id string, status MessageStatus) error

	// ListAwaitingReply returns the trailing user messages that have no
	// assistant message after them, in chronological order.
	ListAwaitingReply(ctx context.Context, convID string) ([]Message, error)

	Close() error
}

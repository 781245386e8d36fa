package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertConversation_Defaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1", Title: "Trip planning"})
	require.NoError(t, err)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, domain.DefaultLanguage, conv.Language)
	assert.False(t, conv.CreatedAt.IsZero())
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)

	got, err := s.Conversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Trip planning", got.Title)
}

func TestConversation_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Conversation(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversations_OrderedByActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1", CreatedAt: base})
	require.NoError(t, err)
	newer, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1", CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	_, err = s.InsertConversation(ctx, domain.Conversation{UserID: "u2", CreatedAt: base})
	require.NoError(t, err)

	convs, err := s.Conversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, newer.ID, convs[0].ID)
	assert.Equal(t, older.ID, convs[1].ID)
}

func TestInsertMessage_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	confidence := 0.9
	msg, err := s.InsertMessage(ctx, domain.Message{
		ConversationID:   conv.ID,
		Role:             domain.RoleAssistant,
		Content:          "Bonjour!",
		DetectedLanguage: domain.LangFrench,
		OriginalContent:  "Hello!",
		TranslationMetadata: map[string]any{
			"provider": "libre",
			"target":   "fr",
		},
		AttachmentURL:   "https://example.com/a.png",
		AttachmentType:  "image/png",
		Status:          domain.StatusDelivered,
		ConfidenceScore: &confidence,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	msgs, err := s.Messages(ctx, conv.ID, domain.Ascending, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got := msgs[0]
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, domain.RoleAssistant, got.Role)
	assert.Equal(t, "Bonjour!", got.Content)
	assert.Equal(t, domain.LangFrench, got.DetectedLanguage)
	assert.Equal(t, "Hello!", got.OriginalContent)
	assert.Equal(t, map[string]any{"provider": "libre", "target": "fr"}, got.TranslationMetadata)
	assert.Equal(t, "https://example.com/a.png", got.AttachmentURL)
	assert.Equal(t, "image/png", got.AttachmentType)
	assert.Equal(t, domain.StatusDelivered, got.Status)
	require.NotNil(t, got.ConfidenceScore)
	assert.Equal(t, 0.9, *got.ConfidenceScore)
}

func TestInsertMessage_RequiresConversation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertMessage(context.Background(), domain.Message{
		ConversationID: "missing",
		Role:           domain.RoleUser,
		Content:        "hi",
	})
	require.Error(t, err)

	msgs, err := s.Messages(context.Background(), "missing", domain.Ascending, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInsertMessage_StatusDefaultsToSent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	msg, err := s.InsertMessage(ctx, domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.Nil(t, msg.ConfidenceScore)
}

func insertAt(t *testing.T, s *SQLiteStore, convID string, role domain.Role, content string, at time.Time) domain.Message {
	t.Helper()
	msg, err := s.InsertMessage(context.Background(), domain.Message{
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      at,
	})
	require.NoError(t, err)
	return *msg
}

func TestMessages_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		insertAt(t, s, conv.ID, domain.RoleUser, string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
	}

	asc, err := s.Messages(ctx, conv.ID, domain.Ascending, 0)
	require.NoError(t, err)
	require.Len(t, asc, 5)
	assert.Equal(t, "a", asc[0].Content)
	assert.Equal(t, "e", asc[4].Content)

	desc, err := s.Messages(ctx, conv.ID, domain.Descending, 3)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "e", desc[0].Content)
	assert.Equal(t, "c", desc[2].Content)
}

func TestUpdateMessageStatus_Transitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)
	msg, err := s.InsertMessage(ctx, domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateMessageStatus(ctx, msg.ID, domain.StatusDelivered))

	msgs, err := s.Messages(ctx, conv.ID, domain.Ascending, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, msgs[0].Status)

	// Terminal states do not transition again.
	assert.ErrorIs(t, s.UpdateMessageStatus(ctx, msg.ID, domain.StatusError), domain.ErrInvalidTransition)

	// sent is never a valid target.
	assert.ErrorIs(t, s.UpdateMessageStatus(ctx, msg.ID, domain.StatusSent), domain.ErrInvalidTransition)

	assert.ErrorIs(t, s.UpdateMessageStatus(ctx, "missing", domain.StatusDelivered), domain.ErrNotFound)
}

func TestTouchConversation_Monotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1", CreatedAt: base})
	require.NoError(t, err)

	later := base.Add(time.Hour)
	require.NoError(t, s.TouchConversation(ctx, conv.ID, later))

	got, err := s.Conversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(later))

	// A stale touch must not move updated_at backwards.
	require.NoError(t, s.TouchConversation(ctx, conv.ID, base.Add(time.Minute)))

	got, err = s.Conversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(later))
}

func TestListAwaitingReply(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	// Empty conversation: nothing awaits.
	awaiting, err := s.ListAwaitingReply(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, awaiting)

	insertAt(t, s, conv.ID, domain.RoleUser, "q1", base)
	insertAt(t, s, conv.ID, domain.RoleAssistant, "a1", base.Add(time.Second))

	// Last message is an assistant reply: nothing awaits.
	awaiting, err = s.ListAwaitingReply(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, awaiting)

	insertAt(t, s, conv.ID, domain.RoleUser, "q2", base.Add(2*time.Second))
	insertAt(t, s, conv.ID, domain.RoleUser, "q3", base.Add(3*time.Second))

	awaiting, err = s.ListAwaitingReply(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, awaiting, 2)
	assert.Equal(t, "q2", awaiting[0].Content)
	assert.Equal(t, "q3", awaiting[1].Content)
}

func TestDeleteConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(ctx, conv.ID))

	_, err = s.Conversation(ctx, conv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	msgs, err := s.Messages(ctx, conv.ID, domain.Ascending, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, s.DeleteConversation(ctx, conv.ID), domain.ErrNotFound)
}

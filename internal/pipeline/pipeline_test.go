package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/domain"
	"lingochat/internal/generate"
	"lingochat/internal/language"
	"lingochat/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClassifier(t *testing.T) *language.Classifier {
	t.Helper()
	c, err := language.NewClassifier(language.ClassifierConfig{
		DefaultLanguage: domain.DefaultLanguage,
		Logger:          testLogger(),
	})
	require.NoError(t, err)
	return c
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// stubResponder records the history it was handed and returns a fixed reply.
type stubResponder struct {
	history    []domain.ContextEntry
	lang       domain.LanguageCode
	generation domain.Generation
}

func (r *stubResponder) Generate(_ context.Context, history []domain.ContextEntry, lang domain.LanguageCode) domain.Generation {
	r.history = history
	r.lang = lang
	return r.generation
}

func TestHandleUserMessage_EndToEnd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1", Language: domain.LangFrench})
	require.NoError(t, err)

	p := New(Config{
		Classifier: newTestClassifier(t),
		Store:      s,
		Responder:  generate.New(generate.Config{Logger: testLogger()}),
		Logger:     testLogger(),
	})

	reply, err := p.HandleUserMessage(ctx, conv.ID, "Bonjour, comment ça va?", domain.LangFrench, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, domain.StatusDelivered, reply.Status)
	assert.Equal(t, domain.LangFrench, reply.DetectedLanguage)
	require.NotNil(t, reply.ConfidenceScore)
	assert.Equal(t, generate.ConfidenceFallback, *reply.ConfidenceScore)
	assert.Equal(t, language.FallbackResponse(domain.LangFrench), reply.Content)

	msgs, err := s.Messages(ctx, conv.ID, domain.Ascending, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, domain.LangFrench, msgs[0].DetectedLanguage)
	assert.Equal(t, domain.StatusSent, msgs[0].Status)

	got, err := s.Conversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestHandleUserMessage_WindowsContext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		_, err := s.InsertMessage(ctx, domain.Message{
			ConversationID: conv.ID,
			Role:           domain.RoleUser,
			Content:        fmt.Sprintf("m%02d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	responder := &stubResponder{generation: domain.Generation{Content: "ok", Confidence: 0.9}}
	p := New(Config{
		Classifier: newTestClassifier(t),
		Store:      s,
		Responder:  responder,
		Logger:     testLogger(),
	})

	_, err = p.HandleUserMessage(ctx, conv.ID, "the latest question", domain.LangEnglish, nil)
	require.NoError(t, err)

	// Ten newest messages in chronological order, ending with the one just sent.
	require.Len(t, responder.history, 10)
	assert.Equal(t, "m16", responder.history[0].Content)
	assert.Equal(t, "m24", responder.history[8].Content)
	assert.Equal(t, "the latest question", responder.history[9].Content)
	assert.Equal(t, domain.LangEnglish, responder.lang)
}

func TestHandleUserMessage_Attachment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	p := New(Config{
		Classifier: newTestClassifier(t),
		Store:      s,
		Responder:  &stubResponder{generation: domain.Generation{Content: "ok", Confidence: 0.9}},
		Logger:     testLogger(),
	})

	_, err = p.HandleUserMessage(ctx, conv.ID, "look at this", domain.LangEnglish, &Attachment{
		URL:  "https://example.com/p.jpg",
		Type: "image/jpeg",
	})
	require.NoError(t, err)

	msgs, err := s.Messages(ctx, conv.ID, domain.Ascending, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "https://example.com/p.jpg", msgs[0].AttachmentURL)
	assert.Equal(t, "image/jpeg", msgs[0].AttachmentType)
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	domain.ConversationStore
	failUserInsert bool
	failTouch      bool
	inserts        int
}

func (f *failingStore) InsertMessage(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	f.inserts++
	if f.failUserInsert && msg.Role == domain.RoleUser {
		return nil, errors.New("disk full")
	}
	return f.ConversationStore.InsertMessage(ctx, msg)
}

func (f *failingStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	if f.failTouch {
		return errors.New("locked")
	}
	return f.ConversationStore.TouchConversation(ctx, id, at)
}

func TestHandleUserMessage_UserPersistFailureAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	responder := &stubResponder{generation: domain.Generation{Content: "ok", Confidence: 0.9}}
	p := New(Config{
		Classifier: newTestClassifier(t),
		Store:      &failingStore{ConversationStore: s, failUserInsert: true},
		Responder:  responder,
		Logger:     testLogger(),
	})

	_, err = p.HandleUserMessage(ctx, conv.ID, "hello", domain.LangEnglish, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist user message")

	// The responder must not run when nothing was persisted.
	assert.Nil(t, responder.history)
}

func TestHandleUserMessage_TouchFailureIsNotFatal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.InsertConversation(ctx, domain.Conversation{UserID: "u1"})
	require.NoError(t, err)

	p := New(Config{
		Classifier: newTestClassifier(t),
		Store:      &failingStore{ConversationStore: s, failTouch: true},
		Responder:  &stubResponder{generation: domain.Generation{Content: "ok", Confidence: 0.9}},
		Logger:     testLogger(),
	})

	reply, err := p.HandleUserMessage(ctx, conv.ID, "hello", domain.LangEnglish, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content)
}

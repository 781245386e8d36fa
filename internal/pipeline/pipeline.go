// Package pipeline coordinates one user message end to end: detect language,
// persist the user message, window the recent history, generate a reply, and
// persist the assistant message.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lingochat/internal/domain"
	"lingochat/internal/language"
	"lingochat/internal/metrics"
)

const defaultContextWindow = 10

// Attachment is an optional file reference carried on a user message.
type Attachment struct {
	URL  string
	Type string
}

type Pipeline struct {
	classifier *language.Classifier
	store      domain.ConversationStore
	responder  domain.Responder
	window     int
	logger     *slog.Logger
}

type Config struct {
	Classifier *language.Classifier
	Store      domain.ConversationStore
	Responder  domain.Responder

	// ContextWindow caps the messages fed to the responder (default 10).
	ContextWindow int

	Logger *slog.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = defaultContextWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		classifier: cfg.Classifier,
		store:      cfg.Store,
		responder:  cfg.Responder,
		window:     cfg.ContextWindow,
		logger:     cfg.Logger,
	}
}

// HandleUserMessage runs the linear pipeline for one submitted message and
// returns the persisted assistant message.
//
// Failure policy: persisting the user message aborts the whole operation —
// without it there is nothing to respond to. A failure persisting the
// assistant message also propagates, leaving an unanswered user message; no
// compensating delete or retry happens, a later send simply appends.
// Bumping the conversation timestamp is best-effort only.
func (p *Pipeline) HandleUserMessage(ctx context.Context, conversationID, text string, userLanguage domain.LanguageCode, att *Attachment) (*domain.Message, error) {
	detected := p.classifier.Detect(text)

	userMsg := domain.Message{
		ConversationID:   conversationID,
		Role:             domain.RoleUser,
		Content:          text,
		DetectedLanguage: detected,
		Status:           domain.StatusSent,
	}
	if att != nil {
		userMsg.AttachmentURL = att.URL
		userMsg.AttachmentType = att.Type
	}
	if _, err := p.store.InsertMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	// Last N messages newest-first, reversed to chronological order. Hard
	// truncation: history beyond the window is invisible to the responder.
	recent, err := p.store.Messages(ctx, conversationID, domain.Descending, p.window)
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	history := make([]domain.ContextEntry, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, domain.ContextEntry{
			Role:    recent[i].Role,
			Content: recent[i].Content,
		})
	}

	gen := p.responder.Generate(ctx, history, userLanguage)

	confidence := gen.Confidence
	assistantMsg, err := p.store.InsertMessage(ctx, domain.Message{
		ConversationID:   conversationID,
		Role:             domain.RoleAssistant,
		Content:          gen.Content,
		DetectedLanguage: userLanguage,
		Status:           domain.StatusDelivered,
		ConfidenceScore:  &confidence,
	})
	if err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	if err := p.store.TouchConversation(ctx, conversationID, time.Now().UTC()); err != nil {
		p.logger.Warn("bump conversation updated_at failed",
			"conversation", conversationID, "err", err)
	}

	metrics.Default.Counter("lingochat_messages_total", "User messages processed by the pipeline.").Inc()
	p.logger.Info("message handled",
		"conversation", conversationID,
		"detected", detected,
		"confidence", gen.Confidence,
	)

	return assistantMsg, nil
}

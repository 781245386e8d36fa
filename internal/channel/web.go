// Package channel exposes the chat pipeline over a JSON HTTP API. The visual
// chat UI, widget embedding, and authentication live outside this system.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lingochat/internal/domain"
	"lingochat/internal/language"
	"lingochat/internal/metrics"
	"lingochat/internal/pipeline"

	"github.com/gorilla/mux"
)

const maxBodySize = 1 << 20 // 1MB

// Web serves the chat API.
type Web struct {
	host        string
	port        int
	pipeline    *pipeline.Pipeline
	store       domain.ConversationStore
	translator  domain.Translator
	defaultLang domain.LanguageCode
	version     string
	logger      *slog.Logger
	server      *http.Server
}

type WebConfig struct {
	Host            string
	Port            int
	Pipeline        *pipeline.Pipeline
	Store           domain.ConversationStore
	Translator      domain.Translator
	DefaultLanguage domain.LanguageCode
	Version         string
	Logger          *slog.Logger
}

func NewWeb(cfg WebConfig) *Web {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = domain.DefaultLanguage
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Web{
		host:        cfg.Host,
		port:        cfg.Port,
		pipeline:    cfg.Pipeline,
		store:       cfg.Store,
		translator:  cfg.Translator,
		defaultLang: cfg.DefaultLanguage,
		version:     cfg.Version,
		logger:      cfg.Logger,
	}
}

// Handler builds the API router. Exposed separately from Start so tests can
// drive it with httptest.
func (w *Web) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/conversations", w.handleCreateConversation).Methods("POST")
	r.HandleFunc("/api/conversations", w.handleListConversations).Methods("GET")
	r.HandleFunc("/api/conversations/{id}", w.handleDeleteConversation).Methods("DELETE")
	r.HandleFunc("/api/conversations/{id}/messages", w.handleListMessages).Methods("GET")
	r.HandleFunc("/api/conversations/{id}/messages", w.handleSendMessage).Methods("POST")
	r.HandleFunc("/api/conversations/{id}/awaiting", w.handleAwaiting).Methods("GET")
	r.HandleFunc("/api/translate", w.handleTranslate).Methods("POST")
	r.HandleFunc("/api/languages", w.handleLanguages).Methods("GET")
	r.HandleFunc("/api/status", w.handleStatus).Methods("GET")
	r.Handle("/metrics", metrics.Default.Handler()).Methods("GET")

	return r
}

// Start runs the server until ctx is cancelled.
func (w *Web) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", w.host, w.port)
	w.server = &http.Server{
		Addr:    addr,
		Handler: w.Handler(),
	}

	w.logger.Info("api server started", "addr", "http://"+addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.server.Shutdown(shutdownCtx)
	}()

	if err := w.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (w *Web) Stop() error {
	if w.server != nil {
		return w.server.Close()
	}
	return nil
}

type createConversationRequest struct {
	UserID   string              `json:"user_id"`
	Language domain.LanguageCode `json:"language"`
	Title    string              `json:"title"`
}

func (w *Web) handleCreateConversation(rw http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if !w.decode(rw, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(rw, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Language == "" {
		req.Language = w.defaultLang
	}
	if req.Title == "" {
		req.Title = "Conversation " + time.Now().Format("2006-01-02")
	}

	conv, err := w.store.InsertConversation(r.Context(), domain.Conversation{
		UserID:   req.UserID,
		Title:    req.Title,
		Language: req.Language,
	})
	if err != nil {
		w.logger.Error("create conversation failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "create conversation failed")
		return
	}
	writeJSON(rw, http.StatusCreated, conv)
}

func (w *Web) handleListConversations(rw http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(rw, http.StatusBadRequest, "user_id is required")
		return
	}
	convs, err := w.store.Conversations(r.Context(), userID)
	if err != nil {
		w.logger.Error("list conversations failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "list conversations failed")
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	writeJSON(rw, http.StatusOK, convs)
}

func (w *Web) handleDeleteConversation(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := w.store.DeleteConversation(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(rw, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		w.logger.Error("delete conversation failed", "id", id, "err", err)
		writeError(rw, http.StatusInternalServerError, "delete conversation failed")
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (w *Web) handleListMessages(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(rw, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	msgs, err := w.store.Messages(r.Context(), id, domain.Ascending, limit)
	if err != nil {
		w.logger.Error("list messages failed", "conversation", id, "err", err)
		writeError(rw, http.StatusInternalServerError, "list messages failed")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(rw, http.StatusOK, msgs)
}

type sendMessageRequest struct {
	Content        string              `json:"content"`
	Language       domain.LanguageCode `json:"language"`
	AttachmentURL  string              `json:"attachment_url"`
	AttachmentType string              `json:"attachment_type"`
}

func (w *Web) handleSendMessage(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req sendMessageRequest
	if !w.decode(rw, r, &req) {
		return
	}
	if req.Content == "" {
		writeError(rw, http.StatusBadRequest, "content is required")
		return
	}

	lang := req.Language
	if lang == "" {
		// Fall back to the conversation's language, then the default.
		if conv, err := w.store.Conversation(r.Context(), id); err == nil {
			lang = conv.Language
		}
		if lang == "" {
			lang = w.defaultLang
		}
	}

	var att *pipeline.Attachment
	if req.AttachmentURL != "" {
		att = &pipeline.Attachment{URL: req.AttachmentURL, Type: req.AttachmentType}
	}

	msg, err := w.pipeline.HandleUserMessage(r.Context(), id, req.Content, lang, att)
	if err != nil {
		w.logger.Error("send message failed", "conversation", id, "err", err)
		writeError(rw, http.StatusInternalServerError, "send message failed")
		return
	}
	writeJSON(rw, http.StatusOK, msg)
}

func (w *Web) handleAwaiting(rw http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	msgs, err := w.store.ListAwaitingReply(r.Context(), id)
	if err != nil {
		w.logger.Error("list awaiting failed", "conversation", id, "err", err)
		writeError(rw, http.StatusInternalServerError, "list awaiting failed")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(rw, http.StatusOK, msgs)
}

type translateRequest struct {
	Text   string              `json:"text"`
	Target domain.LanguageCode `json:"target"`
	Source domain.LanguageCode `json:"source"`
}

func (w *Web) handleTranslate(rw http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !w.decode(rw, r, &req) {
		return
	}
	if req.Text == "" || req.Target == "" {
		writeError(rw, http.StatusBadRequest, "text and target are required")
		return
	}

	metrics.Default.Counter("lingochat_translations_total", "Translation requests received.").Inc()

	result, err := w.translator.Translate(r.Context(), req.Text, req.Target, req.Source)
	if err != nil {
		// Translation is an explicit user action: the failure surfaces with
		// the backend's message instead of a fallback substitution.
		metrics.Default.Counter("lingochat_translation_failures_total", "Translation requests that failed.").Inc()
		w.logger.Warn("translation failed", "target", req.Target, "err", err)
		writeError(rw, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, result)
}

type languageInfo struct {
	Code domain.LanguageCode `json:"code"`
	Name string              `json:"name"`
	Flag string              `json:"flag"`
}

func (w *Web) handleLanguages(rw http.ResponseWriter, r *http.Request) {
	codes := language.Supported()
	out := make([]languageInfo, 0, len(codes))
	for _, code := range codes {
		out = append(out, languageInfo{Code: code, Name: language.Name(code), Flag: language.Flag(code)})
	}
	writeJSON(rw, http.StatusOK, out)
}

func (w *Web) handleStatus(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": w.version,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// decode reads a size-limited JSON body into v, answering 400 on failure.
func (w *Web) decode(rw http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(rw, http.StatusBadRequest, "read body: "+err.Error())
		return false
	}
	defer r.Body.Close()
	if err := json.Unmarshal(body, v); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}

package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spektr-im/spektr/internal/models"
	"github.com/spektr-im/spektr/internal/service"
)

// ConversationService defines the conversation store operations
// required by the HTTP handlers.
type ConversationService interface {
	List(ctx context.Context) ([]models.Chat, error)
	GetMessages(ctx context.Context, chatID string) ([]models.Message, error)
	SendMessage(ctx context.Context, chatID string, draft service.MessageDraft) (models.Message, error)
	EditMessage(ctx context.Context, chatID, messageID, newText string) (models.Message, error)
	DeleteMessage(ctx context.Context, chatID, messageID string) error
	ForwardMessage(ctx context.Context, messageID, targetChatID string) (models.Message, error)
	DeleteChat(ctx context.Context, chatID string) error
	GetOrCreate(ctx context.Context, otherUserID string) (models.Chat, error)
	MarkRead(ctx context.Context, chatID string) error
	BlockUser(ctx context.Context, userID string) error
	UnblockUser(ctx context.Context, userID string) error
}

// ChatHandler handles HTTP requests for chats and messages.
type ChatHandler struct {
	// Chats performs the underlying conversation store operations.
	Chats ConversationService
}

// List responds with the current user's chats, most recently active
// first.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Chats.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chats)
}

// CreateOrGet returns the direct chat with the requested counterpart,
// creating it when missing.
func (h *ChatHandler) CreateOrGet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	chat, err := h.Chats.GetOrCreate(r.Context(), req.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chat)
}

// Delete removes a chat and all of its messages.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Chats.DeleteChat(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkRead marks all messages of a chat as read.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Chats.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMessages responds with the chat's messages in send order.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Chats.GetMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

// SendMessage appends a message to the chat.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var draft service.MessageDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil || (draft.Text == "" && draft.Media == nil) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.Chats.SendMessage(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// EditMessage replaces the text of a message.
func (h *ChatHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.Chats.EditMessage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "messageID"), req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// DeleteMessage removes a message from the chat.
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.Chats.DeleteMessage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "messageID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForwardMessage copies a message into a target chat.
func (h *ChatHandler) ForwardMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetChatID string `json:"targetChatId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetChatID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.Chats.ForwardMessage(r.Context(), chi.URLParam(r, "messageID"), req.TargetChatID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// BlockUser blocks the given user for the current user and flags the
// chat with that participant.
func (h *ChatHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Chats.BlockUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnblockUser reverses BlockUser.
func (h *ChatHandler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Chats.UnblockUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

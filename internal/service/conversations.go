package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spektr-im/spektr/internal/models"
	"github.com/spektr-im/spektr/internal/storage"
)

// Welcome chat constants seeded at registration.
const (
	systemChatID     = "spektr_official"
	savedChatPrefix  = "saved_"
	welcomeMessageID = "welcome"
	welcomeText      = "Здравствуйте! Добро пожаловать в Spektr!"
)

// IdentitySource is the part of the identity store the conversation
// store depends on.
type IdentitySource interface {
	CurrentUser(ctx context.Context) (models.User, error)
	BlockUser(ctx context.Context, userID string) error
	UnblockUser(ctx context.Context, userID string) error
}

// MessageDraft is the caller-supplied part of a new message. SenderID
// defaults to the current user when empty.
type MessageDraft struct {
	Text     string                  `json:"text"`
	Media    *models.MediaAttachment `json:"media,omitempty"`
	SenderID string                  `json:"senderId,omitempty"`
}

// Conversations manages the per-user chat list and message map. All
// operations are scoped to the current authenticated user; chats and
// messages of one account are invisible to every other account, even
// for the two sides of the same direct chat.
type Conversations struct {
	kv       storage.KV
	identity IdentitySource
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewConversations constructs a Conversations store over the given KV
// and identity source.
func NewConversations(kv storage.KV, identity IdentitySource, log *zap.Logger) *Conversations {
	return &Conversations{
		kv:       kv,
		identity: identity,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Conversations) loadChats(ctx context.Context, userID string) ([]models.Chat, error) {
	chats := []models.Chat{}
	if err := storage.ReadJSON(ctx, s.kv, chatsKey(userID), &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *Conversations) saveChats(ctx context.Context, userID string, chats []models.Chat) error {
	return storage.WriteJSON(ctx, s.kv, chatsKey(userID), chats)
}

func (s *Conversations) loadMessages(ctx context.Context, userID string) (map[string][]models.Message, error) {
	all := make(map[string][]models.Message)
	if err := storage.ReadJSON(ctx, s.kv, messagesKey(userID), &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *Conversations) saveMessages(ctx context.Context, userID string, all map[string][]models.Message) error {
	return storage.WriteJSON(ctx, s.kv, messagesKey(userID), all)
}

// List returns the current user's chats, most recently active first.
// The ordering key is the timestamp of the cached last message; chats
// without one sort as oldest.
func (s *Conversations) List(ctx context.Context) ([]models.Chat, error) {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chats, func(i, j int) bool {
		li, lj := chats[i].LastMessage, chats[j].LastMessage
		switch {
		case li == nil:
			return false
		case lj == nil:
			return true
		default:
			return li.Timestamp.After(lj.Timestamp)
		}
	})
	return chats, nil
}

// GetMessages returns the messages of a chat in send order. An
// unknown chat yields an empty sequence.
func (s *Conversations) GetMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.loadMessages(ctx, cur.ID)
	if err != nil {
		return nil, err
	}
	msgs := all[chatID]
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// SendMessage appends a new message to the chat, refreshes the cached
// last message, bumps the unread counter for incoming messages, and
// moves the chat to the front of the list.
func (s *Conversations) SendMessage(ctx context.Context, chatID string, draft MessageDraft) (models.Message, error) {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return models.Message{}, err
	}
	senderID := draft.SenderID
	if senderID == "" {
		senderID = cur.ID
	}
	msg := models.Message{
		ID:        "msg_" + s.newID(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      draft.Text,
		Timestamp: s.now(),
		Media:     draft.Media,
	}
	if err := s.append(ctx, cur.ID, chatID, msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// append stores msg at the tail of the chat's message list and
// updates the chat summary. The summary and the message list live
// under separate keys, so the two writes are not atomic together.
func (s *Conversations) append(ctx context.Context, ownerID, chatID string, msg models.Message) error {
	all, err := s.loadMessages(ctx, ownerID)
	if err != nil {
		return err
	}
	all[chatID] = append(all[chatID], msg)
	if err := s.saveMessages(ctx, ownerID, all); err != nil {
		return err
	}

	chats, err := s.loadChats(ctx, ownerID)
	if err != nil {
		return err
	}
	for i := range chats {
		if chats[i].ID != chatID {
			continue
		}
		chat := chats[i]
		chat.LastMessage = &msg
		if msg.SenderID != ownerID {
			chat.UnreadCount++
		}
		// Move to the front of the summary list.
		reordered := make([]models.Chat, 0, len(chats))
		reordered = append(reordered, chat)
		reordered = append(reordered, chats[:i]...)
		reordered = append(reordered, chats[i+1:]...)
		return s.saveChats(ctx, ownerID, reordered)
	}
	return nil
}

// DeleteMessage removes a message. When the cached last message is
// deleted, the cache is recomputed from the new tail of the list.
func (s *Conversations) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}
	all, err := s.loadMessages(ctx, cur.ID)
	if err != nil {
		return err
	}
	msgs := all[chatID]
	kept := make([]models.Message, 0, len(msgs))
	found := false
	for _, m := range msgs {
		if m.ID == messageID {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return ErrNotFound
	}
	all[chatID] = kept
	if err := s.saveMessages(ctx, cur.ID, all); err != nil {
		return err
	}

	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return err
	}
	for i := range chats {
		if chats[i].ID != chatID || chats[i].LastMessage == nil || chats[i].LastMessage.ID != messageID {
			continue
		}
		if len(kept) > 0 {
			last := kept[len(kept)-1]
			chats[i].LastMessage = &last
		} else {
			chats[i].LastMessage = nil
		}
		return s.saveChats(ctx, cur.ID, chats)
	}
	return nil
}

// EditMessage replaces the text of a message in place and marks it
// edited. The cached last message is updated alongside when it is the
// one being edited.
func (s *Conversations) EditMessage(ctx context.Context, chatID, messageID, newText string) (models.Message, error) {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return models.Message{}, err
	}
	all, err := s.loadMessages(ctx, cur.ID)
	if err != nil {
		return models.Message{}, err
	}
	msgs := all[chatID]
	var edited *models.Message
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Text = newText
			msgs[i].Edited = true
			edited = &msgs[i]
			break
		}
	}
	if edited == nil {
		return models.Message{}, ErrNotFound
	}
	all[chatID] = msgs
	if err := s.saveMessages(ctx, cur.ID, all); err != nil {
		return models.Message{}, err
	}

	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return models.Message{}, err
	}
	for i := range chats {
		if chats[i].ID != chatID || chats[i].LastMessage == nil || chats[i].LastMessage.ID != messageID {
			continue
		}
		chats[i].LastMessage.Text = newText
		chats[i].LastMessage.Edited = true
		if err := s.saveChats(ctx, cur.ID, chats); err != nil {
			return models.Message{}, err
		}
		break
	}
	return *edited, nil
}

// ForwardMessage copies the text of an existing message into the
// target chat as a new message sent by the current user, with the
// forwarded flag set and the original sender recorded. The source is
// found by a linear scan over all of the user's chats.
func (s *Conversations) ForwardMessage(ctx context.Context, messageID, targetChatID string) (models.Message, error) {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return models.Message{}, err
	}
	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return models.Message{}, err
	}
	all, err := s.loadMessages(ctx, cur.ID)
	if err != nil {
		return models.Message{}, err
	}

	var original *models.Message
	for _, chat := range chats {
		for _, m := range all[chat.ID] {
			if m.ID == messageID {
				original = &m
				break
			}
		}
		if original != nil {
			break
		}
	}
	if original == nil {
		return models.Message{}, ErrNotFound
	}

	msg := models.Message{
		ID:            "msg_" + s.newID(),
		ChatID:        targetChatID,
		SenderID:      cur.ID,
		Text:          original.Text,
		Timestamp:     s.now(),
		Forwarded:     true,
		ForwardedFrom: original.SenderID,
	}
	if err := s.append(ctx, cur.ID, targetChatID, msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// DeleteChat removes the chat summary and its entire message list.
func (s *Conversations) DeleteChat(ctx context.Context, chatID string) error {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}
	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return err
	}
	kept := make([]models.Chat, 0, len(chats))
	found := false
	for _, c := range chats {
		if c.ID == chatID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrNotFound
	}
	if err := s.saveChats(ctx, cur.ID, kept); err != nil {
		return err
	}

	all, err := s.loadMessages(ctx, cur.ID)
	if err != nil {
		return err
	}
	delete(all, chatID)
	if err := s.saveMessages(ctx, cur.ID, all); err != nil {
		return err
	}
	s.log.Info("chat deleted", zap.String("userId", cur.ID), zap.String("chatId", chatID))
	return nil
}

// GetOrCreate returns the existing direct chat with otherUserID or
// creates a new one at the front of the list. System and saved
// messages chats never match, so at most one plain direct chat exists
// per counterpart.
func (s *Conversations) GetOrCreate(ctx context.Context, otherUserID string) (models.Chat, error) {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return models.Chat{}, err
	}
	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return models.Chat{}, err
	}
	for _, c := range chats {
		if c.IsSystemChat || c.IsSavedMessages {
			continue
		}
		if containsID(c.Participants, otherUserID) {
			return c, nil
		}
	}

	chat := models.Chat{
		ID:           "chat_" + s.newID(),
		Participants: []string{cur.ID, otherUserID},
		UnreadCount:  0,
		CreatedAt:    s.now(),
	}
	chats = append([]models.Chat{chat}, chats...)
	if err := s.saveChats(ctx, cur.ID, chats); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// MarkRead marks every message of the chat as read and resets the
// unread counter.
func (s *Conversations) MarkRead(ctx context.Context, chatID string) error {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}
	all, err := s.loadMessages(ctx, cur.ID)
	if err != nil {
		return err
	}
	msgs := all[chatID]
	for i := range msgs {
		msgs[i].Read = true
	}
	all[chatID] = msgs
	if err := s.saveMessages(ctx, cur.ID, all); err != nil {
		return err
	}

	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return err
	}
	for i := range chats {
		if chats[i].ID != chatID {
			continue
		}
		chats[i].UnreadCount = 0
		if chats[i].LastMessage != nil {
			chats[i].LastMessage.Read = true
		}
		return s.saveChats(ctx, cur.ID, chats)
	}
	return nil
}

// BlockUser adds the user to the current user's block set and flags
// the first chat containing that participant as blocked.
func (s *Conversations) BlockUser(ctx context.Context, userID string) error {
	if err := s.identity.BlockUser(ctx, userID); err != nil {
		return err
	}
	return s.setChatBlocked(ctx, userID, true)
}

// UnblockUser removes the user from the block set and clears the
// blocked flag on the first chat containing that participant.
func (s *Conversations) UnblockUser(ctx context.Context, userID string) error {
	if err := s.identity.UnblockUser(ctx, userID); err != nil {
		return err
	}
	return s.setChatBlocked(ctx, userID, false)
}

func (s *Conversations) setChatBlocked(ctx context.Context, userID string, blocked bool) error {
	cur, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}
	chats, err := s.loadChats(ctx, cur.ID)
	if err != nil {
		return err
	}
	for i := range chats {
		if containsID(chats[i].Participants, userID) {
			chats[i].IsBlocked = blocked
			return s.saveChats(ctx, cur.ID, chats)
		}
	}
	return nil
}

// Bootstrap seeds the default chats for a freshly registered user: a
// system welcome chat with one unread message and an empty saved
// messages chat. Seeding runs only when the user has no chats yet.
func (s *Conversations) Bootstrap(ctx context.Context, userID string) error {
	chats, err := s.loadChats(ctx, userID)
	if err != nil {
		return err
	}
	if len(chats) > 0 {
		return nil
	}

	now := s.now()
	welcome := models.Message{
		ID:        welcomeMessageID,
		ChatID:    systemChatID,
		SenderID:  models.SystemUserID,
		Text:      welcomeText,
		Timestamp: now,
	}
	savedID := savedChatPrefix + userID
	chats = []models.Chat{
		{
			ID:           systemChatID,
			Participants: []string{userID, models.SystemUserID},
			LastMessage:  &welcome,
			UnreadCount:  1,
			IsSystemChat: true,
			CreatedAt:    now,
		},
		{
			ID:              savedID,
			Participants:    []string{userID},
			UnreadCount:     0,
			IsSavedMessages: true,
			CreatedAt:       now,
		},
	}
	if err := s.saveChats(ctx, userID, chats); err != nil {
		return err
	}

	all := map[string][]models.Message{
		systemChatID: {welcome},
		savedID:      {},
	}
	if err := s.saveMessages(ctx, userID, all); err != nil {
		return err
	}
	s.log.Info("default chats seeded", zap.String("userId", userID))
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

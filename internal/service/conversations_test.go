package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-im/spektr/internal/models"
)

func TestBootstrap_SeedsDefaultChats(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	alice, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	welcome := chats[0]
	assert.Equal(t, systemChatID, welcome.ID)
	assert.True(t, welcome.IsSystemChat)
	assert.Equal(t, 1, welcome.UnreadCount)
	assert.ElementsMatch(t, []string{alice.ID, models.SystemUserID}, welcome.Participants)
	require.NotNil(t, welcome.LastMessage)
	assert.Equal(t, welcomeText, welcome.LastMessage.Text)
	assert.Equal(t, models.SystemUserID, welcome.LastMessage.SenderID)

	saved := chats[1]
	assert.Equal(t, savedChatPrefix+alice.ID, saved.ID)
	assert.True(t, saved.IsSavedMessages)
	assert.Equal(t, 0, saved.UnreadCount)
	assert.Equal(t, []string{alice.ID}, saved.Participants)

	msgs, err := conv.GetMessages(ctx, systemChatID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, welcomeMessageID, msgs[0].ID)

	msgs, err = conv.GetMessages(ctx, saved.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestBootstrap_RunsOnlyOnce(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	alice, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	require.NoError(t, conv.Bootstrap(ctx, alice.ID))
	chats, err := conv.List(ctx)
	require.NoError(t, err)
	assert.Len(t, chats, 2)
}

func TestSendMessage_OrderAndCache(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)
	bob, err := id.Register(ctx, "bob", "Bob", "pw2")
	require.NoError(t, err)
	_, err = id.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	chat, err := conv.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)

	first, err := conv.SendMessage(ctx, chat.ID, MessageDraft{Text: "hi"})
	require.NoError(t, err)
	second, err := conv.SendMessage(ctx, chat.ID, MessageDraft{Text: "there"})
	require.NoError(t, err)

	msgs, err := conv.GetMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, chats[0].ID, "active chat moves to the front")
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, second.ID, chats[0].LastMessage.ID)
	assert.Equal(t, 0, chats[0].UnreadCount, "own messages do not bump unread")
}

func TestSendMessage_IncomingBumpsUnread(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)
	bob, err := id.Register(ctx, "bob", "Bob", "pw2")
	require.NoError(t, err)
	_, err = id.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	chat, err := conv.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)

	_, err = conv.SendMessage(ctx, chat.ID, MessageDraft{Text: "ping", SenderID: bob.ID})
	require.NoError(t, err)

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, chats[0].UnreadCount)
}

func TestEditMessage_UpdatesListAndCache(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	savedID := savedChatPrefix + mustCurrentID(t, id)
	sent, err := conv.SendMessage(ctx, savedID, MessageDraft{Text: "draft"})
	require.NoError(t, err)

	edited, err := conv.EditMessage(ctx, savedID, sent.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Text)
	assert.True(t, edited.Edited)

	msgs, err := conv.GetMessages(ctx, savedID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "final", msgs[0].Text)
	assert.True(t, msgs[0].Edited)

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, "final", chats[0].LastMessage.Text)
	assert.True(t, chats[0].LastMessage.Edited)
}

func TestEditMessage_Unknown(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	_, err = conv.EditMessage(ctx, systemChatID, "ghost", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMessage_RecomputesCache(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	savedID := savedChatPrefix + mustCurrentID(t, id)
	first, err := conv.SendMessage(ctx, savedID, MessageDraft{Text: "one"})
	require.NoError(t, err)
	second, err := conv.SendMessage(ctx, savedID, MessageDraft{Text: "two"})
	require.NoError(t, err)

	require.NoError(t, conv.DeleteMessage(ctx, savedID, second.ID))

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, first.ID, chats[0].LastMessage.ID, "cache falls back to the new tail")

	require.NoError(t, conv.DeleteMessage(ctx, savedID, first.ID))

	msgs, err := conv.GetMessages(ctx, savedID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	err = conv.DeleteMessage(ctx, savedID, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForwardMessage(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	alice, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	savedID := savedChatPrefix + alice.ID

	// The welcome message lives in the system chat; forward it to
	// saved messages.
	forwarded, err := conv.ForwardMessage(ctx, welcomeMessageID, savedID)
	require.NoError(t, err)

	assert.NotEqual(t, welcomeMessageID, forwarded.ID)
	assert.True(t, forwarded.Forwarded)
	assert.Equal(t, models.SystemUserID, forwarded.ForwardedFrom)
	assert.Equal(t, alice.ID, forwarded.SenderID)
	assert.Equal(t, welcomeText, forwarded.Text)

	msgs, err := conv.GetMessages(ctx, savedID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, forwarded.ID, msgs[0].ID)

	// The original stays where it was.
	msgs, err = conv.GetMessages(ctx, systemChatID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, welcomeMessageID, msgs[0].ID)
}

func TestForwardMessage_UnknownSource(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	alice, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	_, err = conv.ForwardMessage(ctx, "ghost", savedChatPrefix+alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteChat_CascadesToMessages(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	require.NoError(t, conv.DeleteChat(ctx, systemChatID))

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.NotEqual(t, systemChatID, chats[0].ID)

	msgs, err := conv.GetMessages(ctx, systemChatID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	err = conv.DeleteChat(ctx, systemChatID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreate_ReturnsSameChat(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)
	bob, err := id.Register(ctx, "bob", "Bob", "pw2")
	require.NoError(t, err)
	_, err = id.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	first, err := conv.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)
	second, err := conv.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	assert.Len(t, chats, 3, "no duplicate direct chat is created")
}

// Messages are stored per owner, not shared: bob never sees what
// alice stored under her own key, even for "their" direct chat.
func TestMessages_ArePerOwner(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)
	bob, err := id.Register(ctx, "bob", "Bob", "pw2")
	require.NoError(t, err)
	_, err = id.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	chat, err := conv.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)
	_, err = conv.SendMessage(ctx, chat.ID, MessageDraft{Text: "hi"})
	require.NoError(t, err)

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, chats[0].ID)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, "hi", chats[0].LastMessage.Text)

	_, err = id.Login(ctx, "bob", "pw2")
	require.NoError(t, err)

	msgs, err := conv.GetMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMarkRead(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)

	require.NoError(t, conv.MarkRead(ctx, systemChatID))

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, chats[0].UnreadCount)
	require.NotNil(t, chats[0].LastMessage)
	assert.True(t, chats[0].LastMessage.Read)

	msgs, err := conv.GetMessages(ctx, systemChatID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Read)
}

func TestBlockUser_FlagsChat(t *testing.T) {
	id, conv, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := id.Register(ctx, "alice", "Alice", "pw1")
	require.NoError(t, err)
	bob, err := id.Register(ctx, "bob", "Bob", "pw2")
	require.NoError(t, err)
	_, err = id.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	chat, err := conv.GetOrCreate(ctx, bob.ID)
	require.NoError(t, err)

	require.NoError(t, conv.BlockUser(ctx, bob.ID))

	cur, err := id.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Contains(t, cur.BlockedUsers, bob.ID)

	chats, err := conv.List(ctx)
	require.NoError(t, err)
	assert.True(t, findChat(t, chats, chat.ID).IsBlocked)

	require.NoError(t, conv.UnblockUser(ctx, bob.ID))
	chats, err = conv.List(ctx)
	require.NoError(t, err)
	assert.False(t, findChat(t, chats, chat.ID).IsBlocked)
}

func mustCurrentID(t *testing.T, id *Identity) string {
	t.Helper()
	cur, err := id.CurrentUser(context.Background())
	require.NoError(t, err)
	return cur.ID
}

func findChat(t *testing.T, chats []models.Chat, id string) models.Chat {
	t.Helper()
	for _, c := range chats {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("chat %s not found", id)
	return models.Chat{}
}

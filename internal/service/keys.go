package service

// Persisted key layout. One record family per concern; chats and
// messages are keyed per owning user, so each account's data set is
// independent.
const (
	keyUsers       = "users"
	keyCurrentUser = "currentUserId"
	keyTheme       = "theme"
)

func chatsKey(userID string) string {
	return "chats_" + userID
}

func messagesKey(userID string) string {
	return "messages_" + userID
}

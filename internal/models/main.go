// Package models defines the persisted data structures for users,
// chats, messages, and themes.
package models

import "time"

// SystemUserID is the reserved identifier of the built-in Spektr
// account. It cannot be registered and its profile is synthesized
// on lookup rather than read from the user mapping.
const SystemUserID = "spektr"

// Presence status values.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// User represents an application user profile.
type User struct {
	// ID is the unique identifier for the user, stable for the
	// lifetime of the account.
	ID string `json:"id"`
	// Username is the unique handle chosen at registration.
	Username string `json:"username"`
	// Name is the display name shown in chat lists.
	Name string `json:"name"`
	// Avatar is a URL to the user's avatar image.
	Avatar string `json:"avatar"`
	// Bio holds free-form biography text.
	Bio string `json:"bio"`
	// Status is the presence status, "online" or "offline".
	Status string `json:"status"`
	// CustomStatus is an optional free-text status line.
	CustomStatus string `json:"customStatus"`
	// IsVerified marks official accounts.
	IsVerified bool `json:"isVerified"`
	// BlockedUsers holds identifiers of users blocked by this user.
	BlockedUsers []string `json:"blockedUsers"`
	// CreatedAt is the registration timestamp.
	CreatedAt time.Time `json:"createdAt"`
	// LastSeenAt is the last-seen timestamp, if recorded.
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	// ShowLastSeen controls visibility of LastSeenAt to others.
	ShowLastSeen bool `json:"showLastSeen"`
}

// UserRecord pairs a user profile with its credential as stored in
// the "users" mapping. The password is kept in plain text to match
// the reference storage layout.
type UserRecord struct {
	User     User   `json:"user"`
	Password string `json:"password"`
}

// ProfileUpdate carries the optional fields of a profile edit.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	Status       *string `json:"status,omitempty"`
	CustomStatus *string `json:"customStatus,omitempty"`
	ShowLastSeen *bool   `json:"showLastSeen,omitempty"`
}

// Apply merges the set fields of the update into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.CustomStatus != nil {
		u.CustomStatus = *p.CustomStatus
	}
	if p.ShowLastSeen != nil {
		u.ShowLastSeen = *p.ShowLastSeen
	}
}

// MediaType identifies the kind of a media attachment.
type MediaType string

const (
	// MediaImage is an image attachment.
	MediaImage MediaType = "image"
	// MediaVideo is a video attachment.
	MediaVideo MediaType = "video"
	// MediaDocument is a generic file attachment.
	MediaDocument MediaType = "document"
)

// MediaAttachment describes a media payload attached to a message.
type MediaAttachment struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
	Name string    `json:"name,omitempty"`
	Size int64     `json:"size,omitempty"`
}

// Message is a single chat message. A message belongs to exactly one
// chat; forwarding creates a new message with a fresh identifier in
// the target chat instead of moving the original.
type Message struct {
	ID       string `json:"id"`
	ChatID   string `json:"chatId"`
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
	// Timestamp is the send time.
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	Edited    bool      `json:"edited,omitempty"`
	Forwarded bool      `json:"forwarded,omitempty"`
	// ForwardedFrom records the original sender when Forwarded is set.
	ForwardedFrom string           `json:"forwardedFrom,omitempty"`
	Media         *MediaAttachment `json:"media,omitempty"`
}

// Chat is a conversation summary: participants, the cached last
// message, and the unread counter, as distinct from the full message
// list stored separately.
type Chat struct {
	ID string `json:"id"`
	// Participants holds the user identifiers in the chat: one for
	// saved messages, two for direct chats.
	Participants []string `json:"participants"`
	// LastMessage caches the most recent message for list rendering.
	LastMessage *Message `json:"lastMessage,omitempty"`
	UnreadCount int      `json:"unreadCount"`
	// IsBlocked mirrors the block state of the counterpart user.
	IsBlocked bool `json:"isBlocked,omitempty"`
	// IsSystemChat and IsSavedMessages are mutually exclusive
	// classification flags.
	IsSystemChat    bool      `json:"isSystemChat,omitempty"`
	IsSavedMessages bool      `json:"isSavedMessages,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Theme identifies a UI color theme.
type Theme string

// The fixed set of selectable themes.
const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSpektr Theme = "spektr"
	ThemeOcean  Theme = "ocean"
	ThemeSunset Theme = "sunset"
	ThemeForest Theme = "forest"
	ThemeRose   Theme = "rose"
)

// Valid reports whether t is one of the selectable themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSpektr, ThemeOcean, ThemeSunset, ThemeForest, ThemeRose:
		return true
	}
	return false
}

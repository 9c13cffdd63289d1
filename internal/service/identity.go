// Package service implements the Spektr persistence stores: identity,
// conversations, and settings. Each store works against an injected
// storage.KV and performs synchronous read-modify-write cycles on the
// JSON records of the persisted key layout. There is no coordination
// between concurrent writers of the same key space; the last write to
// a key wins.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spektr-im/spektr/internal/models"
	"github.com/spektr-im/spektr/internal/storage"
)

const (
	systemPassword = "zzzz-2014"

	avatarBase       = "https://api.dicebear.com/7.x/avataaars/svg?seed="
	systemAvatarBase = "https://api.dicebear.com/7.x/bottts/svg?seed="
)

// Bootstrapper seeds the default chats for a freshly registered user.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, userID string) error
}

// Identity manages user records, credentials, and the session pointer.
type Identity struct {
	kv        storage.KV
	log       *zap.Logger
	bootstrap Bootstrapper

	now   func() time.Time
	newID func() string
}

// NewIdentity constructs an Identity store over the given KV.
func NewIdentity(kv storage.KV, log *zap.Logger) *Identity {
	return &Identity{
		kv:    kv,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SetBootstrapper wires the conversation bootstrap that runs once
// after registration. Wired separately because the conversation store
// in turn reads the current identity from this store.
func (s *Identity) SetBootstrapper(b Bootstrapper) {
	s.bootstrap = b
}

func (s *Identity) loadUsers(ctx context.Context) (map[string]models.UserRecord, error) {
	users := make(map[string]models.UserRecord)
	if err := storage.ReadJSON(ctx, s.kv, keyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Identity) saveUsers(ctx context.Context, users map[string]models.UserRecord) error {
	return storage.WriteJSON(ctx, s.kv, keyUsers, users)
}

// Register creates a new account, persists its credential, makes it
// the current session, and seeds the default chats. It fails with
// ErrDuplicateUsername if the username is already taken.
func (s *Identity) Register(ctx context.Context, username, name, password string) (models.User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, rec := range users {
		if rec.User.Username == username {
			return models.User{}, ErrDuplicateUsername
		}
	}

	now := s.now()
	user := models.User{
		ID:           s.newID(),
		Username:     username,
		Name:         name,
		Avatar:       avatarBase + username,
		Status:       models.StatusOnline,
		BlockedUsers: []string{},
		CreatedAt:    now,
		LastSeenAt:   &now,
		ShowLastSeen: true,
	}
	users[user.ID] = models.UserRecord{User: user, Password: password}
	ensureSystemAccount(users, now)

	if err := s.saveUsers(ctx, users); err != nil {
		return models.User{}, err
	}
	if err := storage.WriteJSON(ctx, s.kv, keyCurrentUser, user.ID); err != nil {
		return models.User{}, err
	}
	if s.bootstrap != nil {
		if err := s.bootstrap.Bootstrap(ctx, user.ID); err != nil {
			return models.User{}, fmt.Errorf("bootstrap chats: %w", err)
		}
	}

	s.log.Info("user registered", zap.String("userId", user.ID), zap.String("username", username))
	return user, nil
}

// Login authenticates by exact username and password match and sets
// the session pointer. Failures are reported uniformly as
// ErrInvalidCredentials.
func (s *Identity) Login(ctx context.Context, username, password string) (models.User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, rec := range users {
		if rec.User.Username == username && rec.Password == password {
			if err := storage.WriteJSON(ctx, s.kv, keyCurrentUser, rec.User.ID); err != nil {
				return models.User{}, err
			}
			s.log.Info("user logged in", zap.String("userId", rec.User.ID))
			return rec.User, nil
		}
	}
	return models.User{}, ErrInvalidCredentials
}

// Logout clears the session pointer. It never fails on an already
// empty session.
func (s *Identity) Logout(ctx context.Context) error {
	return s.kv.Delete(ctx, keyCurrentUser)
}

// CurrentUser resolves the session pointer against the user mapping.
// A missing or dangling pointer yields ErrNoCurrentUser.
func (s *Identity) CurrentUser(ctx context.Context) (models.User, error) {
	var id string
	if err := storage.ReadJSON(ctx, s.kv, keyCurrentUser, &id); err != nil {
		return models.User{}, err
	}
	if id == "" {
		return models.User{}, ErrNoCurrentUser
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	rec, ok := users[id]
	if !ok {
		return models.User{}, ErrNoCurrentUser
	}
	return rec.User, nil
}

// UpdateProfile merges the provided fields into the current user's
// record and returns the updated profile.
func (s *Identity) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	cur, err := s.CurrentUser(ctx)
	if err != nil {
		return models.User{}, err
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	rec := users[cur.ID]
	upd.Apply(&rec.User)
	users[cur.ID] = rec
	if err := s.saveUsers(ctx, users); err != nil {
		return models.User{}, err
	}
	return rec.User, nil
}

// ChangePassword replaces the current user's credential if
// oldPassword matches the stored one.
func (s *Identity) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	cur, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	rec := users[cur.ID]
	if rec.Password != oldPassword {
		return ErrWrongOldPassword
	}
	rec.Password = newPassword
	users[cur.ID] = rec
	return s.saveUsers(ctx, users)
}

// BlockUser adds userID to the current user's block set. Blocking an
// already blocked user is a no-op.
func (s *Identity) BlockUser(ctx context.Context, userID string) error {
	return s.mutateBlockSet(ctx, userID, true)
}

// UnblockUser removes userID from the current user's block set.
// Unblocking a user that is not blocked is a no-op.
func (s *Identity) UnblockUser(ctx context.Context, userID string) error {
	return s.mutateBlockSet(ctx, userID, false)
}

func (s *Identity) mutateBlockSet(ctx context.Context, userID string, block bool) error {
	cur, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	rec := users[cur.ID]

	blocked := rec.User.BlockedUsers
	if block {
		for _, id := range blocked {
			if id == userID {
				return nil
			}
		}
		blocked = append(blocked, userID)
	} else {
		next := blocked[:0]
		for _, id := range blocked {
			if id != userID {
				next = append(next, id)
			}
		}
		blocked = next
	}
	rec.User.BlockedUsers = blocked
	users[cur.ID] = rec
	return s.saveUsers(ctx, users)
}

// LookupUser resolves a public profile by identifier. The reserved
// system identifier is synthesized rather than read from storage.
func (s *Identity) LookupUser(ctx context.Context, userID string) (models.User, error) {
	if userID == models.SystemUserID {
		return systemUser(), nil
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	rec, ok := users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return rec.User, nil
}

// SearchUsers returns users whose username contains query,
// case-insensitively, excluding the current user. The result order is
// unspecified.
func (s *Identity) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	curID := ""
	if cur, err := s.CurrentUser(ctx); err == nil {
		curID = cur.ID
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matched := []models.User{}
	for _, rec := range users {
		if rec.User.ID == curID {
			continue
		}
		if strings.Contains(strings.ToLower(rec.User.Username), q) {
			matched = append(matched, rec.User)
		}
	}
	return matched, nil
}

// systemUser is the synthesized profile of the built-in account.
func systemUser() models.User {
	return models.User{
		ID:           models.SystemUserID,
		Username:     "spektr",
		Name:         "Spektr",
		Avatar:       systemAvatarBase + "spektr",
		Bio:          "Официальный аккаунт Spektr",
		Status:       models.StatusOnline,
		CustomStatus: "Всегда на связи",
		IsVerified:   true,
		BlockedUsers: []string{},
		CreatedAt:    time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC),
		ShowLastSeen: true,
	}
}

// ensureSystemAccount seeds the stored system account so that search
// and chat lists can resolve it like any other user.
func ensureSystemAccount(users map[string]models.UserRecord, now time.Time) {
	if _, ok := users[models.SystemUserID]; ok {
		return
	}
	u := systemUser()
	u.LastSeenAt = &now
	users[models.SystemUserID] = models.UserRecord{User: u, Password: systemPassword}
}

package service

import (
	"context"

	"github.com/spektr-im/spektr/internal/models"
	"github.com/spektr-im/spektr/internal/storage"
)

// Settings persists UI preferences. The only preference today is the
// selected theme.
type Settings struct {
	kv storage.KV
}

// NewSettings constructs a Settings store over the given KV.
func NewSettings(kv storage.KV) *Settings {
	return &Settings{kv: kv}
}

// Theme returns the persisted theme. Absent or unknown values fall
// back to the light theme.
func (s *Settings) Theme(ctx context.Context) (models.Theme, error) {
	var theme models.Theme
	if err := storage.ReadJSON(ctx, s.kv, keyTheme, &theme); err != nil {
		return "", err
	}
	if !theme.Valid() {
		return models.ThemeLight, nil
	}
	return theme, nil
}

// SetTheme persists the selected theme. Themes outside the fixed set
// are rejected with ErrUnknownTheme.
func (s *Settings) SetTheme(ctx context.Context, theme models.Theme) error {
	if !theme.Valid() {
		return ErrUnknownTheme
	}
	return storage.WriteJSON(ctx, s.kv, keyTheme, theme)
}

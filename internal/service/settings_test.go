package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-im/spektr/internal/models"
	"github.com/spektr-im/spektr/internal/storage"
)

func TestTheme_DefaultsToLight(t *testing.T) {
	s := NewSettings(storage.NewMemory())

	theme, err := s.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, theme)
}

func TestSetTheme_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSettings(storage.NewMemory())

	require.NoError(t, s.SetTheme(ctx, models.ThemeOcean))
	theme, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeOcean, theme)
}

func TestSetTheme_RejectsUnknown(t *testing.T) {
	s := NewSettings(storage.NewMemory())

	err := s.SetTheme(context.Background(), "neon")
	assert.ErrorIs(t, err, ErrUnknownTheme)
}

func TestTheme_UnknownPersistedValueFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, keyTheme, []byte(`"neon"`)))

	theme, err := NewSettings(kv).Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, theme)
}

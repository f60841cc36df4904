package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chatpanel/internal/config"
	"chatpanel/internal/store"
)

func setTestConfig(t *testing.T, cfg config.Config) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestSettingsGet_DefaultsWhenNothingStored(t *testing.T) {
	setTestConfig(t, config.Config{LoggingEnabled: true, TimestampsEnabled: true})
	svc := NewSettingsService(store.NewMemoryStore())

	got := svc.Get()
	require.NotEmpty(t, got.SystemPromptA)
	require.Equal(t, got.SystemPromptA, got.SystemPromptB, "both bots share the default persona")
	require.True(t, got.LoggingEnabled)
}

func TestSettingsSetThenGet(t *testing.T) {
	setTestConfig(t, config.Config{})
	svc := NewSettingsService(store.NewMemoryStore())

	want := store.Settings{
		SystemPromptA:     "warm persona",
		SystemPromptB:     "formal persona",
		LoggingEnabled:    true,
		TimestampsEnabled: false,
	}
	require.NoError(t, svc.Set(want))

	got := svc.Get()
	require.Equal(t, want.SystemPromptA, got.SystemPromptA)
	require.Equal(t, want.SystemPromptB, got.SystemPromptB)
	require.Equal(t, want.LoggingEnabled, got.LoggingEnabled)
	require.Equal(t, want.TimestampsEnabled, got.TimestampsEnabled)
	require.False(t, got.LastUpdated.IsZero())
}

func TestSettingsSet_RejectsEmptyPromptAndKeepsPrior(t *testing.T) {
	setTestConfig(t, config.Config{})
	svc := NewSettingsService(store.NewMemoryStore())

	require.NoError(t, svc.Set(store.Settings{SystemPromptA: "a", SystemPromptB: "b"}))

	err := svc.Set(store.Settings{SystemPromptA: "", SystemPromptB: "b2"})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "systemPromptA", validationErr.Field)

	got := svc.Get()
	require.Equal(t, "a", got.SystemPromptA, "rejected save must not alter stored settings")
	require.Equal(t, "b", got.SystemPromptB)
}

func TestSettingsGet_EnvOverrideWins(t *testing.T) {
	setTestConfig(t, config.Config{
		SystemPromptA:  "env prompt a",
		SystemPromptB:  "env prompt b",
		LoggingEnabled: false,
	})
	svc := NewSettingsService(store.NewMemoryStore())

	require.NoError(t, svc.Set(store.Settings{SystemPromptA: "stored a", SystemPromptB: "stored b", LoggingEnabled: true}))

	got := svc.Get()
	require.Equal(t, "env prompt a", got.SystemPromptA)
	require.Equal(t, "env prompt b", got.SystemPromptB)
	require.True(t, got.LoggingEnabled, "env prompt overrides must not touch the stored toggles")
}

func TestSettingsGet_EnvOverrideIsPerPrompt(t *testing.T) {
	setTestConfig(t, config.Config{SystemPromptA: "env prompt a"})
	svc := NewSettingsService(store.NewMemoryStore())

	require.NoError(t, svc.Set(store.Settings{
		SystemPromptA:     "stored a",
		SystemPromptB:     "stored b",
		LoggingEnabled:    true,
		TimestampsEnabled: true,
	}))

	got := svc.Get()
	require.Equal(t, "env prompt a", got.SystemPromptA)
	require.Equal(t, "stored b", got.SystemPromptB, "only the prompt set in the environment is overridden")
	require.True(t, got.LoggingEnabled)
	require.True(t, got.TimestampsEnabled)
}

func TestProfiles_SaveAppliesAndLoadRestores(t *testing.T) {
	setTestConfig(t, config.Config{})
	svc := NewSettingsService(store.NewMemoryStore())

	_, err := svc.SaveProfile("warm", store.Settings{SystemPromptA: "warm a", SystemPromptB: "warm b"})
	require.NoError(t, err)
	require.Equal(t, "warm a", svc.Get().SystemPromptA, "saving a profile applies it")

	require.NoError(t, svc.Set(store.Settings{SystemPromptA: "other a", SystemPromptB: "other b"}))

	profile, err := svc.LoadProfile("warm")
	require.NoError(t, err)
	require.Equal(t, "warm", profile.Name)
	require.Equal(t, "warm a", svc.Get().SystemPromptA)
}

func TestProfiles_LoadMissingLeavesConfigUntouched(t *testing.T) {
	setTestConfig(t, config.Config{})
	svc := NewSettingsService(store.NewMemoryStore())

	require.NoError(t, svc.Set(store.Settings{SystemPromptA: "a", SystemPromptB: "b"}))

	_, err := svc.LoadProfile("nope")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, "a", svc.Get().SystemPromptA)
}

func TestProfiles_SaveRequiresName(t *testing.T) {
	setTestConfig(t, config.Config{})
	svc := NewSettingsService(store.NewMemoryStore())

	_, err := svc.SaveProfile("", store.Settings{SystemPromptA: "a", SystemPromptB: "b"})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestProfiles_Delete(t *testing.T) {
	setTestConfig(t, config.Config{})
	svc := NewSettingsService(store.NewMemoryStore())

	_, err := svc.SaveProfile("warm", store.Settings{SystemPromptA: "a", SystemPromptB: "b"})
	require.NoError(t, err)

	removed, err := svc.DeleteProfile("warm")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = svc.DeleteProfile("warm")
	require.NoError(t, err)
	require.False(t, removed)
}

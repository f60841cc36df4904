package core

import (
	"log"
	"time"

	"chatpanel/internal/config"
	"chatpanel/internal/store"
)

// defaultSystemPrompt mirrors the persona the production deployment shipped
// with. Both bots start from the same text until the admin differentiates them.
const defaultSystemPrompt = "Sen gelişmiş yeteneklere sahip uzman bir yapay zeka asistanısın. " +
	"Detaylı, kapsamlı ve uzman düzeyinde yanıtlar ver. Karmaşık konuları açıklayabilir, " +
	"analiz yapabilir, problem çözebilir ve yaratıcı çözümler üretebilirsin. " +
	"ÖNEMLİ: Tüm yanıtlarını MUTLAKA Türkçe olarak ver."

// SettingsService owns the active configuration. Reads fall through a
// priority chain: deployment env override, then the stored record, then
// built-in defaults, so Get never fails.
type SettingsService struct {
	dbStore store.Store
}

func NewSettingsService(db store.Store) *SettingsService {
	return &SettingsService{dbStore: db}
}

func (s *SettingsService) Get() store.Settings {
	cfg := s.defaults()

	stored, err := s.dbStore.GetSettings()
	if err != nil {
		log.Printf("Error reading settings, falling back to defaults: %v", err)
	} else if stored != nil {
		cfg = *stored
	}

	// Deployment env overrides apply per prompt and leave the admin's
	// logging and timestamp toggles alone.
	env := config.AppConfig
	if env.SystemPromptA != "" {
		cfg.SystemPromptA = env.SystemPromptA
	}
	if env.SystemPromptB != "" {
		cfg.SystemPromptB = env.SystemPromptB
	}
	return cfg
}

func (s *SettingsService) defaults() store.Settings {
	return store.Settings{
		SystemPromptA:     defaultSystemPrompt,
		SystemPromptB:     defaultSystemPrompt,
		LoggingEnabled:    config.AppConfig.LoggingEnabled,
		TimestampsEnabled: config.AppConfig.TimestampsEnabled,
	}
}

// Set validates and replaces the configuration wholesale. The returned error
// reflects the durability write, not just the in-memory update; concurrent
// saves are last-writer-wins.
func (s *SettingsService) Set(cfg store.Settings) error {
	if cfg.SystemPromptA == "" {
		return &ValidationError{Field: "systemPromptA", Message: "system prompt must not be empty"}
	}
	if cfg.SystemPromptB == "" {
		return &ValidationError{Field: "systemPromptB", Message: "system prompt must not be empty"}
	}

	cfg.LastUpdated = time.Now()
	return s.dbStore.SaveSettings(&cfg)
}

// SaveProfile stores a named snapshot and immediately applies it as the
// active configuration, matching the admin panel's "save and use" button.
func (s *SettingsService) SaveProfile(name string, cfg store.Settings) (*store.PromptProfile, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "profile name is required"}
	}
	if err := s.Set(cfg); err != nil {
		return nil, err
	}

	profile := store.PromptProfile{Name: name, Settings: cfg}
	if err := s.dbStore.SaveProfile(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LoadProfile applies the named snapshot as the active configuration. A
// missing name returns store.ErrNotFound and leaves the configuration as is.
func (s *SettingsService) LoadProfile(name string) (*store.PromptProfile, error) {
	profile, err := s.dbStore.GetProfile(name)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, store.ErrNotFound
	}
	if err := s.Set(profile.Settings); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *SettingsService) ListProfiles() ([]store.PromptProfile, error) {
	return s.dbStore.ListProfiles()
}

func (s *SettingsService) DeleteProfile(name string) (bool, error) {
	return s.dbStore.DeleteProfile(name)
}

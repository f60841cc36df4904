package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. State is lost on restart,
// so it is only suitable for tests and throwaway demo runs.
type MemoryStore struct {
	mu          sync.RWMutex
	settings    *Settings
	transcripts []Transcript
	conversions []Conversion
	profiles    map[string]PromptProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]PromptProfile),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetSettings() (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	cfg := *s.settings
	return &cfg, nil
}

func (s *MemoryStore) SaveSettings(cfg *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.LastUpdated.IsZero() {
		cfg.LastUpdated = time.Now()
	}
	copied := *cfg
	s.settings = &copied
	return nil
}

func (s *MemoryStore) AppendTranscript(t *Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.transcripts = append([]Transcript{*t}, s.transcripts...)
	if len(s.transcripts) > MaxTranscripts {
		s.transcripts = s.transcripts[:MaxTranscripts]
	}
	return nil
}

func (s *MemoryStore) ListTranscripts() ([]Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transcript, len(s.transcripts))
	copy(out, s.transcripts)
	return out, nil
}

func (s *MemoryStore) GetTranscript(id string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.transcripts {
		if s.transcripts[i].ID == id {
			t := s.transcripts[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) DeleteTranscript(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transcripts {
		if s.transcripts[i].ID == id {
			s.transcripts = append(s.transcripts[:i], s.transcripts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ClearTranscripts() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = nil
	return nil
}

func (s *MemoryStore) AppendConversion(c *Conversion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.conversions = append([]Conversion{*c}, s.conversions...)
	return nil
}

func (s *MemoryStore) ListConversions() ([]Conversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversion, len(s.conversions))
	copy(out, s.conversions)
	return out, nil
}

func (s *MemoryStore) SaveProfile(p *PromptProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.profiles[p.Name]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.Name] = *p
	return nil
}

func (s *MemoryStore) GetProfile(name string) (*PromptProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) ListProfiles() ([]PromptProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := make([]PromptProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

func (s *MemoryStore) DeleteProfile(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return false, nil
	}
	delete(s.profiles, name)
	return true, nil
}

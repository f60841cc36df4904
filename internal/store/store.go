package store

import "errors"

// MaxTranscripts caps the transcript log. Appends beyond the cap silently
// evict the oldest entries.
const MaxTranscripts = 1000

var ErrNotFound = errors.New("not found")

// Store is the durability backend behind the settings, transcript and
// profile services. The sqlite implementation is the production backend and
// the single source of truth for one instance; the deployment is explicitly
// single-instance, and running several instances against separate database
// files gives each its own independent state. Swapping in a shared database
// is the multi-instance upgrade path.
type Store interface {
	// GetSettings returns the stored settings, or nil when none were saved yet.
	GetSettings() (*Settings, error)
	SaveSettings(s *Settings) error

	// AppendTranscript inserts at the head, assigning ID and CreatedAt when
	// unset, and evicts the oldest entries past MaxTranscripts.
	AppendTranscript(t *Transcript) error
	// ListTranscripts returns all transcripts newest first.
	ListTranscripts() ([]Transcript, error)
	// GetTranscript returns nil when no transcript has the given id.
	GetTranscript(id string) (*Transcript, error)
	// DeleteTranscript reports whether an entry was removed.
	DeleteTranscript(id string) (bool, error)
	ClearTranscripts() error

	// AppendConversion inserts one engagement event, assigning ID and
	// CreatedAt when unset.
	AppendConversion(c *Conversion) error
	ListConversions() ([]Conversion, error)

	SaveProfile(p *PromptProfile) error
	GetProfile(name string) (*PromptProfile, error)
	ListProfiles() ([]PromptProfile, error)
	DeleteProfile(name string) (bool, error)

	Close() error
}

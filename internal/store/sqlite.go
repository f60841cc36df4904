package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS settings (
        id INTEGER PRIMARY KEY CHECK (id = 1), -- singleton row
        system_prompt_a TEXT NOT NULL,
        system_prompt_b TEXT NOT NULL,
        logging_enabled BOOLEAN NOT NULL DEFAULT TRUE,
        timestamps_enabled BOOLEAN NOT NULL DEFAULT TRUE,
        last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS transcripts (
        id TEXT PRIMARY KEY, -- UUID
        bot_id TEXT NOT NULL CHECK (bot_id IN ('A', 'B')),
        session_id TEXT,
        title TEXT NOT NULL,
        messages_json TEXT NOT NULL, -- JSON array of {role, content, timestamp?}
        ip_address TEXT,
        user_agent TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS conversions (
        id TEXT PRIMARY KEY, -- UUID
        conversation_id TEXT NOT NULL,
        product_id TEXT NOT NULL,
        event_type TEXT NOT NULL CHECK (event_type IN ('view', 'inquiry', 'add_to_cart', 'purchase_intent')),
        value REAL NOT NULL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS prompt_profiles (
        name TEXT PRIMARY KEY,
        settings_json TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Settings methods
func (s *SQLiteStore) GetSettings() (*Settings, error) {
	var cfg Settings
	err := s.db.QueryRow("SELECT system_prompt_a, system_prompt_b, logging_enabled, timestamps_enabled, last_updated FROM settings WHERE id = 1").
		Scan(&cfg.SystemPromptA, &cfg.SystemPromptB, &cfg.LoggingEnabled, &cfg.TimestampsEnabled, &cfg.LastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Nothing saved yet
		}
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	return &cfg, nil
}

func (s *SQLiteStore) SaveSettings(cfg *Settings) error {
	stmt, err := s.db.Prepare(`
        INSERT INTO settings (id, system_prompt_a, system_prompt_b, logging_enabled, timestamps_enabled, last_updated)
        VALUES (1, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            system_prompt_a = excluded.system_prompt_a,
            system_prompt_b = excluded.system_prompt_b,
            logging_enabled = excluded.logging_enabled,
            timestamps_enabled = excluded.timestamps_enabled,
            last_updated = excluded.last_updated`)
	if err != nil {
		return fmt.Errorf("failed to prepare settings upsert: %w", err)
	}
	defer stmt.Close()

	if cfg.LastUpdated.IsZero() {
		cfg.LastUpdated = time.Now()
	}
	_, err = stmt.Exec(cfg.SystemPromptA, cfg.SystemPromptB, cfg.LoggingEnabled, cfg.TimestampsEnabled, cfg.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to execute settings upsert: %w", err)
	}
	return nil
}

// Transcript methods
func (s *SQLiteStore) AppendTranscript(t *Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	messagesBytes, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	stmt, err := s.db.Prepare("INSERT INTO transcripts (id, bot_id, session_id, title, messages_json, ip_address, user_agent, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare transcript insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(t.ID, t.BotID, t.SessionID, t.Title, string(messagesBytes), t.IPAddress, t.UserAgent, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute transcript insert: %w", err)
	}

	// FIFO cap: anything older than the newest MaxTranscripts goes.
	_, err = s.db.Exec(`
        DELETE FROM transcripts WHERE id NOT IN (
            SELECT id FROM transcripts ORDER BY created_at DESC, rowid DESC LIMIT ?
        )`, MaxTranscripts)
	if err != nil {
		return fmt.Errorf("failed to evict old transcripts: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListTranscripts() ([]Transcript, error) {
	rows, err := s.db.Query("SELECT id, bot_id, session_id, title, messages_json, ip_address, user_agent, created_at FROM transcripts ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var transcripts []Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		transcripts = append(transcripts, *t)
	}
	return transcripts, rows.Err()
}

func (s *SQLiteStore) GetTranscript(id string) (*Transcript, error) {
	row := s.db.QueryRow("SELECT id, bot_id, session_id, title, messages_json, ip_address, user_agent, created_at FROM transcripts WHERE id = ?", id)
	t, err := scanTranscript(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row rowScanner) (*Transcript, error) {
	var t Transcript
	var sessionID, ipAddress, userAgent sql.NullString
	var messagesJSON string
	if err := row.Scan(&t.ID, &t.BotID, &sessionID, &t.Title, &messagesJSON, &ipAddress, &userAgent, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transcript row: %w", err)
	}
	t.SessionID = sessionID.String
	t.IPAddress = ipAddress.String
	t.UserAgent = userAgent.String
	if err := json.Unmarshal([]byte(messagesJSON), &t.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages for transcript %s: %w", t.ID, err)
	}
	return &t, nil
}

func (s *SQLiteStore) DeleteTranscript(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM transcripts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transcript: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (s *SQLiteStore) ClearTranscripts() error {
	_, err := s.db.Exec("DELETE FROM transcripts")
	if err != nil {
		return fmt.Errorf("failed to clear transcripts: %w", err)
	}
	return nil
}

// Conversion methods
func (s *SQLiteStore) AppendConversion(c *Conversion) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	stmt, err := s.db.Prepare("INSERT INTO conversions (id, conversation_id, product_id, event_type, value, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare conversion insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(c.ID, c.ConversationID, c.ProductID, c.EventType, c.Value, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute conversion insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListConversions() ([]Conversion, error) {
	rows, err := s.db.Query("SELECT id, conversation_id, product_id, event_type, value, created_at FROM conversions ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var conversions []Conversion
	for rows.Next() {
		var c Conversion
		if err := rows.Scan(&c.ID, &c.ConversationID, &c.ProductID, &c.EventType, &c.Value, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversion row: %w", err)
		}
		conversions = append(conversions, c)
	}
	return conversions, rows.Err()
}

// Profile methods
func (s *SQLiteStore) SaveProfile(p *PromptProfile) error {
	settingsBytes, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal profile settings: %w", err)
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	stmt, err := s.db.Prepare(`
        INSERT INTO prompt_profiles (name, settings_json, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (name) DO UPDATE SET
            settings_json = excluded.settings_json,
            updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare profile upsert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(p.Name, string(settingsBytes), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute profile upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProfile(name string) (*PromptProfile, error) {
	var p PromptProfile
	var settingsJSON string
	err := s.db.QueryRow("SELECT name, settings_json, created_at, updated_at FROM prompt_profiles WHERE name = ?", name).
		Scan(&p.Name, &settingsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	if err := json.Unmarshal([]byte(settingsJSON), &p.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings for profile %s: %w", p.Name, err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProfiles() ([]PromptProfile, error) {
	rows, err := s.db.Query("SELECT name, settings_json, created_at, updated_at FROM prompt_profiles ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []PromptProfile
	for rows.Next() {
		var p PromptProfile
		var settingsJSON string
		if err := rows.Scan(&p.Name, &settingsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		if err := json.Unmarshal([]byte(settingsJSON), &p.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings for profile %s: %w", p.Name, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *SQLiteStore) DeleteProfile(name string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM prompt_profiles WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

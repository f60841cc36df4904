package core

import (
	"fmt"
	"log"
	"time"

	"chatpanel/internal/store"
)

const titleMaxLen = 50

// TranscriptService owns the capped conversation log and the engagement
// events reported against it. One transcript is appended per completed
// exchange and carries the full history supplied for that turn, so the newest
// entry of a session always holds the whole conversation.
type TranscriptService struct {
	dbStore store.Store
}

func NewTranscriptService(db store.Store) *TranscriptService {
	return &TranscriptService{dbStore: db}
}

// Append validates and persists one transcript, returning its id. The store
// assigns id and creation time when unset and evicts past the 1000-entry cap.
func (s *TranscriptService) Append(t *store.Transcript) (string, error) {
	if t.BotID != store.BotA && t.BotID != store.BotB {
		return "", &ValidationError{Field: "botId", Message: "botId must be A or B"}
	}
	if len(t.Messages) == 0 {
		return "", &ValidationError{Field: "messages", Message: "transcript must contain at least one message"}
	}
	if t.Title == "" {
		t.Title = DeriveTitle(t.Messages)
	}
	if err := s.dbStore.AppendTranscript(t); err != nil {
		return "", fmt.Errorf("failed to append transcript: %w", err)
	}
	return t.ID, nil
}

// List returns all transcripts newest first. Backend failures degrade to an
// empty list so the admin view never errors out.
func (s *TranscriptService) List() []store.Transcript {
	transcripts, err := s.dbStore.ListTranscripts()
	if err != nil {
		log.Printf("Error listing transcripts: %v", err)
		return []store.Transcript{}
	}
	if transcripts == nil {
		return []store.Transcript{}
	}
	return transcripts
}

func (s *TranscriptService) Get(id string) (*store.Transcript, error) {
	t, err := s.dbStore.GetTranscript(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, store.ErrNotFound
	}
	return t, nil
}

// Delete reports whether an entry was removed; deleting a missing id is not
// an error, but a backend failure is.
func (s *TranscriptService) Delete(id string) (bool, error) {
	removed, err := s.dbStore.DeleteTranscript(id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transcript: %w", err)
	}
	return removed, nil
}

func (s *TranscriptService) ClearAll() bool {
	if err := s.dbStore.ClearTranscripts(); err != nil {
		log.Printf("Error clearing transcripts: %v", err)
		return false
	}
	return true
}

// TrackConversion validates and persists one engagement event from the chat
// front-end, returning its id.
func (s *TranscriptService) TrackConversion(c *store.Conversion) (string, error) {
	if c.ConversationID == "" {
		return "", &ValidationError{Field: "conversationId", Message: "conversationId is required"}
	}
	if c.ProductID == "" {
		return "", &ValidationError{Field: "productId", Message: "productId is required"}
	}
	switch c.EventType {
	case store.ConversionView, store.ConversionInquiry, store.ConversionAddToCart, store.ConversionPurchaseIntent:
	default:
		return "", &ValidationError{Field: "eventType", Message: "eventType must be view, inquiry, add_to_cart or purchase_intent"}
	}
	if err := s.dbStore.AppendConversion(c); err != nil {
		return "", fmt.Errorf("failed to track conversion: %w", err)
	}
	return c.ID, nil
}

// ExportDocument is the single downloadable document the admin panel offers.
type ExportDocument struct {
	ExportedAt time.Time          `json:"exportedAt"`
	Count      int                `json:"count"`
	Logs       []store.Transcript `json:"logs"`
}

func (s *TranscriptService) Export() ExportDocument {
	logs := s.List()
	return ExportDocument{
		ExportedAt: time.Now(),
		Count:      len(logs),
		Logs:       logs,
	}
}

type ProductEngagement struct {
	Views          int `json:"views"`
	Inquiries      int `json:"inquiries"`
	AddToCart      int `json:"addToCart"`
	PurchaseIntent int `json:"purchaseIntent"`
}

type BotStats struct {
	Conversations              int     `json:"conversations"`
	TotalMessages              int     `json:"totalMessages"`
	AvgMessagesPerConversation float64 `json:"avgMessagesPerConversation"`
	AvgDurationSeconds         float64 `json:"avgDurationSeconds"`
	Conversions                int     `json:"conversions"`
	ConversionRate             float64 `json:"conversionRate"` // percent of sessions with at least one event
}

type UsageStats struct {
	GeneratedAt        time.Time                    `json:"generatedAt"`
	TotalConversations int                          `json:"totalConversations"`
	BotA               BotStats                     `json:"botA"`
	BotB               BotStats                     `json:"botB"`
	ProductEngagement  map[string]ProductEngagement `json:"productEngagement"`
}

// Stats aggregates per-bot counts, durations and conversion metrics over the
// current log. Conversions attribute to a bot through the conversation id the
// front-end sends with both chat requests and conversion events; a session is
// counted as converted once no matter how many events it reports.
func (s *TranscriptService) Stats() UsageStats {
	stats := UsageStats{
		GeneratedAt:       time.Now(),
		ProductEngagement: make(map[string]ProductEngagement),
	}

	type botAgg struct {
		durationSum   float64
		durationCount int
		sessions      map[string]bool
		converted     map[string]bool
	}
	aggs := map[string]*botAgg{
		store.BotA: {sessions: make(map[string]bool), converted: make(map[string]bool)},
		store.BotB: {sessions: make(map[string]bool), converted: make(map[string]bool)},
	}
	botFor := make(map[string]string)

	for _, t := range s.List() {
		stats.TotalConversations++
		bucket := &stats.BotA
		agg := aggs[store.BotA]
		if t.BotID == store.BotB {
			bucket = &stats.BotB
			agg = aggs[store.BotB]
		}
		bucket.Conversations++
		bucket.TotalMessages += len(t.Messages)

		key := t.SessionID
		if key == "" {
			key = t.ID
		}
		agg.sessions[key] = true
		botFor[key] = t.BotID
		botFor[t.ID] = t.BotID // conversions may reference the transcript id directly

		if seconds, ok := transcriptDuration(t.Messages); ok {
			agg.durationSum += seconds
			agg.durationCount++
		}
	}

	conversions, err := s.dbStore.ListConversions()
	if err != nil {
		log.Printf("Error listing conversions: %v", err)
	}
	for _, c := range conversions {
		pe := stats.ProductEngagement[c.ProductID]
		switch c.EventType {
		case store.ConversionView:
			pe.Views++
		case store.ConversionInquiry:
			pe.Inquiries++
		case store.ConversionAddToCart:
			pe.AddToCart++
		case store.ConversionPurchaseIntent:
			pe.PurchaseIntent++
		}
		stats.ProductEngagement[c.ProductID] = pe

		botID, ok := botFor[c.ConversationID]
		if !ok {
			continue // event for a conversation the log no longer holds
		}
		aggs[botID].converted[c.ConversationID] = true
	}

	finalize := func(bucket *BotStats, agg *botAgg) {
		if bucket.Conversations > 0 {
			bucket.AvgMessagesPerConversation = float64(bucket.TotalMessages) / float64(bucket.Conversations)
		}
		if agg.durationCount > 0 {
			bucket.AvgDurationSeconds = agg.durationSum / float64(agg.durationCount)
		}
		bucket.Conversions = len(agg.converted)
		if len(agg.sessions) > 0 {
			bucket.ConversionRate = float64(len(agg.converted)) / float64(len(agg.sessions)) * 100
		}
	}
	finalize(&stats.BotA, aggs[store.BotA])
	finalize(&stats.BotB, aggs[store.BotB])
	return stats
}

// transcriptDuration measures first to last message timestamp. Transcripts
// logged with timestamps disabled have no measurable duration.
func transcriptDuration(messages []store.ChatMessage) (float64, bool) {
	var first, last *time.Time
	for i := range messages {
		ts := messages[i].Timestamp
		if ts == nil {
			continue
		}
		if first == nil {
			first = ts
		}
		last = ts
	}
	if first == nil || last == first {
		return 0, false
	}
	d := last.Sub(*first)
	if d < 0 {
		return 0, false
	}
	return d.Seconds(), true
}

// DeriveTitle builds the list label from the first user message, truncated to
// 50 characters.
func DeriveTitle(messages []store.ChatMessage) string {
	for _, m := range messages {
		if m.Role != store.RoleUser || m.Content == "" {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return m.Content
	}
	return "Untitled conversation"
}

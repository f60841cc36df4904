package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatpanel/internal/store"
)

func TestExport_EmptyStore(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	doc := svc.Export()
	require.Zero(t, doc.Count)
	require.NotNil(t, doc.Logs)
	require.Empty(t, doc.Logs)
	require.False(t, doc.ExportedAt.IsZero())
}

func TestExport_CountMatchesLogs(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	for i := 0; i < 3; i++ {
		_, err := svc.Append(&store.Transcript{
			BotID:    store.BotA,
			Messages: []store.ChatMessage{{Role: store.RoleUser, Content: "hi"}},
		})
		require.NoError(t, err)
	}

	doc := svc.Export()
	require.Equal(t, 3, doc.Count)
	require.Len(t, doc.Logs, 3)
}

func TestAppend_RejectsEmptyTranscript(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	_, err := svc.Append(&store.Transcript{BotID: store.BotA})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Append(&store.Transcript{
		BotID:    "X",
		Messages: []store.ChatMessage{{Role: store.RoleUser, Content: "hi"}},
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	_, err := svc.Get("missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	id, err := svc.Append(&store.Transcript{
		BotID:    store.BotA,
		Messages: []store.ChatMessage{{Role: store.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	removed, err := svc.Delete(id)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = svc.Delete(id)
	require.NoError(t, err)
	require.False(t, removed, "deleting a missing id reports false, not an error")
}

// failingDeleteStore wraps a working store but refuses transcript deletes.
type failingDeleteStore struct {
	store.Store
}

func (f *failingDeleteStore) DeleteTranscript(string) (bool, error) {
	return false, errors.New("disk error")
}

func TestDelete_BackendFailureIsAnError(t *testing.T) {
	svc := NewTranscriptService(&failingDeleteStore{Store: store.NewMemoryStore()})

	removed, err := svc.Delete("any")
	require.Error(t, err, "a backend failure must not masquerade as a missing id")
	require.False(t, removed)
}

func TestStats_PerBotAggregation(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	appendWithMessages := func(botID string, n int) {
		messages := make([]store.ChatMessage, n)
		for i := range messages {
			messages[i] = store.ChatMessage{Role: store.RoleUser, Content: "m"}
		}
		_, err := svc.Append(&store.Transcript{BotID: botID, Messages: messages})
		require.NoError(t, err)
	}

	appendWithMessages(store.BotA, 2)
	appendWithMessages(store.BotA, 4)
	appendWithMessages(store.BotB, 6)

	stats := svc.Stats()
	require.Equal(t, 3, stats.TotalConversations)
	require.Equal(t, 2, stats.BotA.Conversations)
	require.Equal(t, 6, stats.BotA.TotalMessages)
	require.InDelta(t, 3.0, stats.BotA.AvgMessagesPerConversation, 0.001)
	require.Equal(t, 1, stats.BotB.Conversations)
	require.InDelta(t, 6.0, stats.BotB.AvgMessagesPerConversation, 0.001)
}

func TestTrackConversion_Validation(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	cases := []struct {
		name string
		conv store.Conversion
	}{
		{"missing conversation", store.Conversion{ProductID: "sku", EventType: store.ConversionView}},
		{"missing product", store.Conversion{ConversationID: "s1", EventType: store.ConversionView}},
		{"unknown event type", store.Conversion{ConversationID: "s1", ProductID: "sku", EventType: "checkout"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TrackConversion(&tc.conv)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	id, err := svc.TrackConversion(&store.Conversion{
		ConversationID: "s1",
		ProductID:      "sku",
		EventType:      store.ConversionView,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
}

func TestStats_ConversionsAndEngagement(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	appendSession := func(botID, sessionID string) {
		_, err := svc.Append(&store.Transcript{
			BotID:     botID,
			SessionID: sessionID,
			Messages:  []store.ChatMessage{{Role: store.RoleUser, Content: "hi"}},
		})
		require.NoError(t, err)
	}
	appendSession(store.BotA, "a1")
	appendSession(store.BotA, "a2")
	appendSession(store.BotB, "b1")

	track := func(conversationID, productID, eventType string) {
		_, err := svc.TrackConversion(&store.Conversion{
			ConversationID: conversationID,
			ProductID:      productID,
			EventType:      eventType,
		})
		require.NoError(t, err)
	}
	// Two events in the same session count as one converted conversation.
	track("a1", "sku-1", store.ConversionView)
	track("a1", "sku-1", store.ConversionAddToCart)
	track("b1", "sku-2", store.ConversionPurchaseIntent)
	// Event for a session the log does not hold: engagement only.
	track("gone", "sku-1", store.ConversionInquiry)

	stats := svc.Stats()
	require.Equal(t, 1, stats.BotA.Conversions)
	require.InDelta(t, 50.0, stats.BotA.ConversionRate, 0.001, "1 of 2 bot A sessions converted")
	require.Equal(t, 1, stats.BotB.Conversions)
	require.InDelta(t, 100.0, stats.BotB.ConversionRate, 0.001)

	require.Equal(t, ProductEngagement{Views: 1, Inquiries: 1, AddToCart: 1}, stats.ProductEngagement["sku-1"])
	require.Equal(t, ProductEngagement{PurchaseIntent: 1}, stats.ProductEngagement["sku-2"])
}

func TestStats_AvgDurationFromTimestamps(t *testing.T) {
	svc := NewTranscriptService(store.NewMemoryStore())

	start := time.Now().Add(-time.Hour)
	end := start.Add(90 * time.Second)
	_, err := svc.Append(&store.Transcript{
		BotID: store.BotA,
		Messages: []store.ChatMessage{
			{Role: store.RoleUser, Content: "hi", Timestamp: &start},
			{Role: store.RoleAssistant, Content: "hello", Timestamp: &end},
		},
	})
	require.NoError(t, err)

	// No timestamps: contributes to counts but not to the duration average.
	_, err = svc.Append(&store.Transcript{
		BotID:    store.BotA,
		Messages: []store.ChatMessage{{Role: store.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	stats := svc.Stats()
	require.InDelta(t, 90.0, stats.BotA.AvgDurationSeconds, 0.001)
	require.Zero(t, stats.BotB.AvgDurationSeconds)
}

func TestDeriveTitle(t *testing.T) {
	long := strings.Repeat("x", 80)
	cases := []struct {
		name     string
		messages []store.ChatMessage
		want     string
	}{
		{
			"short first user message",
			[]store.ChatMessage{{Role: store.RoleUser, Content: "hello there"}},
			"hello there",
		},
		{
			"long message truncated",
			[]store.ChatMessage{{Role: store.RoleUser, Content: long}},
			strings.Repeat("x", 50) + "...",
		},
		{
			"skips assistant messages",
			[]store.ChatMessage{
				{Role: store.RoleAssistant, Content: "welcome"},
				{Role: store.RoleUser, Content: "question"},
			},
			"question",
		},
		{
			"no user message",
			[]store.ChatMessage{{Role: store.RoleAssistant, Content: "welcome"}},
			"Untitled conversation",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveTitle(tc.messages))
		})
	}
}

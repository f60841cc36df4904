package store

import "time"

// Bot selectors. Bot A is the primary persona, bot B the variant under study.
const (
	BotA = "A"
	BotB = "B"
)

// Message roles accepted at the API boundary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Settings is the singleton runtime configuration, replaced wholesale on
// every admin save.
type Settings struct {
	SystemPromptA     string    `json:"systemPromptA"`
	SystemPromptB     string    `json:"systemPromptB"`
	LoggingEnabled    bool      `json:"loggingEnabled"`
	TimestampsEnabled bool      `json:"timestampsEnabled"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

type ChatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Transcript is one logged conversation exchange, newest kept first.
type Transcript struct {
	ID        string        `json:"id"` // UUID
	BotID     string        `json:"botId"`
	SessionID string        `json:"sessionId,omitempty"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	IPAddress string        `json:"ipAddress"`
	UserAgent string        `json:"userAgent"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Conversion event types the study front-ends report.
const (
	ConversionView           = "view"
	ConversionInquiry        = "inquiry"
	ConversionAddToCart      = "add_to_cart"
	ConversionPurchaseIntent = "purchase_intent"
)

// Conversion is one engagement event reported by the chat front-end,
// linked to a conversation by the session id the client sends with chat
// requests.
type Conversion struct {
	ID             string    `json:"id"` // UUID
	ConversationID string    `json:"conversationId"`
	ProductID      string    `json:"productId"`
	EventType      string    `json:"eventType"`
	Value          float64   `json:"value,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PromptProfile is a named snapshot of Settings that the admin can reapply.
type PromptProfile struct {
	Name      string    `json:"name"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

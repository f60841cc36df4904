package core

import (
	"context"
	"log"
	"time"

	"chatpanel/internal/store"
)

// Completer is the black-box upstream that turns a message list into one
// assistant reply.
type Completer interface {
	Chat(ctx context.Context, messages []store.ChatMessage) (string, error)
}

type ChatService struct {
	settings    *SettingsService
	transcripts *TranscriptService
	completer   Completer
}

func NewChatService(settings *SettingsService, transcripts *TranscriptService, completer Completer) *ChatService {
	return &ChatService{
		settings:    settings,
		transcripts: transcripts,
		completer:   completer,
	}
}

type ChatRequest struct {
	BotID     string
	SessionID string
	Messages  []store.ChatMessage

	// Client metadata recorded on the transcript, never sent upstream.
	IPAddress string
	UserAgent string
}

// Respond injects the system prompt for the requested bot, calls the upstream
// completion API once (no retries) and returns the assistant reply. When
// logging is enabled the completed exchange is appended to the transcript
// log; a logging failure never fails the user-facing request.
func (s *ChatService) Respond(ctx context.Context, req ChatRequest) (string, error) {
	if err := validateChatRequest(req); err != nil {
		return "", err
	}

	cfg := s.settings.Get()
	prompt := cfg.SystemPromptA
	if req.BotID == store.BotB {
		prompt = cfg.SystemPromptB
	}

	full := make([]store.ChatMessage, 0, len(req.Messages)+1)
	full = append(full, store.ChatMessage{Role: store.RoleSystem, Content: prompt})
	full = append(full, req.Messages...)

	reply, err := s.completer.Chat(ctx, full)
	if err != nil {
		return "", err
	}

	if cfg.LoggingEnabled {
		s.logExchange(req, cfg, reply)
	}
	return reply, nil
}

func (s *ChatService) logExchange(req ChatRequest, cfg store.Settings, reply string) {
	messages := make([]store.ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, req.Messages...)
	messages = append(messages, store.ChatMessage{Role: store.RoleAssistant, Content: reply})

	if cfg.TimestampsEnabled {
		now := time.Now()
		for i := range messages {
			if messages[i].Timestamp == nil {
				messages[i].Timestamp = &now
			}
		}
	}

	transcript := store.Transcript{
		BotID:     req.BotID,
		SessionID: req.SessionID,
		Messages:  messages,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	}
	if _, err := s.transcripts.Append(&transcript); err != nil {
		log.Printf("Failed to log exchange for bot %s: %v", req.BotID, err)
	}
}

func validateChatRequest(req ChatRequest) error {
	if req.BotID != store.BotA && req.BotID != store.BotB {
		return &ValidationError{Field: "botId", Message: "botId must be A or B"}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{Field: "messages", Message: "messages array is required"}
	}
	for _, m := range req.Messages {
		if m.Role != store.RoleUser && m.Role != store.RoleAssistant {
			return &ValidationError{Field: "messages", Message: "message role must be user or assistant"}
		}
		if m.Content == "" {
			return &ValidationError{Field: "messages", Message: "message content must not be empty"}
		}
	}
	return nil
}

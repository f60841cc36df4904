package api

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatpanel/internal/auth"
	"chatpanel/internal/completion"
	"chatpanel/internal/config"
	"chatpanel/internal/core"
	"chatpanel/internal/store"
)

type APIHandler struct {
	chatService       *core.ChatService
	settingsService   *core.SettingsService
	transcriptService *core.TranscriptService
}

func NewAPIHandler(cs *core.ChatService, ss *core.SettingsService, ts *core.TranscriptService) *APIHandler {
	return &APIHandler{
		chatService:       cs,
		settingsService:   ss,
		transcriptService: ts,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx != -1 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if _, err := auth.ValidateJWT(tokenString); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type LoginRequest struct {
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Password == "" || !auth.CheckAdminPassword(req.Password) {
		writeJSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateJWT("admin")
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ConfigProbeHandler reports whether the upstream key is configured. The key
// itself never leaves the server.
func (h *APIHandler) ConfigProbeHandler(w http.ResponseWriter, r *http.Request) {
	if config.AppConfig.CompletionAPIKey == "" {
		writeJSONError(w, http.StatusNotFound, "API key not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "apiKey": "configured"})
}

type ChatRequestBody struct {
	BotID     string              `json:"botId"`
	SessionID string              `json:"sessionId,omitempty"`
	Messages  []store.ChatMessage `json:"messages"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := h.chatService.Respond(r.Context(), core.ChatRequest{
		BotID:     req.BotID,
		SessionID: req.SessionID,
		Messages:  req.Messages,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		var validationErr *core.ValidationError
		var statusErr *completion.StatusError
		switch {
		case errors.As(err, &validationErr):
			writeJSONError(w, http.StatusBadRequest, validationErr.Error())
		case errors.As(err, &statusErr):
			log.Printf("Upstream completion error: %v", err)
			writeJSONError(w, statusErr.StatusCode, statusErr.Message)
		default:
			log.Printf("Chat error: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": reply})
}

type ConversionRequestBody struct {
	ConversationID string  `json:"conversationId"`
	ProductID      string  `json:"productId"`
	EventType      string  `json:"eventType"`
	Value          float64 `json:"value,omitempty"`
}

func (h *APIHandler) ConversionHandler(w http.ResponseWriter, r *http.Request) {
	var req ConversionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	conversion := store.Conversion{
		ConversationID: req.ConversationID,
		ProductID:      req.ProductID,
		EventType:      req.EventType,
		Value:          req.Value,
	}
	id, err := h.transcriptService.TrackConversion(&conversion)
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			writeJSONError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		log.Printf("Conversion tracking error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to track conversion")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (h *APIHandler) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": h.settingsService.Get()})
}

type SetConfigRequest struct {
	SystemPromptA     string `json:"systemPromptA"`
	SystemPromptB     string `json:"systemPromptB"`
	LoggingEnabled    bool   `json:"loggingEnabled"`
	TimestampsEnabled bool   `json:"timestampsEnabled"`
}

func (h *APIHandler) SetConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req SetConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	err := h.settingsService.Set(store.Settings{
		SystemPromptA:     req.SystemPromptA,
		SystemPromptB:     req.SystemPromptB,
		LoggingEnabled:    req.LoggingEnabled,
		TimestampsEnabled: req.TimestampsEnabled,
	})
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			writeJSONError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		log.Printf("Error saving configuration: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": h.settingsService.Get()})
}

func (h *APIHandler) ListLogsHandler(w http.ResponseWriter, r *http.Request) {
	logs := h.transcriptService.List()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(logs), "logs": logs})
}

func (h *APIHandler) GetLogHandler(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logID")
	transcript, err := h.transcriptService.Get(logID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "Log not found")
			return
		}
		log.Printf("Error getting log %s: %v", logID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to get log")
		return
	}
	writeJSON(w, http.StatusOK, transcript)
}

func (h *APIHandler) DeleteLogHandler(w http.ResponseWriter, r *http.Request) {
	logID := chi.URLParam(r, "logID")
	removed, err := h.transcriptService.Delete(logID)
	if err != nil {
		log.Printf("Error deleting log %s: %v", logID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete log")
		return
	}
	if !removed {
		writeJSONError(w, http.StatusNotFound, "Log not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ClearLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.transcriptService.ClearAll() {
		writeJSONError(w, http.StatusInternalServerError, "Failed to clear logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *APIHandler) ExportLogsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="chat-logs-export.json"`)
	writeJSON(w, http.StatusOK, h.transcriptService.Export())
}

func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.transcriptService.Stats())
}

type SaveProfileRequest struct {
	Name              string `json:"name"`
	SystemPromptA     string `json:"systemPromptA"`
	SystemPromptB     string `json:"systemPromptB"`
	LoggingEnabled    bool   `json:"loggingEnabled"`
	TimestampsEnabled bool   `json:"timestampsEnabled"`
}

func (h *APIHandler) SaveProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	profile, err := h.settingsService.SaveProfile(req.Name, store.Settings{
		SystemPromptA:     req.SystemPromptA,
		SystemPromptB:     req.SystemPromptB,
		LoggingEnabled:    req.LoggingEnabled,
		TimestampsEnabled: req.TimestampsEnabled,
	})
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			writeJSONError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		log.Printf("Error saving profile %s: %v", req.Name, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (h *APIHandler) ListProfilesHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.settingsService.ListProfiles()
	if err != nil {
		log.Printf("Error listing profiles: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []store.PromptProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profiles": profiles})
}

func (h *APIHandler) LoadProfileHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	profile, err := h.settingsService.LoadProfile(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "Profile not found")
			return
		}
		log.Printf("Error loading profile %s: %v", name, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": profile.Settings})
}

func (h *APIHandler) DeleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := h.settingsService.DeleteProfile(name)
	if err != nil {
		log.Printf("Error deleting profile %s: %v", name, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	if !removed {
		writeJSONError(w, http.StatusNotFound, "Profile not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

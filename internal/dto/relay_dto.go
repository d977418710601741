package dto

import (
	"ai-relay-bot/internal/pkg/logger"
	"ai-relay-bot/pkg/store"
)

type SendMessageRequest struct {
	SessionKey string `json:"session_key" validate:"required,max=128"`
	Text       string `json:"text" validate:"max=8000"`
}

// OutboundMessage is one message the relay would have posted to the channel.
// File contents are base64 encoded in JSON.
type OutboundMessage struct {
	Type     string `json:"type"` // "text" | "file"
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

type SendMessageResponse struct {
	SessionKey string            `json:"session_key"`
	Messages   []OutboundMessage `json:"messages"`
}

type SessionHistoryResponse struct {
	SessionKey string       `json:"session_key"`
	Turns      []store.Turn `json:"turns"`
}

type SessionListResponse struct {
	Sessions []store.SessionKey `json:"sessions"`
}

type AuditLogResponse struct {
	Entries []logger.LogEntry `json:"entries"`
}

// Package gateway is the typed HTTP client for the external WhatsApp
// gateway. It knows nothing about bots, storage, or
// scheduling — only the gateway's wire shapes and their Go equivalents.
package gateway

import "time"

// MediaType mirrors the gateway's media_type hint.
type MediaType string

const (
	MediaNone     MediaType = ""
	MediaImage    MediaType = "image"
	MediaAudio    MediaType = "audio"
	MediaVoice    MediaType = "voice"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

// Chat is one row of GET /chats.
type Chat struct {
	JID          string    `json:"jid"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	LastActivity time.Time `json:"last_activity"`
}

// Message is one row of GET /chats/{jid}/messages.
type Message struct {
	ID         string    `json:"id"`
	SenderJID  string    `json:"sender_jid"`
	IsFromMe   bool      `json:"is_from_me"`
	Timestamp  time.Time `json:"timestamp"`
	Content    string    `json:"content"`
	MediaType  MediaType `json:"media_type,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
}

// HasMedia reports whether the message declares a downloadable payload.
func (m Message) HasMedia() bool {
	return m.MediaType != MediaNone
}

// IsPresenceOnly reports whether the message carries neither text nor media
// — a pure receipt/presence event that the Processor drops before dispatch.
func (m Message) IsPresenceOnly() bool {
	return m.Content == "" && !m.HasMedia()
}

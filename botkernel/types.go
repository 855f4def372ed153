// Package botkernel is the Bot abstraction: the BotType
// interface, its registry, config-schema validation, and the bundled bot
// types (translation, joke).
package botkernel

import (
	"context"
	"time"

	"github.com/wazecore/wazecore/llm"
)

// Capability is one of the four media surfaces a BotType may declare.
type Capability string

const (
	CapText  Capability = "text"
	CapImage Capability = "image"
	CapAudio Capability = "audio"
	CapVideo Capability = "video"
)

// Has reports whether caps contains c.
func Has(caps []Capability, c Capability) bool {
	for _, have := range caps {
		if have == c {
			return true
		}
	}
	return false
}

// Message is the gateway message plus any media payload the kernel
// pre-loaded according to the BotType's declared capabilities.
type Message struct {
	ExternalID string
	ChatJID    string
	SenderJID  string
	IsFromMe   bool
	Timestamp  time.Time
	Content    string
	Media      []byte // pre-downloaded payload, nil if no media or capability not declared
	MimeType   string
	MediaKind  Capability // CapImage, CapAudio, CapVideo, or "" for text-only
}

// Context exposes everything a BotType's process operation may need beyond
// the message itself.
type Context struct {
	LLM    llm.Provider
	Media  MediaExtractor
	Config map[string]any
}

// MediaExtractor is the subset of the media package a bot needs; kept as
// an interface here so bot types don't import the media package directly.
type MediaExtractor interface {
	ExtractAudio(ctx context.Context, video []byte) ([]byte, error)
}

// Reply is a bot's outbound message.
type Reply struct {
	Text string
}

// Info describes a registered BotType for the REST /bot-types listing.
type Info struct {
	TypeKey      string
	DisplayName  string
	Capabilities []Capability
	ConfigSchema ConfigSchema
}

// BotType is the contract every bundled and third-party bot implements.
type BotType interface {
	Info() Info
	// Process returns (reply, nil) to send a reply, (nil, nil) to send
	// nothing, or (nil, err) to record a failed dispatch.
	Process(ctx context.Context, msg Message, botCtx Context) (*Reply, error)
}

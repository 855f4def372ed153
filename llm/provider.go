package llm

import "context"

// Provider is the capability surface the Bot Kernel depends on. Both
// *Client (OpenAI) and *GeminiClient implement it; only *Client supports
// real transcription.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
	CompleteVision(ctx context.Context, systemPrompt, userText string, image []byte, format ImageFormat) (string, error)
	Transcribe(ctx context.Context, audio []byte, format AudioFormat) (string, error)
}

var (
	_ Provider = (*Client)(nil)
	_ Provider = (*GeminiClient)(nil)
)

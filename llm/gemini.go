package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/wazecore/wazecore/config"
)

// GeminiClient is the secondary provider, selected with LLM_PROVIDER=gemini.
// It implements Complete and CompleteVision only; Transcribe always returns
// Unsupported: the secondary provider is a
// fallback for text/vision, not audio.
type GeminiClient struct {
	client      *genai.Client
	model       string
	visionModel string
}

// NewGemini builds a GeminiClient. Construction is deferred past config
// validation, so a bad API key surfaces on first use, matching the
// teacher's per-call client construction.
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, newErr("new_gemini_client", PermanentError, err)
	}
	return &GeminiClient{client: client, model: cfg.Model, visionModel: cfg.VisionModel}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if systemPrompt != "" {
		cfg = &genai.GenerateContentConfig{SystemInstruction: genai.NewContentFromText(systemPrompt, "")}
	}
	contents := []*genai.Content{genai.NewContentFromText(userText, genai.RoleUser)}

	callCtx, cancel := context.WithTimeout(ctx, completeTimeout)
	defer cancel()

	result, err := g.generateWithRetry(callCtx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

func (g *GeminiClient) CompleteVision(ctx context.Context, systemPrompt, userText string, image []byte, format ImageFormat) (string, error) {
	if format == ImageUnknown {
		return "", newErr("complete_vision", Unsupported, fmt.Errorf("unrecognized image format"))
	}

	var cfg *genai.GenerateContentConfig
	if systemPrompt != "" {
		cfg = &genai.GenerateContentConfig{SystemInstruction: genai.NewContentFromText(systemPrompt, "")}
	}

	parts := []*genai.Part{
		{Text: userText},
		{InlineData: &genai.Blob{MIMEType: format.MIME(), Data: image}},
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	callCtx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()

	result, err := g.generateWithRetry(callCtx, g.visionModel, contents, cfg)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// Transcribe is unsupported on the Gemini provider; the translation bot
// turns the error into its human-readable transcription-failure reply.
func (g *GeminiClient) Transcribe(ctx context.Context, audio []byte, format AudioFormat) (string, error) {
	return "", newErr("transcribe", Unsupported, fmt.Errorf("gemini provider does not support transcription"))
}

// generateWithRetry makes up to 3 GenerateContent attempts, retrying after
// any error (not only 503s) with waits of 1s, 2s and 4s, and reports the
// last failure as TransientError.
func (g *GeminiClient) generateWithRetry(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		result, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			return result, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<uint(attempt)) * time.Second):
		}
	}
	return nil, newErr("generate_content", TransientError, lastErr)
}

package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	"github.com/wazecore/wazecore/config"
)

// transcribeRetryDelays is the fixed backoff ladder for the transcribe
// operation: the first attempt plus up to 3 retries, waiting 2s, 4s and 8s
// before them.
var transcribeRetryDelays = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

// Per-call timeouts bound each individual request to the provider,
// independent of whatever deadline the caller's ctx already carries.
const (
	completeTimeout   = 60 * time.Second
	visionTimeout     = 90 * time.Second
	transcribeTimeout = 120 * time.Second
)

// Client is the typed façade over the configured LLM provider. It owns the
// transcription retry policy internally so call sites never see it.
type Client struct {
	openai      openai.Client
	model       string
	visionModel string
	audioModel  string
}

// New builds a Client from LLM config. Only LLM_PROVIDER=openai implements
// Transcribe; gemini is accepted for Complete/CompleteVision only.
func New(cfg config.LLMConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		openai:      openai.NewClient(opts...),
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		audioModel:  cfg.AudioModel,
	}
}

// Complete runs a plain text chat completion.
func (c *Client) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userText))

	callCtx, cancel := context.WithTimeout(ctx, completeTimeout)
	defer cancel()

	completion, err := c.openai.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", classifyChat("complete", err)
	}
	if len(completion.Choices) == 0 {
		return "", newErr("complete", PermanentError, fmt.Errorf("no choices returned"))
	}
	return completion.Choices[0].Message.Content, nil
}

// CompleteVision runs a chat completion over a prompt plus one image.
// format must be a recognized ImageFormat; callers run DetectImageFormat
// first and map Unsupported to the bot's human-readable failure reply.
func (c *Client) CompleteVision(ctx context.Context, systemPrompt, userText string, image []byte, format ImageFormat) (string, error) {
	if format == ImageUnknown {
		return "", newErr("complete_vision", Unsupported, fmt.Errorf("unrecognized image format"))
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", format.MIME(), base64.StdEncoding.EncodeToString(image))
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(userText),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}
	messages = append(messages, openai.UserMessage(parts))

	callCtx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()

	completion, err := c.openai.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.visionModel),
		Messages: messages,
	})
	if err != nil {
		return "", classifyChat("complete_vision", err)
	}
	if len(completion.Choices) == 0 {
		return "", newErr("complete_vision", PermanentError, fmt.Errorf("no choices returned"))
	}
	return completion.Choices[0].Message.Content, nil
}

// Transcribe converts audio bytes to text via the real OpenAI
// /v1/audio/transcriptions endpoint. It makes up to
// len(transcribeRetryDelays)+1 attempts, retrying on TransientError, using a fresh
// unique filename each attempt; TooLarge and Unsupported fail immediately
// without consuming a retry.
func (c *Client) Transcribe(ctx context.Context, audio []byte, format AudioFormat) (string, error) {
	if len(audio) > MaxTranscriptionBytes {
		return "", newErr("transcribe", TooLarge, fmt.Errorf("audio is %d bytes, max %d", len(audio), MaxTranscriptionBytes))
	}
	if format == AudioUnknown {
		return "", newErr("transcribe", Unsupported, fmt.Errorf("unrecognized audio format"))
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		filename := fmt.Sprintf("clip-%d-%d.%s", time.Now().UnixNano(), rand.Intn(1_000_000), format.Ext())
		text, err := c.transcribeOnce(ctx, audio, filename)
		if err == nil {
			return text, nil
		}

		var llmErr *Error
		if !asLLMError(err, &llmErr) || !llmErr.Retriable() {
			return "", err
		}
		lastErr = err

		if attempt >= len(transcribeRetryDelays) {
			return "", lastErr
		}
		logrus.WithError(err).WithField("attempt", attempt+1).Warn("[LLM] transcribe attempt failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(transcribeRetryDelays[attempt]):
		}
	}
}

func (c *Client) transcribeOnce(ctx context.Context, audio []byte, filename string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	transcription, err := c.openai.Audio.Transcriptions.New(callCtx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(c.audioModel),
		File:  openai.File(bytes.NewReader(audio), filename, "application/octet-stream"),
	})
	if err != nil {
		return "", classifyAudio("transcribe", err)
	}
	return transcription.Text, nil
}

func classifyChat(op string, err error) error {
	return newErr(op, classifyKind(err), err)
}

func classifyAudio(op string, err error) error {
	return newErr(op, classifyKind(err), err)
}

// classifyKind maps an OpenAI SDK error to our Kind taxonomy. Rate limits
// and 5xx are transient; 4xx (other than 429) are permanent.
func classifyKind(err error) Kind {
	var apiErr *openai.Error
	if ok := asOpenAIError(err, &apiErr); ok {
		switch {
		case apiErr.StatusCode == 429 || apiErr.StatusCode >= 500:
			return TransientError
		default:
			return PermanentError
		}
	}
	return TransientError
}

func asOpenAIError(err error, target **openai.Error) bool {
	oe, ok := err.(*openai.Error)
	if ok {
		*target = oe
	}
	return ok
}

func asLLMError(err error, target **Error) bool {
	le, ok := err.(*Error)
	if ok {
		*target = le
	}
	return ok
}

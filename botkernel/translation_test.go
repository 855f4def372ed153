package botkernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazecore/wazecore/llm"
)

type fakeProvider struct {
	completion string
	err        error
}

func (f fakeProvider) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	return f.completion, f.err
}

func (f fakeProvider) CompleteVision(ctx context.Context, systemPrompt, userText string, image []byte, format llm.ImageFormat) (string, error) {
	return f.completion, f.err
}

func (f fakeProvider) Transcribe(ctx context.Context, audio []byte, format llm.AudioFormat) (string, error) {
	return f.completion, f.err
}

func TestTranslationBot_IgnoresBracketedPrefix(t *testing.T) {
	bot := TranslationBot{}
	botCtx := Context{LLM: fakeProvider{completion: "hola"}, Config: map[string]any{
		"prefix":           "[ai]",
		"source_languages": []string{"en", "pt"},
	}}
	reply, err := bot.Process(context.Background(), Message{Content: "[joke] why did the chicken cross the road"}, botCtx)
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestTranslationBot_TranslatesPlainText(t *testing.T) {
	bot := TranslationBot{}
	botCtx := Context{LLM: fakeProvider{completion: "ola mundo"}, Config: map[string]any{
		"prefix":           "[ai]",
		"source_languages": []string{"en", "pt"},
	}}
	reply, err := bot.Process(context.Background(), Message{Content: "hello world"}, botCtx)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "[ai] ola mundo", reply.Text)
}

func TestTranslationBot_ImageDisabledByConfig(t *testing.T) {
	bot := TranslationBot{}
	botCtx := Context{LLM: fakeProvider{}, Config: map[string]any{
		"prefix":           "[ai]",
		"translate_images": false,
	}}
	reply, err := bot.Process(context.Background(), Message{MediaKind: CapImage, Media: []byte{0xFF, 0xD8, 0xFF}}, botCtx)
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestTranslationBot_ImageDownloadFailureRepliesWithError(t *testing.T) {
	bot := TranslationBot{}
	botCtx := Context{LLM: fakeProvider{}, Config: map[string]any{
		"prefix":           "[ai]",
		"translate_images": true,
	}}
	reply, err := bot.Process(context.Background(), Message{MediaKind: CapImage, Media: nil}, botCtx)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "couldn't download the image")
}

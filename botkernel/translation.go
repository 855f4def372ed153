package botkernel

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"

	"github.com/wazecore/wazecore/llm"
)

// TranslationBot implements the text/image/audio/video translation bot
// bundled with the service.
type TranslationBot struct{}

func (TranslationBot) Info() Info {
	return Info{
		TypeKey:      "translation",
		DisplayName:  "Translator",
		Capabilities: []Capability{CapText, CapImage, CapAudio, CapVideo},
		ConfigSchema: ConfigSchema{
			"prefix":           {Type: TypeString, Default: "[ai]"},
			"source_languages": {Type: TypeList, Default: []string{"en", "pt"}, EnumValues: []string{"en", "pt"}},
			"translate_images": {Type: TypeBool, Default: false},
			"translate_audio":  {Type: TypeBool, Default: false},
			"translate_video":  {Type: TypeBool, Default: false},
		},
	}
}

func (b TranslationBot) Process(ctx context.Context, msg Message, botCtx Context) (*Reply, error) {
	prefix, _ := botCtx.Config["prefix"].(string)

	switch msg.MediaKind {
	case CapImage:
		if !configBool(botCtx.Config, "translate_images") {
			return nil, nil
		}
		return b.processImage(ctx, msg, botCtx, prefix)
	case CapAudio:
		if !configBool(botCtx.Config, "translate_audio") {
			return nil, nil
		}
		return b.processAudio(ctx, msg, botCtx, prefix)
	case CapVideo:
		if !configBool(botCtx.Config, "translate_video") {
			return nil, nil
		}
		return b.processVideo(ctx, msg, botCtx, prefix)
	default:
		return b.processText(ctx, msg, botCtx, prefix)
	}
}

// processText ignores messages that are themselves prefixed (another
// bot's reply) to avoid reply loops.
func (b TranslationBot) processText(ctx context.Context, msg Message, botCtx Context, prefix string) (*Reply, error) {
	trimmed := strings.TrimSpace(msg.Content)
	if strings.HasPrefix(trimmed, "[") {
		return nil, nil
	}
	if trimmed == "" {
		return nil, nil
	}

	langs := sourceLanguages(botCtx.Config)
	from, to := detectLanguage(trimmed, langs)
	if from == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf("Translate the following %s text to %s. Reply with only the translation, no commentary:\n\n%s",
		languageName(from), languageName(to), trimmed)
	translation, err := botCtx.LLM.Complete(ctx, "You are a precise translation assistant.", prompt)
	if err != nil {
		return &Reply{Text: fmt.Sprintf("%s translation unavailable right now, try again shortly.", prefix)}, nil
	}

	return &Reply{Text: fmt.Sprintf("%s %s", prefix, translation)}, nil
}

func (b TranslationBot) processImage(ctx context.Context, msg Message, botCtx Context, prefix string) (*Reply, error) {
	if len(msg.Media) == 0 {
		return &Reply{Text: fmt.Sprintf("%s couldn't download the image, please resend it.", prefix)}, nil
	}

	media := msg.Media
	format := llm.DetectImageFormat(media)
	if format == llm.ImageWEBP {
		// Stickers arrive as WEBP; re-encode to PNG since vision models give
		// much more reliable OCR against PNG than raw WEBP frames.
		if png, err := webpToPNG(media); err == nil {
			media, format = png, llm.ImagePNG
		}
	}
	if format == llm.ImageUnknown {
		return &Reply{Text: fmt.Sprintf("%s this image format isn't supported.", prefix)}, nil
	}

	prompt := "Extract all visible text from this image verbatim, then translate it to the other configured language. " +
		"If there is no visible text, instead describe the image in one or two sentences. " +
		"Reply in exactly this format:\nOriginal Text: <text or (none)>\nTranslation: <translation or description>"
	out, err := botCtx.LLM.CompleteVision(ctx, "", prompt, media, format)
	if err != nil {
		return &Reply{Text: fmt.Sprintf("%s couldn't read this image right now, try again shortly.", prefix)}, nil
	}

	return &Reply{Text: fmt.Sprintf("%s\n%s", prefix, out)}, nil
}

func (b TranslationBot) processAudio(ctx context.Context, msg Message, botCtx Context, prefix string) (*Reply, error) {
	if len(msg.Media) == 0 {
		return &Reply{Text: fmt.Sprintf("%s couldn't download the audio, please resend it.", prefix)}, nil
	}
	return b.transcribeAndTranslate(ctx, msg.Media, botCtx, prefix)
}

func (b TranslationBot) processVideo(ctx context.Context, msg Message, botCtx Context, prefix string) (*Reply, error) {
	if len(msg.Media) == 0 {
		return &Reply{Text: fmt.Sprintf("%s couldn't download the video, please resend it.", prefix)}, nil
	}

	audio, err := botCtx.Media.ExtractAudio(ctx, msg.Media)
	if err != nil {
		return &Reply{Text: fmt.Sprintf("%s %s", prefix, mediaFailureMessage(err))}, nil
	}
	return b.transcribeAndTranslate(ctx, audio, botCtx, prefix)
}

func (b TranslationBot) transcribeAndTranslate(ctx context.Context, audio []byte, botCtx Context, prefix string) (*Reply, error) {
	format := llm.DetectAudioFormat(audio)
	if format == llm.AudioUnknown {
		return &Reply{Text: fmt.Sprintf("%s this audio format isn't supported.", prefix)}, nil
	}

	transcript, err := botCtx.LLM.Transcribe(ctx, audio, format)
	if err != nil {
		return &Reply{Text: fmt.Sprintf("%s %s", prefix, llmFailureMessage(err))}, nil
	}

	prompt := fmt.Sprintf("Translate this transcription to the other configured language. Reply with only the translation:\n\n%s", transcript)
	translation, err := botCtx.LLM.Complete(ctx, "You are a precise translation assistant.", prompt)
	if err != nil {
		// Transcription alone is still useful; never drop it silently.
		return &Reply{Text: fmt.Sprintf("%s\nTranscription: %s\nTranslation: unavailable right now", prefix, transcript)}, nil
	}

	return &Reply{Text: fmt.Sprintf("%s\nTranscription: %s\nTranslation: %s", prefix, transcript, translation)}, nil
}

func configBool(cfg map[string]any, key string) bool {
	b, _ := cfg[key].(bool)
	return b
}

func sourceLanguages(cfg map[string]any) []string {
	switch raw := cfg["source_languages"].(type) {
	case []string:
		return raw
	case []any:
		// Config read back from the store decodes JSON lists as []any.
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{"en", "pt"}
}

// detectLanguage is a lightweight heuristic: it looks for the Portuguese
// marker characters; anything else is treated as English. It only
// considers languages present in langs.
func detectLanguage(text string, langs []string) (from, to string) {
	lower := strings.ToLower(text)
	looksPortuguese := strings.ContainsAny(lower, "ãõçáéíóú") ||
		strings.Contains(lower, " voce ") || strings.Contains(lower, " você")

	if looksPortuguese && contains(langs, "pt") {
		return "pt", "en"
	}
	if contains(langs, "en") {
		return "en", "pt"
	}
	if len(langs) == 2 {
		return langs[0], langs[1]
	}
	return "", ""
}

func languageName(code string) string {
	switch code {
	case "pt":
		return "Portuguese"
	default:
		return "English"
	}
}

func mediaFailureMessage(err error) string {
	return fmt.Sprintf("couldn't process the video's audio right now (%v).", err)
}

func llmFailureMessage(err error) string {
	return fmt.Sprintf("couldn't transcribe this audio right now (%v).", err)
}

// webpToPNG decodes a WEBP sticker and re-encodes it as PNG.
func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

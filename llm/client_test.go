package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectImageFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want ImageFormat
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, ImageJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, ImagePNG},
		{"gif87", []byte("GIF87a"), ImageGIF},
		{"gif89", []byte("GIF89a"), ImageGIF},
		{"webp", append([]byte("RIFF\x00\x00\x00\x00"), []byte("WEBP")...), ImageWEBP},
		{"unknown", []byte("not an image"), ImageUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectImageFormat(tc.data))
		})
	}
}

func TestDetectAudioFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want AudioFormat
	}{
		{"mp3-id3", []byte{0x49, 0x44, 0x33, 0x03}, AudioMP3},
		{"mp3-frame-sync", []byte{0xFF, 0xFB, 0x90, 0x00}, AudioMP3},
		{"mp4", append([]byte{0, 0, 0, 0x18}, []byte("ftypmp42")...), AudioMP4},
		{"wav", append([]byte("RIFF\x00\x00\x00\x00"), []byte("WAVEfmt ")...), AudioWAV},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3}, AudioWEBM},
		{"ogg", []byte("OggS\x00\x02"), AudioOGG},
		{"unknown", []byte("nope"), AudioUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectAudioFormat(tc.data))
		})
	}
}

func TestAudioFormat_Ext(t *testing.T) {
	assert.Equal(t, "mp3", AudioMP3.Ext())
	assert.Equal(t, "m4a", AudioMP4.Ext())
	assert.Equal(t, "bin", AudioUnknown.Ext())
}

func TestError_RetriableOnlyTransient(t *testing.T) {
	assert.True(t, (&Error{Kind: TransientError}).Retriable())
	assert.False(t, (&Error{Kind: PermanentError}).Retriable())
	assert.False(t, (&Error{Kind: Unsupported}).Retriable())
	assert.False(t, (&Error{Kind: TooLarge}).Retriable())
}

func TestTranscribe_TooLargeShortCircuits(t *testing.T) {
	c := &Client{audioModel: "whisper-1"}
	big := make([]byte, MaxTranscriptionBytes+1)
	_, err := c.Transcribe(nil, big, AudioMP3) //nolint:staticcheck // nil ctx fine, fails before any call
	assert.Error(t, err)
	var llmErr *Error
	assert.ErrorAs(t, err, &llmErr)
	assert.Equal(t, TooLarge, llmErr.Kind)
}

func TestTranscribe_UnsupportedFormatShortCircuits(t *testing.T) {
	c := &Client{audioModel: "whisper-1"}
	_, err := c.Transcribe(nil, []byte("short"), AudioUnknown) //nolint:staticcheck
	assert.Error(t, err)
	var llmErr *Error
	assert.ErrorAs(t, err, &llmErr)
	assert.Equal(t, Unsupported, llmErr.Kind)
}

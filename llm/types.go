// Package llm is the typed client for the three LLM capabilities the core
// needs: chat completion, vision completion, and speech-to-text.
// Two providers are wired: OpenAI (primary, all three ops)
// and Gemini (secondary, chat+vision only) selected by LLM_PROVIDER.
package llm

import "bytes"

// ImageFormat is a vision-capable image encoding detected from magic bytes.
type ImageFormat string

const (
	ImageUnknown ImageFormat = ""
	ImageJPEG    ImageFormat = "jpeg"
	ImagePNG     ImageFormat = "png"
	ImageGIF     ImageFormat = "gif"
	ImageWEBP    ImageFormat = "webp"
)

// MIME returns the format's MIME type, used for the multimodal payload.
func (f ImageFormat) MIME() string {
	switch f {
	case ImageJPEG:
		return "image/jpeg"
	case ImagePNG:
		return "image/png"
	case ImageGIF:
		return "image/gif"
	case ImageWEBP:
		return "image/webp"
	default:
		return ""
	}
}

// DetectImageFormat sniffs the magic bytes of the supported formats: JPEG, PNG,
// GIF, WEBP. Anything else is ImageUnknown.
func DetectImageFormat(data []byte) ImageFormat {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return ImageJPEG
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return ImagePNG
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return ImageGIF
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ImageWEBP
	default:
		return ImageUnknown
	}
}

// AudioFormat is a transcribable audio/container encoding detected from
// magic bytes.
type AudioFormat string

const (
	AudioUnknown AudioFormat = ""
	AudioMP3     AudioFormat = "mp3"
	AudioMP4     AudioFormat = "mp4" // covers m4a
	AudioWAV     AudioFormat = "wav"
	AudioWEBM    AudioFormat = "webm"
	AudioOGG     AudioFormat = "ogg"
)

// Ext returns the filename extension used when forming the transcription
// request; the OpenAI API infers audio codec from the uploaded filename.
func (f AudioFormat) Ext() string {
	switch f {
	case AudioMP3:
		return "mp3"
	case AudioMP4:
		return "m4a"
	case AudioWAV:
		return "wav"
	case AudioWEBM:
		return "webm"
	case AudioOGG:
		return "ogg"
	default:
		return "bin"
	}
}

// DetectAudioFormat sniffs the magic bytes of the supported formats.
func DetectAudioFormat(data []byte) AudioFormat {
	switch {
	case len(data) >= 3 && (bytes.Equal(data[:3], []byte{0x49, 0x44, 0x33}) || (len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0)):
		return AudioMP3
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return AudioMP4
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return AudioWAV
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return AudioWEBM
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("OggS")):
		return AudioOGG
	default:
		return AudioUnknown
	}
}

// MaxTranscriptionBytes is the 25 MiB transcription input cap.
const MaxTranscriptionBytes = 25 * 1024 * 1024

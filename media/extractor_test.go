package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_ExtractAudio_TooLarge(t *testing.T) {
	p := NewPipeline(2, "ffmpeg")
	big := make([]byte, MaxInputBytes+1)

	_, err := p.ExtractAudio(context.Background(), big)
	require.Error(t, err)

	var mediaErr *Error
	require.ErrorAs(t, err, &mediaErr)
	assert.Equal(t, TooLarge, mediaErr.Kind)
}

func TestPipeline_ExtractAudio_ToolMissing(t *testing.T) {
	p := NewPipeline(1, "ffmpeg-does-not-exist-binary")

	_, err := p.ExtractAudio(context.Background(), []byte("not really a video"))
	require.Error(t, err)

	var mediaErr *Error
	require.ErrorAs(t, err, &mediaErr)
	assert.Equal(t, ToolMissing, mediaErr.Kind)
}

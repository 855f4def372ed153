// Package media handles the one transform the core runtime needs outside
// the LLM: pulling an audio track out of a video so it can be handed to
// Transcribe. It shells out to ffmpeg exactly the way the
// teacher does for its own audio/video transcodes.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxInputBytes and MaxOutputBytes bound the pipeline's input and output.
const (
	MaxInputBytes  = 100 * 1024 * 1024
	MaxOutputBytes = 25 * 1024 * 1024

	extractTimeout = 60 * time.Second
)

// Pipeline bounds concurrent ffmpeg jobs with a worker pool, per
// MAX_CONCURRENT_MEDIA_JOBS.
type Pipeline struct {
	pool   *pond.WorkerPool
	ffmpeg string
}

// NewPipeline builds a Pipeline with maxConcurrent ffmpeg jobs in flight at
// once; ffmpegPath is the binary name or absolute path to invoke.
func NewPipeline(maxConcurrent int, ffmpegPath string) *Pipeline {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pipeline{
		pool:   pond.New(maxConcurrent, maxConcurrent*2, pond.MinWorkers(1), pond.IdleTimeout(30*time.Second)),
		ffmpeg: ffmpegPath,
	}
}

// ExtractAudio pulls the audio track out of video, encoding it to mono
// 16kHz MP3 at 64kbps. It is gated by the Pipeline's worker
// pool and runs synchronously from the caller's perspective.
func (p *Pipeline) ExtractAudio(ctx context.Context, video []byte) ([]byte, error) {
	if len(video) > MaxInputBytes {
		return nil, newErr("extract_audio", TooLarge, fmt.Errorf("video is %d bytes, max %d", len(video), MaxInputBytes))
	}
	if _, err := exec.LookPath(p.ffmpeg); err != nil {
		return nil, newErr("extract_audio", ToolMissing, err)
	}

	type result struct {
		audio []byte
		err   error
	}
	done := make(chan result, 1)

	p.pool.Submit(func() {
		audio, err := runExtract(ctx, p.ffmpeg, video)
		done <- result{audio, err}
	})

	select {
	case r := <-done:
		return r.audio, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runExtract owns the scoped temp-file lifecycle: the directory and every
// file in it are removed on every exit path, success or failure.
func runExtract(ctx context.Context, ffmpeg string, video []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "wazecore-media-*")
	if err != nil {
		return nil, newErr("extract_audio", ToolFailed, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logrus.WithError(rmErr).Warn("[MEDIA] failed to clean up temp dir")
		}
	}()

	id := uuid.NewString()
	inputPath := filepath.Join(dir, id+"-input.bin")
	outputPath := filepath.Join(dir, id+"-output.mp3")

	if err := os.WriteFile(inputPath, video, 0o644); err != nil {
		return nil, newErr("extract_audio", ToolFailed, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, ffmpeg,
		"-y", "-i", inputPath,
		"-vn", "-ac", "1", "-ar", "16000", "-codec:a", "libmp3lame", "-b:a", "64k",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if bytes.Contains(stderr.Bytes(), []byte("does not contain any stream")) ||
			bytes.Contains(stderr.Bytes(), []byte("Output file does not contain any stream")) {
			return nil, newErr("extract_audio", NoAudio, err)
		}
		logrus.WithError(err).WithField("stderr", stderr.String()).Error("[MEDIA] ffmpeg extraction failed")
		return nil, newErr("extract_audio", ToolFailed, err)
	}

	audio, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, newErr("extract_audio", ToolFailed, err)
	}
	if len(audio) == 0 {
		return nil, newErr("extract_audio", NoAudio, fmt.Errorf("no audio stream produced"))
	}
	if len(audio) > MaxOutputBytes {
		return nil, newErr("extract_audio", TooLarge, fmt.Errorf("extracted audio is %d bytes, max %d", len(audio), MaxOutputBytes))
	}
	return audio, nil
}

// Shutdown stops the pool and waits for running and queued jobs to finish.
// It has no deadline of its own; each job is bounded only by its own
// extraction timeout.
func (p *Pipeline) Shutdown() {
	p.pool.StopAndWait()
}

// Stats exposes pool occupancy for health/debug endpoints.
func (p *Pipeline) Stats() map[string]int {
	return map[string]int{
		"running_workers": p.pool.RunningWorkers(),
		"idle_workers":    p.pool.IdleWorkers(),
		"waiting_tasks":   int(p.pool.WaitingTasks()),
		"failed_tasks":    int(p.pool.FailedTasks()),
	}
}

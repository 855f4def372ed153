package rest

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/llm"
)

// Health serves the one unauthenticated liveness probe.
type Health struct {
	startedAt time.Time
}

// InitRestHealth registers GET /health and returns the handler.
func InitRestHealth(router fiber.Router) Health {
	h := Health{startedAt: time.Now().UTC()}
	router.Get("/health", h.Check)
	return h
}

func (h Health) Check(c *fiber.Ctx) error {
	return ok(c, "ok", fiber.Map{
		"uptime":                  humanize.Time(h.startedAt),
		"max_transcription_bytes": humanize.Bytes(llm.MaxTranscriptionBytes),
	})
}

package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// panicIfErr panics with err, letting middleware.Recovery turn it into the
// error envelope. A nil err is a no-op.
func panicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// parseBody decodes the request body into dst, panicking with a BadInput
// error on malformed JSON.
func parseBody(c *fiber.Ctx, dst any) {
	if err := c.BodyParser(dst); err != nil {
		panic(apierr.New(apierr.BadInput, "invalid request body: %v", err))
	}
}

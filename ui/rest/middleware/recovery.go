// Package middleware holds the fiber middleware shared across every REST
// route: panic recovery into the error envelope, and bearer-token auth.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// Recovery turns a panic anywhere downstream into the {error_kind, message}
// error envelope instead of tearing down the connection. Handlers report a
// typed failure by panicking with an *apierr.Error; anything else is logged
// and reported as Internal.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			apiErr, ok := r.(*apierr.Error)
			if !ok {
				logrus.Errorf("panic recovered in REST handler: %v", r)
				apiErr = apierr.New(apierr.Internal, "%v", r)
			}
			_ = ctx.Status(apiErr.StatusCode()).JSON(apiErr.AsEnvelope())
		}()
		return ctx.Next()
	}
}

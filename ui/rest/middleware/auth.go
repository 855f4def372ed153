package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/pkg/apierr"
	"github.com/wazecore/wazecore/pkg/security"
)

// UserIDLocal is the fiber.Ctx.Locals key RequireAuth stashes the
// authenticated User's id under.
const UserIDLocal = "user_id"

// RequireAuth enforces the bearer-token requirement every REST endpoint
// carries except /health and /auth/login. It panics with an
// *apierr.Error(Unauthorized) on a missing, malformed, or invalid token;
// Recovery turns that into the 401 error envelope.
func RequireAuth(secret []byte) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token, ok := strings.CutPrefix(ctx.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			panic(apierr.New(apierr.Unauthorized, "missing bearer token"))
		}

		claims, err := security.ParseToken(secret, token)
		if err != nil {
			panic(apierr.New(apierr.Unauthorized, "invalid or expired token"))
		}

		ctx.Locals(UserIDLocal, claims.Subject)
		return ctx.Next()
	}
}

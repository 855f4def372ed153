package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/pkg/security"
	"github.com/wazecore/wazecore/store"
)

// Auth serves the login endpoint the rest of the REST surface's bearer
// tokens are issued from.
type Auth struct {
	Store     *store.Store
	JWTSecret []byte
	TokenTTL  time.Duration
}

// InitRestAuth registers the auth routes and returns the handler.
func InitRestAuth(router fiber.Router, st *store.Store, jwtSecret []byte, tokenTTL time.Duration) Auth {
	h := Auth{Store: st, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
	router.Post("/auth/login", h.Login)
	return h
}

func (h Auth) Login(c *fiber.Ctx) error {
	var req loginRequest
	parseBody(c, &req)
	panicIfErr(validateLogin(c.UserContext(), req))

	user, err := h.Store.Authenticate(c.UserContext(), req.Username, req.Password)
	panicIfErr(err)

	token, err := security.IssueToken(h.JWTSecret, user.ID, h.TokenTTL)
	panicIfErr(err)

	return ok(c, "login successful", fiber.Map{
		"token":               token,
		"expires_in_seconds":  int(h.TokenTTL.Seconds()),
	})
}

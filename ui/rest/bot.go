package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/botmanager"
)

// Bot serves the bot-type catalog and bot-instance CRUD endpoints.
type Bot struct {
	Registry *botkernel.Registry
	Manager  *botmanager.Manager
}

// InitRestBot registers the bot routes and returns the handler.
func InitRestBot(router fiber.Router, registry *botkernel.Registry, mgr *botmanager.Manager) Bot {
	h := Bot{Registry: registry, Manager: mgr}
	router.Get("/bot-types", h.ListTypes)
	router.Post("/bots", h.Create)
	router.Patch("/bots/:id", h.Update)
	router.Delete("/bots/:id", h.Delete)
	return h
}

func (h Bot) ListTypes(c *fiber.Ctx) error {
	return ok(c, "bot types listed", h.Registry.List())
}

func (h Bot) Create(c *fiber.Ctx) error {
	var req createBotRequest
	parseBody(c, &req)
	panicIfErr(validateCreateBot(c.UserContext(), req))

	inst, err := h.Manager.CreateBotInstance(c.UserContext(), req.TypeKey, req.Name, req.Description, req.Config)
	panicIfErr(err)
	return created(c, "bot instance created", inst)
}

func (h Bot) Update(c *fiber.Ctx) error {
	var req updateBotRequest
	parseBody(c, &req)
	panicIfErr(validateUpdateBot(c.UserContext(), req))

	err := h.Manager.UpdateBotInstance(c.UserContext(), c.Params("id"), req.Name, req.Description, req.Config, req.Enabled)
	panicIfErr(err)
	return ok(c, "bot instance updated", nil)
}

func (h Bot) Delete(c *fiber.Ctx) error {
	panicIfErr(h.Manager.DeleteBotInstance(c.UserContext(), c.Params("id")))
	return ok(c, "bot instance deleted", nil)
}

package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/botmanager"
	"github.com/wazecore/wazecore/store"
)

// Assignment serves the per-chat bot-assignment CRUD nested under
// /chats/{id}/bots.
type Assignment struct {
	Store   *store.Store
	Manager *botmanager.Manager
}

// InitRestAssignment registers the assignment routes and returns the handler.
func InitRestAssignment(router fiber.Router, st *store.Store, mgr *botmanager.Manager) Assignment {
	h := Assignment{Store: st, Manager: mgr}
	router.Get("/chats/:id/bots", h.List)
	router.Post("/chats/:id/bots", h.Assign)
	router.Patch("/chats/:id/bots/:bot_id", h.Update)
	router.Delete("/chats/:id/bots/:bot_id", h.Remove)
	return h
}

func (h Assignment) List(c *fiber.Ctx) error {
	chatID := c.Params("id")
	_, err := h.Store.GetChat(c.UserContext(), chatID)
	panicIfErr(err)

	assignments, err := h.Store.ListAssignmentsForChat(c.UserContext(), chatID, false)
	panicIfErr(err)
	return ok(c, "assignments listed", assignments)
}

func (h Assignment) Assign(c *fiber.Ctx) error {
	chatID := c.Params("id")
	_, err := h.Store.GetChat(c.UserContext(), chatID)
	panicIfErr(err)

	var req assignBotRequest
	parseBody(c, &req)
	panicIfErr(validateAssignBot(c.UserContext(), req))

	a, err := h.Manager.AssignBot(c.UserContext(), chatID, req.BotInstanceID, req.Priority)
	panicIfErr(err)
	return created(c, "bot assigned", a)
}

// Update resolves bot_id (the BotInstance id) against chat_id to find the
// assignment row, since PATCH/DELETE key off the assignment's own id.
func (h Assignment) Update(c *fiber.Ctx) error {
	chatID, botInstanceID := c.Params("id"), c.Params("bot_id")
	a, err := h.Store.GetAssignment(c.UserContext(), chatID, botInstanceID)
	panicIfErr(err)

	var req updateAssignmentRequest
	parseBody(c, &req)
	panicIfErr(h.Manager.UpdateAssignment(c.UserContext(), a.ID, chatID, req.Priority, req.Enabled))
	return ok(c, "assignment updated", nil)
}

func (h Assignment) Remove(c *fiber.Ctx) error {
	chatID, botInstanceID := c.Params("id"), c.Params("bot_id")
	a, err := h.Store.GetAssignment(c.UserContext(), chatID, botInstanceID)
	panicIfErr(err)

	panicIfErr(h.Manager.RemoveAssignment(c.UserContext(), a.ID, chatID))
	return ok(c, "assignment removed", nil)
}

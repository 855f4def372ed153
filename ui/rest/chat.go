package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/botmanager"
	"github.com/wazecore/wazecore/gateway"
	"github.com/wazecore/wazecore/pkg/apierr"
	"github.com/wazecore/wazecore/store"
)

// ChatLister is the subset of *gateway.Client the Chat handler needs,
// narrowed to an interface so tests can substitute a fake instead of
// reaching a real gateway.
type ChatLister interface {
	ListChats(ctx context.Context) ([]gateway.Chat, error)
}

// Chat serves chat registration, gateway reconciliation, and the
// processed-message browsing endpoint.
type Chat struct {
	Store   *store.Store
	Manager *botmanager.Manager
	Gateway ChatLister
}

// InitRestChat registers the chat routes and returns the handler.
func InitRestChat(router fiber.Router, st *store.Store, mgr *botmanager.Manager, gw ChatLister) Chat {
	h := Chat{Store: st, Manager: mgr, Gateway: gw}
	router.Get("/chats", h.List)
	router.Post("/chats", h.Register)
	router.Post("/chats/sync", h.Sync)
	router.Delete("/chats/:id", h.Delete)
	router.Get("/chats/:id/messages", h.Messages)
	return h
}

func (h Chat) List(c *fiber.Ctx) error {
	chats, err := h.Store.ListChats(c.UserContext(), false)
	panicIfErr(err)
	return ok(c, "chats listed", chats)
}

func (h Chat) Register(c *fiber.Ctx) error {
	var req registerChatRequest
	parseBody(c, &req)
	panicIfErr(validateRegisterChat(c.UserContext(), req))

	if _, err := h.Store.GetChatByJID(c.UserContext(), req.JID); err == nil {
		panic(apierr.New(apierr.Duplicate, "chat %q already registered", req.JID))
	}
	panicIfErr(h.verifyGatewayKnowsJID(c.UserContext(), req.JID))

	chat, err := h.Manager.RegisterChat(c.UserContext(), req.JID, req.Name, store.ChatKind(req.Kind))
	panicIfErr(err)
	return created(c, "chat registered", chat)
}

// verifyGatewayKnowsJID requires the gateway to already know about jid
// before it can be registered explicitly; /chats/sync is the bulk path
// that doesn't need this check since it only ever lists jids the gateway
// reported.
func (h Chat) verifyGatewayKnowsJID(ctx context.Context, jid string) error {
	chats, err := h.Gateway.ListChats(ctx)
	if err != nil {
		return apierr.New(apierr.GatewayError, "list gateway chats: %v", err)
	}
	for _, gc := range chats {
		if gc.JID == jid {
			return nil
		}
	}
	return apierr.New(apierr.NotFound, "gateway has no chat with jid %q", jid)
}

func (h Chat) Sync(c *fiber.Ctx) error {
	gwChats, err := h.Gateway.ListChats(c.UserContext())
	if err != nil {
		panic(apierr.New(apierr.GatewayError, "list gateway chats: %v", err))
	}

	synced := 0
	for _, gc := range gwChats {
		if _, err := h.Manager.RegisterChat(c.UserContext(), gc.JID, gc.Name, store.ChatKind(gc.Kind)); err == nil {
			synced++
		}
	}
	return ok(c, "chats synced", fiber.Map{"synced": synced, "gateway_total": len(gwChats)})
}

func (h Chat) Delete(c *fiber.Ctx) error {
	panicIfErr(h.Manager.DeleteChat(c.UserContext(), c.Params("id")))
	return ok(c, "chat deleted", nil)
}

func (h Chat) Messages(c *fiber.Ctx) error {
	id := c.Params("id")
	_, err := h.Store.GetChat(c.UserContext(), id)
	panicIfErr(err)

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	rows, err := h.Store.ListProcessedForChat(c.UserContext(), id, limit, offset)
	panicIfErr(err)
	return ok(c, "processed messages listed", rows)
}

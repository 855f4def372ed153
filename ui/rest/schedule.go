package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wazecore/wazecore/pkg/apierr"
	"github.com/wazecore/wazecore/scheduler"
	"github.com/wazecore/wazecore/store"
)

// Schedule serves CRUD and manual-fire endpoints for scheduled jobs.
type Schedule struct {
	Store     *store.Store
	Scheduler *scheduler.Scheduler
}

// InitRestSchedule registers the schedule routes and returns the handler.
func InitRestSchedule(router fiber.Router, st *store.Store, sched *scheduler.Scheduler) Schedule {
	h := Schedule{Store: st, Scheduler: sched}
	router.Get("/schedules", h.List)
	router.Post("/schedules", h.Create)
	router.Patch("/schedules/:id", h.Update)
	router.Delete("/schedules/:id", h.Delete)
	router.Post("/schedules/:id/fire", h.Fire)
	return h
}

func (h Schedule) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	rows, err := h.Store.ListSchedules(c.UserContext(), limit, offset)
	panicIfErr(err)
	return ok(c, "schedules listed", rows)
}

func (h Schedule) Create(c *fiber.Ctx) error {
	var req createScheduleRequest
	parseBody(c, &req)
	panicIfErr(validateCreateSchedule(c.UserContext(), req))

	var fireAt *time.Time
	if req.FireAt != "" {
		t, err := time.Parse(time.RFC3339, req.FireAt)
		if err != nil {
			panic(apierr.New(apierr.BadInput, "fire_at must be RFC3339: %v", err))
		}
		t = t.UTC()
		fireAt = &t
	}

	sched, err := h.Store.CreateSchedule(c.UserContext(), store.ScheduleKind(req.Kind), fireAt, req.Expression, req.Timezone, req.TargetJID, req.Content)
	panicIfErr(err)
	return created(c, "schedule created", sched)
}

func (h Schedule) Update(c *fiber.Ctx) error {
	var req updateScheduleRequest
	parseBody(c, &req)
	panicIfErr(validateUpdateSchedule(c.UserContext(), req))

	panicIfErr(h.Store.UpdateSchedule(c.UserContext(), c.Params("id"), req.TargetJID, req.Content, req.Enabled))
	return ok(c, "schedule updated", nil)
}

func (h Schedule) Delete(c *fiber.Ctx) error {
	panicIfErr(h.Store.DeleteSchedule(c.UserContext(), c.Params("id")))
	return ok(c, "schedule deleted", nil)
}

func (h Schedule) Fire(c *fiber.Ctx) error {
	panicIfErr(h.Scheduler.FireNow(c.UserContext(), c.Params("id")))
	return ok(c, "schedule fire triggered", nil)
}

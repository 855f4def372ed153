// Package rest wires the service's HTTP surface: chat and bot-instance
// management, schedules, and processed-message browsing, on top of
// fiber. Every handler is thin — validate input, call into store or
// botmanager, panic with an *apierr.Error on failure, otherwise return the
// success envelope.
package rest

import "github.com/gofiber/fiber/v2"

// Envelope is the success-response shape every REST endpoint shares.
type Envelope struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

func respond(ctx *fiber.Ctx, status int, code, message string, results any) error {
	return ctx.Status(status).JSON(Envelope{Status: status, Code: code, Message: message, Results: results})
}

func ok(ctx *fiber.Ctx, message string, results any) error {
	return respond(ctx, fiber.StatusOK, "SUCCESS", message, results)
}

func created(ctx *fiber.Ctx, message string, results any) error {
	return respond(ctx, fiber.StatusCreated, "CREATED", message, results)
}

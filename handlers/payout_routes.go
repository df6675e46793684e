// handlers/payout_routes.go
package handlers

import (
	"time"

	"clinic-partner-system/middleware"
	"clinic-partner-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPayoutRoutes(app *fiber.App, payoutService *services.PayoutService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/partners/:id/payouts", func(c *fiber.Ctx) error {
		var req struct {
			Method    string `json:"method"`
			Reference string `json:"reference"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Method == "" || req.Reference == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "method and reference are required"})
		}

		payout, err := payoutService.ProcessPayout(c.Context(), c.Params("id"), req.Method, req.Reference)
		if err != nil {
			return fail(c, "failed to process payout", err)
		}
		return c.Status(fiber.StatusCreated).JSON(payout)
	})

	securedGroup.Post("/payouts/batch", func(c *fiber.Ctx) error {
		var req struct {
			IdempotencyKey string    `json:"idempotency_key"`
			PartnerIDs     []string  `json:"partner_ids"`
			Method         string    `json:"method"`
			PeriodStart    time.Time `json:"period_start"`
			PeriodEnd      time.Time `json:"period_end"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if key := c.Get("X-Idempotency-Key"); key != "" {
			req.IdempotencyKey = key
		}
		if req.IdempotencyKey == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "idempotency key is required (X-Idempotency-Key header or body)"})
		}
		if req.Method == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "method is required"})
		}

		report, err := payoutService.ProcessBatch(c.Context(), req.IdempotencyKey, req.PartnerIDs, req.Method, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return fail(c, "failed to process batch payout", err)
		}
		// Partial failure is an expected outcome — still a 200 with the report
		return c.JSON(report)
	})
}

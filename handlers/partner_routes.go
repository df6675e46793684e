// handlers/partner_routes.go
package handlers

import (
	"fmt"
	"strconv"

	"clinic-partner-system/middleware"
	"clinic-partner-system/models"
	"clinic-partner-system/services"
	"clinic-partner-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupPartnerRoutes(app *fiber.App, partnerService *services.PartnerService, ledgerService *services.LedgerService, earningsService *services.EarningsService) {
	// 🔐 Secured routes — the gateway forwards the operator context
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/partners", func(c *fiber.Ctx) error {
		var req services.CreatePartnerInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		partner, err := partnerService.CreatePartner(c.Context(), req)
		if err != nil {
			return fail(c, "failed to create partner", err)
		}
		return c.Status(fiber.StatusCreated).JSON(partner)
	})

	securedGroup.Get("/partners", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		status := models.PartnerStatus(c.Query("status"))
		ptype := models.PartnerType(c.Query("type"))

		partners, total, err := partnerService.ListPartners(c.Context(), status, ptype, page, size)
		if err != nil {
			return fail(c, "failed to list partners", err)
		}
		return c.JSON(fiber.Map{
			"partners":    partners,
			"page":        page,
			"size":        size,
			"total_items": total,
		})
	})

	securedGroup.Get("/partners/:id", func(c *fiber.Ctx) error {
		partner, err := partnerService.GetPartner(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, "failed to load partner", err)
		}
		return c.JSON(fiber.Map{
			"partner":  partner,
			"progress": services.ProgressFor(partner.TotalReferrals),
		})
	})

	securedGroup.Patch("/partners/:id/rule", func(c *fiber.Ctx) error {
		var rule models.CommissionRule
		if err := c.BodyParser(&rule); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		partner, err := partnerService.UpdateRule(c.Context(), c.Params("id"), rule)
		if err != nil {
			return fail(c, "failed to update commission rule", err)
		}
		return c.JSON(partner)
	})

	securedGroup.Patch("/partners/:id/status", func(c *fiber.Ctx) error {
		var req struct {
			Status models.PartnerStatus `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		partner, err := partnerService.UpdateStatus(c.Context(), c.Params("id"), req.Status)
		if err != nil {
			return fail(c, "failed to update partner status", err)
		}
		return c.JSON(partner)
	})

	securedGroup.Post("/partners/:id/coupons", func(c *fiber.Ctx) error {
		var req struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		link, err := partnerService.LinkCoupon(c.Context(), c.Params("id"), req.Code)
		if err != nil {
			return fail(c, "failed to link coupon", err)
		}
		return c.Status(fiber.StatusCreated).JSON(link)
	})

	securedGroup.Delete("/partners/:id/coupons/:code", func(c *fiber.Ctx) error {
		if err := partnerService.UnlinkCoupon(c.Context(), c.Params("id"), c.Params("code")); err != nil {
			return fail(c, "failed to unlink coupon", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	securedGroup.Get("/partners/:id/coupons", func(c *fiber.Ctx) error {
		links, err := partnerService.ListCoupons(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, "failed to list coupons", err)
		}
		return c.JSON(fiber.Map{"coupons": links})
	})

	securedGroup.Post("/partners/:id/referrals", func(c *fiber.Ctx) error {
		var req struct {
			Type       models.EventType `json:"type"`
			BaseValue  int64            `json:"base_value"`
			CouponCode string           `json:"coupon_code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Type == "" {
			req.Type = models.EventReferral
		}
		event, err := ledgerService.Record(c.Context(), c.Params("id"), req.Type, req.BaseValue, req.CouponCode)
		if err != nil {
			return fail(c, "failed to record referral", err)
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	})

	securedGroup.Get("/partners/:id/earnings", func(c *fiber.Ctx) error {
		summary, err := earningsService.Summarize(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, "failed to summarize earnings", err)
		}
		return c.JSON(summary)
	})

	securedGroup.Get("/partners/:id/ledger", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		events, total, err := ledgerService.History(c.Context(), c.Params("id"), page, size)
		if err != nil {
			return fail(c, "failed to load ledger", err)
		}
		return c.JSON(fiber.Map{
			"events":      events,
			"page":        page,
			"size":        size,
			"total_items": total,
		})
	})

	securedGroup.Get("/partners/:id/statement", func(c *fiber.Ctx) error {
		partner, err := partnerService.GetPartner(c.Context(), c.Params("id"))
		if err != nil {
			return fail(c, "failed to load partner", err)
		}
		events, err := ledgerService.Export(c.Context(), partner.ID)
		if err != nil {
			return fail(c, "failed to load ledger", err)
		}
		workbook, err := utils.BuildStatementWorkbook(partner, events)
		if err != nil {
			return fail(c, "failed to build statement", err)
		}
		key := fmt.Sprintf("statements/%s-%d.xlsx", partner.ID, partner.TotalReferrals)
		url, err := utils.UploadBytesToR2(key, workbook, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err != nil {
			return fail(c, "failed to upload statement", err)
		}
		return c.JSON(fiber.Map{"url": url})
	})

	securedGroup.Get("/coupons/:code/stats", func(c *fiber.Ctx) error {
		stats, err := earningsService.SummarizeCoupon(c.Context(), c.Params("code"))
		if err != nil {
			return fail(c, "failed to summarize coupon", err)
		}
		return c.JSON(stats)
	})
}

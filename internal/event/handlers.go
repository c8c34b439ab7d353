package event

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, adminMiddleware fiber.Handler) {
	r.Get("/approved-events", authMiddleware, func(c *fiber.Ctx) error {
		events, err := svc.ListApproved(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(events)
	})

	r.Get("/unapproved-events", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		events, err := svc.ListUnapproved(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(events)
	})

	r.Post("/approve/:eventId", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Comment string `json:"comment"`
		}
		_ = c.BodyParser(&body)

		e, err := svc.Approve(c.Context(), c.Params("eventId"), body.Comment)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(e)
	})

	r.Post("/reject/:eventId", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Reject(c.Context(), c.Params("eventId")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "event rejected"})
	})
}

package user

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, adminMiddleware fiber.Handler) {
	r.Get("/info", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		u, err := svc.Info(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(u)
	})

	r.Put("/update", authMiddleware, func(c *fiber.Ctx) error {
		var patch UpdateRequest
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		userID, _ := c.Locals("user_id").(string)
		u, err := svc.Update(c.Context(), userID, patch)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrEmailTaken):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(u)
	})

	r.Put("/password", authMiddleware, func(c *fiber.Ctx) error {
		var req PasswordRequest
		if err := c.BodyParser(&req); err != nil || req.CurrentPassword == "" {
			return fiber.NewError(fiber.StatusBadRequest, "current and new password required")
		}
		userID, _ := c.Locals("user_id").(string)
		if err := svc.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
			switch {
			case errors.Is(err, ErrWrongPassword):
				return fiber.NewError(fiber.StatusUnauthorized, err.Error())
			case errors.Is(err, ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"message": "password updated"})
	})

	r.Put("/profile-picture", authMiddleware, func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
		}
		files := form.File["picture"]
		if len(files) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "picture is required")
		}
		file, err := files[0].Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		userID, _ := c.Locals("user_id").(string)
		url, err := svc.SetProfilePicture(c.Context(), userID, Picture{
			Filename:    files[0].Filename,
			ContentType: files[0].Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"profile_picture_url": url})
	})

	r.Delete("/delete", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Delete(c.Context(), userID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "account deleted"})
	})

	r.Get("/all", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		users, err := svc.ListCommon(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(users)
	})

	r.Delete("/admin/delete/:email", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteByEmail(c.Context(), c.Params("email")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "user deleted"})
	})
}

package location

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, adminMiddleware fiber.Handler) {
	r.Post("/create", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
		}

		req := CreateRequest{}
		if v := form.Value["name"]; len(v) > 0 {
			req.Name = v[0]
		}
		if v := form.Value["coordinate"]; len(v) > 0 {
			req.Coordinate = v[0]
		}
		if files := form.File["thumbnail"]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			req.Thumbnail = Thumbnail{
				Filename:    files[0].Filename,
				ContentType: files[0].Header.Get("Content-Type"),
				Data:        data,
			}
		}

		created, err := svc.Create(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrNameTaken) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		locations, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(locations)
	})

	r.Get("/:locationId", authMiddleware, func(c *fiber.Ctx) error {
		l, err := svc.Get(c.Context(), c.Params("locationId"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(l)
	})

	r.Get("/:locationId/posts", authMiddleware, func(c *fiber.Ctx) error {
		d, err := svc.Posts(c.Context(), c.Params("locationId"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(d)
	})

	r.Delete("/:locationId", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("locationId")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "location deleted"})
	})
}

package post

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, adminMiddleware fiber.Handler) {
	r.Post("/create", authMiddleware, func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
		}

		req := CreateRequest{
			Title:      formValue(form, "title"),
			Comment:    formValue(form, "comment"),
			LocationID: formValue(form, "locationId"),
		}
		for _, f := range []struct {
			name string
			dst  *int
		}{
			{"cleanliness", &req.Cleanliness},
			{"appearance", &req.Appearance},
			{"wildlife", &req.Wildlife},
		} {
			v, err := strconv.Atoi(formValue(form, f.name))
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, f.name+" must be a number between 0 and 5")
			}
			*f.dst = v
		}

		photos, err := readUploads(form.File["photos"])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.Photos = photos

		userID, _ := c.Locals("user_id").(string)
		created, err := svc.Create(c.Context(), userID, req)
		if err != nil {
			if errors.Is(err, ErrLocationNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Put("/approve/:postId", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Approve(c.Context(), c.Params("postId")); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "post approved"})
	})

	r.Delete("/unapprove/:postId", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Message string `json:"message"`
		}
		if err := c.BodyParser(&body); err != nil || body.Message == "" {
			return fiber.NewError(fiber.StatusBadRequest, "message for reason is required")
		}
		if err := svc.Unapprove(c.Context(), c.Params("postId"), body.Message); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "post unapproved and deleted"})
	})

	r.Put("/update/:postId", authMiddleware, func(c *fiber.Ctx) error {
		var patch UpdateRequest
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID, _ := c.Locals("user_id").(string)
		updated, err := svc.Update(c.Context(), c.Params("postId"), userID, patch)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrPermission):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(updated)
	})

	r.Get("/location/:locationId/:sortOrder", authMiddleware, func(c *fiber.Ctx) error {
		sortOrder, err := parseSortOrder(c.Params("sortOrder"))
		if err != nil {
			return err
		}
		posts, err := svc.ListByLocation(c.Context(), c.Params("locationId"), sortOrder)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/approvedByUser/:sortOrder", authMiddleware, func(c *fiber.Ctx) error {
		sortOrder, err := parseSortOrder(c.Params("sortOrder"))
		if err != nil {
			return err
		}
		userID, _ := c.Locals("user_id").(string)
		posts, err := svc.ListApprovedByUser(c.Context(), userID, sortOrder)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/allPostsByCurrentUser/:sortOrder", authMiddleware, func(c *fiber.Ctx) error {
		sortOrder, err := parseSortOrder(c.Params("sortOrder"))
		if err != nil {
			return err
		}
		userID, _ := c.Locals("user_id").(string)
		posts, err := svc.ListAllByUser(c.Context(), userID, sortOrder)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/grouped/:sortOrder", authMiddleware, func(c *fiber.Ctx) error {
		sortOrder, err := parseSortOrder(c.Params("sortOrder"))
		if err != nil {
			return err
		}
		userID, _ := c.Locals("user_id").(string)
		groups, err := svc.GroupedByLocation(c.Context(), userID, sortOrder)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(groups)
	})

	r.Get("/allposts/:sortOrder", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		sortOrder, err := parseSortOrder(c.Params("sortOrder"))
		if err != nil {
			return err
		}
		posts, err := svc.ListAll(c.Context(), sortOrder)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/approved/:sortOrder", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		sortOrder, err := parseSortOrder(c.Params("sortOrder"))
		if err != nil {
			return err
		}
		posts, err := svc.ListApproved(c.Context(), sortOrder)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/unapproved/:sortOrder", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		sortOrder, err := parseSortOrder(c.Params("sortOrder"))
		if err != nil {
			return err
		}
		posts, err := svc.ListUnapproved(c.Context(), sortOrder)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Delete("/:postId", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Message string `json:"message"`
		}
		_ = c.BodyParser(&body)

		userID, _ := c.Locals("user_id").(string)
		role, _ := c.Locals("role").(string)
		if err := svc.Delete(c.Context(), c.Params("postId"), userID, role, body.Message); err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrPermission):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"message": "post deleted"})
	})
}

func parseSortOrder(value string) (string, error) {
	if value != "asc" && value != "desc" {
		return "", fiber.NewError(fiber.StatusBadRequest, "sortOrder must be asc or desc")
	}
	return value, nil
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func readUploads(headers []*multipart.FileHeader) ([]PhotoUpload, error) {
	var photos []PhotoUpload
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, err
		}
		photos = append(photos, PhotoUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return photos, nil
}

package user

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-purewaters/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newTestApp(svc *Service, role string) *fiber.App {
	app := fiber.New()
	authMw := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		c.Locals("role", role)
		return c.Next()
	}
	adminMw := func(c *fiber.Ctx) error {
		if role != "admin" {
			return fiber.NewError(fiber.StatusForbidden, "admin role required")
		}
		return c.Next()
	}
	RegisterRoutes(app.Group("/api/user"), svc, authMw, adminMw)
	return app
}

func TestInfoRouteHidesPasswordHash(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	app := newTestApp(NewService(mock, storage.NewMemory()), "common")

	expectInfo(mock, "user-1", "ada@example.com", "")

	req := httptest.NewRequest(fiber.MethodGet, "/api/user/info", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["email"] != "ada@example.com" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, leaked := payload["password_hash"]; leaked {
		t.Fatal("password hash leaked in response")
	}
}

func TestUpdateRouteConflictOnTakenEmail(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	app := newTestApp(NewService(mock, storage.NewMemory()), "common")

	expectInfo(mock, "user-1", "ada@example.com", "")
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE email`).
		WithArgs("taken@example.com", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	req := httptest.NewRequest(fiber.MethodPut, "/api/user/update",
		strings.NewReader(`{"email":"taken@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status %d, want 409", resp.StatusCode)
	}
}

func TestPasswordRouteRequiresBody(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	app := newTestApp(NewService(mock, storage.NewMemory()), "common")

	req := httptest.NewRequest(fiber.MethodPut, "/api/user/password", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestAllRouteRequiresAdmin(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	app := newTestApp(NewService(mock, storage.NewMemory()), "common")

	req := httptest.NewRequest(fiber.MethodGet, "/api/user/all", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status %d, want 403", resp.StatusCode)
	}
}

func TestAdminDeleteRoute(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	app := newTestApp(NewService(mock, storage.NewMemory()), "admin")

	mock.ExpectQuery(`SELECT id FROM users WHERE email`).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("user-1"))

	expectInfo(mock, "user-1", "ada@example.com", "")

	mock.ExpectQuery(`SELECT photos FROM posts`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"photos"}))
	mock.ExpectExec(`DELETE FROM posts WHERE user_id`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM notifications WHERE user_id`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM users WHERE id`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	req := httptest.NewRequest(fiber.MethodDelete, "/api/user/admin/delete/ada@example.com", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

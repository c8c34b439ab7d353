package location

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"backend-purewaters/internal/event"
	"backend-purewaters/internal/notification"
	"backend-purewaters/internal/storage"

	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

func newTestService(mock pgxmock.PgxPoolIface, blobs *storage.Memory) *Service {
	events := event.NewService(mock, notification.NewService(mock, nil))
	return NewService(mock, blobs, events)
}

func locationColumns() []string {
	return []string{
		"id", "name", "coordinate", "thumbnail_url", "rate", "cleanliness", "appearance", "wildlife",
		"event_id", "event_start", "event_finish", "event_comment", "created_at", "updated_at",
	}
}

func TestCreateUploadsThumbnail(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	blobs := storage.NewMemory()
	svc := newTestService(mock, blobs)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM locations WHERE name`).
		WithArgs("Lake Eymir").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO locations`).
		WithArgs(pgxmock.AnyArg(), "Lake Eymir", "39.82,32.83", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	l, err := svc.Create(context.Background(), CreateRequest{
		Name:       "Lake Eymir",
		Coordinate: "39.82,32.83",
		Thumbnail:  Thumbnail{Filename: "eymir.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.ID == "" || l.Rate != 0 {
		t.Fatalf("unexpected location: %+v", l)
	}
	if !strings.Contains(l.ThumbnailURL, "locations/") {
		t.Fatalf("unexpected thumbnail url: %s", l.ThumbnailURL)
	}
	if blobs.Len() != 1 {
		t.Fatalf("expected 1 uploaded blob, got %d", blobs.Len())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	svc := newTestService(mock, storage.NewMemory())

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM locations WHERE name`).
		WithArgs("Lake Eymir").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Create(context.Background(), CreateRequest{
		Name:       "Lake Eymir",
		Coordinate: "39.82,32.83",
		Thumbnail:  Thumbnail{Filename: "eymir.jpg", Data: []byte("jpeg")},
	})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	svc := newTestService(mock, storage.NewMemory())

	cases := []struct {
		name string
		req  CreateRequest
		want string
	}{
		{"missing name", CreateRequest{Coordinate: "1,2", Thumbnail: Thumbnail{Data: []byte("x")}}, "name"},
		{"missing coordinate", CreateRequest{Name: "Lake", Thumbnail: Thumbnail{Data: []byte("x")}}, "coordinate"},
		{"missing thumbnail", CreateRequest{Name: "Lake", Coordinate: "1,2"}, "thumbnail"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestListExpiresStaleEventsFirst(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	svc := newTestService(mock, storage.NewMemory())

	mock.ExpectExec(`UPDATE locations`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM events WHERE does_approve=true`).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)
	finish := now.Add(6 * 24 * time.Hour)
	mock.ExpectQuery(`FROM locations\s+ORDER BY name`).
		WillReturnRows(pgxmock.NewRows(locationColumns()).
			AddRow("loc-1", "Lake Eymir", "39.82,32.83", "", 1.5, 1.0, 2.0, 1.5,
				"event-1", &start, &finish, "cleanup scheduled", now, now).
			AddRow("loc-2", "Mogan Lake", "39.78,32.79", "", 4.0, 4.0, 4.0, 4.0,
				"", (*time.Time)(nil), (*time.Time)(nil), "", now, now))

	locations, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locations))
	}
	if locations[0].EventID != "event-1" || locations[0].EventFinish == nil {
		t.Fatalf("unexpected event fields: %+v", locations[0])
	}
	if locations[1].EventID != "" || locations[1].EventStart != nil {
		t.Fatalf("expected no event on second location: %+v", locations[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	svc := newTestService(mock, storage.NewMemory())

	mock.ExpectQuery(`FROM locations WHERE id`).
		WithArgs("missing").
		WillReturnError(errors.New("no rows in result set"))

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostsReturnsApprovedWithAuthors(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	svc := newTestService(mock, storage.NewMemory())

	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM locations WHERE id`).
		WithArgs("loc-1").
		WillReturnRows(pgxmock.NewRows(locationColumns()).
			AddRow("loc-1", "Lake Eymir", "39.82,32.83", "", 4.0, 4.0, 4.0, 4.0,
				"", (*time.Time)(nil), (*time.Time)(nil), "", now, now))

	mock.ExpectQuery(`FROM posts p\s+JOIN users u`).
		WithArgs("loc-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "title", "comment", "photos", "cleanliness", "appearance", "wildlife", "created_at",
			"u_name", "u_surname", "profile_picture_url",
		}).AddRow("post-1", "user-1", "Clear water", "Nice shore", []string{}, 4, 4, 4, now,
			"Ada", "Aksoy", ""))

	d, err := svc.Posts(context.Background(), "loc-1")
	if err != nil {
		t.Fatalf("posts: %v", err)
	}
	if d.Location.Name != "Lake Eymir" {
		t.Fatalf("unexpected location: %+v", d.Location)
	}
	if len(d.Posts) != 1 || d.Posts[0].UserName != "Ada" {
		t.Fatalf("unexpected posts: %+v", d.Posts)
	}
}

func TestDeleteCascades(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	blobs := storage.NewMemory()
	ctx := context.Background()
	for _, object := range []string{"posts/1_a.jpg", "posts/2_b.jpg", "locations/3_eymir.jpg"} {
		if _, err := blobs.Upload(ctx, object, "image/jpeg", []byte("jpeg")); err != nil {
			t.Fatalf("seed blob: %v", err)
		}
	}
	svc := newTestService(mock, blobs)

	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM locations WHERE id`).
		WithArgs("loc-1").
		WillReturnRows(pgxmock.NewRows(locationColumns()).
			AddRow("loc-1", "Lake Eymir", "39.82,32.83", "https://storage.example/locations/3_eymir.jpg",
				1.0, 1.0, 1.0, 1.0, "", (*time.Time)(nil), (*time.Time)(nil), "", now, now))

	mock.ExpectQuery(`SELECT photos FROM posts`).
		WithArgs("loc-1").
		WillReturnRows(pgxmock.NewRows([]string{"photos"}).
			AddRow([]string{"https://storage.example/posts/1_a.jpg"}).
			AddRow([]string{"https://storage.example/posts/2_b.jpg"}))

	mock.ExpectExec(`DELETE FROM posts WHERE location_id`).
		WithArgs("loc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM events WHERE location_id`).
		WithArgs("loc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM locations WHERE id`).
		WithArgs("loc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := svc.Delete(ctx, "loc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if blobs.Len() != 0 {
		t.Fatalf("expected all blobs removed, %d left", blobs.Len())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

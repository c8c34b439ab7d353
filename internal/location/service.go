package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend-purewaters/internal/db"
	"backend-purewaters/internal/event"
	"backend-purewaters/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("location not found")
	ErrNameTaken = errors.New("a location with this name already exists")
)

var nowFn = time.Now

type Service struct {
	db     db.Querier
	blobs  storage.BlobStore
	events *event.Service
}

func NewService(db db.Querier, blobs storage.BlobStore, events *event.Service) *Service {
	return &Service{db: db, blobs: blobs, events: events}
}

// Create registers a new water body with a zeroed rating profile. The
// thumbnail is uploaded before the insert, so a failed insert leaves the
// blob behind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Location, error) {
	if req.Name == "" {
		return Location{}, errors.New("name is required")
	}
	if req.Coordinate == "" {
		return Location{}, errors.New("coordinate is required")
	}
	if len(req.Thumbnail.Data) == 0 {
		return Location{}, errors.New("thumbnail is required")
	}

	var taken bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE name=$1)
	`, req.Name).Scan(&taken); err != nil {
		return Location{}, err
	}
	if taken {
		return Location{}, ErrNameTaken
	}

	object := fmt.Sprintf("locations/%d_%s", nowFn().UnixNano(), req.Thumbnail.Filename)
	url, err := s.blobs.Upload(ctx, object, req.Thumbnail.ContentType, req.Thumbnail.Data)
	if err != nil {
		return Location{}, err
	}

	l := Location{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Coordinate:   req.Coordinate,
		ThumbnailURL: url,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO locations (id, name, coordinate, thumbnail_url, rate, cleanliness, appearance, wildlife)
		VALUES ($1,$2,$3,$4,0,0,0,0)
		RETURNING created_at, updated_at
	`, l.ID, l.Name, l.Coordinate, l.ThumbnailURL)
	if err := row.Scan(&l.CreatedAt, &l.UpdatedAt); err != nil {
		return Location{}, err
	}
	return l, nil
}

// List returns every location. Stale approved events are expired first so
// the event fields in the response never point at a finished event.
func (s *Service) List(ctx context.Context) ([]Location, error) {
	if err := s.events.ExpireStale(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, coordinate, COALESCE(thumbnail_url,''), rate, cleanliness, appearance, wildlife,
		       COALESCE(event_id,''), event_start, event_finish, COALESCE(event_comment,''),
		       created_at, updated_at
		FROM locations
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Coordinate, &l.ThumbnailURL,
			&l.Rate, &l.Cleanliness, &l.Appearance, &l.Wildlife,
			&l.EventID, &l.EventStart, &l.EventFinish, &l.EventComment,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *Service) Get(ctx context.Context, locationID string) (Location, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, coordinate, COALESCE(thumbnail_url,''), rate, cleanliness, appearance, wildlife,
		       COALESCE(event_id,''), event_start, event_finish, COALESCE(event_comment,''),
		       created_at, updated_at
		FROM locations WHERE id=$1
	`, locationID)

	var l Location
	if err := row.Scan(&l.ID, &l.Name, &l.Coordinate, &l.ThumbnailURL,
		&l.Rate, &l.Cleanliness, &l.Appearance, &l.Wildlife,
		&l.EventID, &l.EventStart, &l.EventFinish, &l.EventComment,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return Location{}, ErrNotFound
	}
	return l, nil
}

// Posts returns the location together with its approved posts and their
// authors.
func (s *Service) Posts(ctx context.Context, locationID string) (Details, error) {
	l, err := s.Get(ctx, locationID)
	if err != nil {
		return Details{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.user_id, p.title, p.comment, p.photos, p.cleanliness, p.appearance, p.wildlife, p.created_at,
		       u.name, u.surname, COALESCE(u.profile_picture_url,'')
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.location_id=$1 AND p.approved=true
		ORDER BY p.created_at DESC
	`, locationID)
	if err != nil {
		return Details{}, err
	}
	defer rows.Close()

	d := Details{Location: l}
	for rows.Next() {
		var p PostInfo
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Comment, &p.Photos,
			&p.Cleanliness, &p.Appearance, &p.Wildlife, &p.CreatedAt,
			&p.UserName, &p.UserSurname, &p.ProfilePictureURL); err != nil {
			return Details{}, err
		}
		d.Posts = append(d.Posts, p)
	}
	return d, rows.Err()
}

// Delete removes a location and everything hanging off it: post photos,
// post rows, pending or active events, the thumbnail and finally the
// location itself.
func (s *Service) Delete(ctx context.Context, locationID string) error {
	l, err := s.Get(ctx, locationID)
	if err != nil {
		return err
	}

	rows, err := s.db.Query(ctx, `SELECT photos FROM posts WHERE location_id=$1`, locationID)
	if err != nil {
		return err
	}
	var photoURLs []string
	for rows.Next() {
		var photos []string
		if err := rows.Scan(&photos); err != nil {
			rows.Close()
			return err
		}
		photoURLs = append(photoURLs, photos...)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, url := range photoURLs {
		object := storage.ObjectName("posts", url)
		if object == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, object); err != nil {
			log.Printf("delete photo %s: %v", object, err)
		}
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM posts WHERE location_id=$1`, locationID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM events WHERE location_id=$1`, locationID); err != nil {
		return err
	}

	if object := storage.ObjectName("locations", l.ThumbnailURL); object != "" {
		if err := s.blobs.Delete(ctx, object); err != nil {
			log.Printf("delete thumbnail %s: %v", object, err)
		}
	}

	_, err = s.db.Exec(ctx, `DELETE FROM locations WHERE id=$1`, locationID)
	return err
}

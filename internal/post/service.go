package post

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend-purewaters/internal/db"
	"backend-purewaters/internal/notification"
	"backend-purewaters/internal/rating"
	"backend-purewaters/internal/storage"

	"github.com/google/uuid"
)

const maxTitleLen = 60

var (
	ErrNotFound         = errors.New("post not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrPermission       = errors.New("you do not have permission to modify this post")
)

var nowFn = time.Now

type Service struct {
	db      db.Querier
	blobs   storage.BlobStore
	ratings *rating.Service
	notifs  *notification.Service
}

func NewService(db db.Querier, blobs storage.BlobStore, ratings *rating.Service, notifs *notification.Service) *Service {
	return &Service{db: db, blobs: blobs, ratings: ratings, notifs: notifs}
}

// Create validates and persists a new rating post. Photos are uploaded
// first; a failure afterwards leaves the uploaded blobs in place.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Post, error) {
	if req.Title == "" || len(req.Title) > maxTitleLen {
		return Post{}, fmt.Errorf("title is required and must be at most %d characters", maxTitleLen)
	}
	if req.Comment == "" {
		return Post{}, errors.New("comment is required")
	}
	if err := validateRate("cleanliness", req.Cleanliness); err != nil {
		return Post{}, err
	}
	if err := validateRate("appearance", req.Appearance); err != nil {
		return Post{}, err
	}
	if err := validateRate("wildlife", req.Wildlife); err != nil {
		return Post{}, err
	}
	if len(req.Photos) < 1 || len(req.Photos) > 3 {
		return Post{}, errors.New("you must upload at least one and at most three photos")
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE id=$1)
	`, req.LocationID).Scan(&exists); err != nil {
		return Post{}, err
	}
	if !exists {
		return Post{}, ErrLocationNotFound
	}

	photoURLs := make([]string, 0, len(req.Photos))
	for _, photo := range req.Photos {
		object := fmt.Sprintf("posts/%d_%s", nowFn().UnixNano(), photo.Filename)
		url, err := s.blobs.Upload(ctx, object, photo.ContentType, photo.Data)
		if err != nil {
			return Post{}, err
		}
		photoURLs = append(photoURLs, url)
	}

	p := Post{
		ID:          uuid.NewString(),
		LocationID:  req.LocationID,
		UserID:      userID,
		Title:       req.Title,
		Comment:     req.Comment,
		Photos:      photoURLs,
		Cleanliness: req.Cleanliness,
		Appearance:  req.Appearance,
		Wildlife:    req.Wildlife,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, location_id, user_id, title, comment, photos, cleanliness, appearance, wildlife, approved, does_tuned)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,false,false)
		RETURNING created_at, updated_at
	`, p.ID, p.LocationID, p.UserID, p.Title, p.Comment, p.Photos, p.Cleanliness, p.Appearance, p.Wildlife)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Post{}, err
	}
	return p, nil
}

// Approve marks a post visible, notifies its owner and refreshes the
// location aggregates.
func (s *Service) Approve(ctx context.Context, postID string) error {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE posts SET approved=true, updated_at=now() WHERE id=$1
	`, postID); err != nil {
		return err
	}

	_, err = s.notifs.Create(ctx, notification.Notification{
		UserID:  p.UserID,
		PostID:  p.ID,
		Message: fmt.Sprintf("Your %q post has been approved.", p.Title),
	})
	if err != nil {
		return err
	}

	_, err = s.ratings.Recompute(ctx, p.LocationID)
	return err
}

// Delete removes a post on behalf of its owner or an admin. Admin deletions
// carry a reason passed on to the owner.
func (s *Service) Delete(ctx context.Context, postID, userID, role, reason string) error {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if userID != p.UserID && role != "admin" {
		return ErrPermission
	}

	s.deletePhotos(ctx, p.Photos)

	if _, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, postID); err != nil {
		return err
	}

	if role == "admin" && userID != p.UserID {
		_, err = s.notifs.Create(ctx, notification.Notification{
			UserID:  p.UserID,
			PostID:  p.ID,
			Message: fmt.Sprintf("Your %q post has been deleted. For the reason %q", p.Title, reason),
		})
		if err != nil {
			return err
		}
	}

	return s.recomputeAfterRemoval(ctx, p.LocationID)
}

// Unapprove rejects and deletes a pending post, cleaning up its photos and
// notifying the owner with the rejection reason.
func (s *Service) Unapprove(ctx context.Context, postID, reason string) error {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}

	s.deletePhotos(ctx, p.Photos)

	_, err = s.notifs.Create(ctx, notification.Notification{
		UserID:  p.UserID,
		PostID:  p.ID,
		Message: fmt.Sprintf("Your %q post has been rejected. For the reason %q", p.Title, reason),
	})
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, postID); err != nil {
		return err
	}

	return s.recomputeAfterRemoval(ctx, p.LocationID)
}

// Update applies a partial patch and sends the post back through
// moderation.
func (s *Service) Update(ctx context.Context, postID, userID string, patch UpdateRequest) (Post, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if p.UserID != userID {
		return Post{}, ErrPermission
	}

	if patch.Title != "" {
		if len(patch.Title) > maxTitleLen {
			return Post{}, fmt.Errorf("title must be at most %d characters", maxTitleLen)
		}
		p.Title = patch.Title
	}
	if patch.Comment != "" {
		p.Comment = patch.Comment
	}
	for _, f := range []struct {
		name  string
		value *int
		dst   *int
	}{
		{"cleanliness", patch.Cleanliness, &p.Cleanliness},
		{"appearance", patch.Appearance, &p.Appearance},
		{"wildlife", patch.Wildlife, &p.Wildlife},
	} {
		if f.value == nil {
			continue
		}
		if err := validateRate(f.name, *f.value); err != nil {
			return Post{}, err
		}
		*f.dst = *f.value
	}

	p.Approved = false
	_, err = s.db.Exec(ctx, `
		UPDATE posts
		SET title=$2, comment=$3, cleanliness=$4, appearance=$5, wildlife=$6, approved=false, updated_at=now()
		WHERE id=$1
	`, p.ID, p.Title, p.Comment, p.Cleanliness, p.Appearance, p.Wildlife)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, postID string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, location_id, user_id, title, comment, photos, cleanliness, appearance, wildlife, approved, does_tuned, created_at, updated_at
		FROM posts WHERE id=$1
	`, postID)

	var p Post
	if err := row.Scan(&p.ID, &p.LocationID, &p.UserID, &p.Title, &p.Comment, &p.Photos,
		&p.Cleanliness, &p.Appearance, &p.Wildlife, &p.Approved, &p.DoesTuned, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByLocation(ctx context.Context, locationID, sortOrder string) ([]Post, error) {
	return s.listPlain(ctx, `WHERE location_id=$1 AND approved=true`, sortOrder, locationID)
}

func (s *Service) ListApprovedByUser(ctx context.Context, userID, sortOrder string) ([]Post, error) {
	return s.listPlain(ctx, `WHERE user_id=$1 AND approved=true`, sortOrder, userID)
}

func (s *Service) ListAllByUser(ctx context.Context, userID, sortOrder string) ([]Post, error) {
	return s.listPlain(ctx, `WHERE user_id=$1`, sortOrder, userID)
}

func (s *Service) ListApproved(ctx context.Context, sortOrder string) ([]Post, error) {
	return s.listJoined(ctx, `WHERE p.approved=true`, sortOrder)
}

func (s *Service) ListUnapproved(ctx context.Context, sortOrder string) ([]Post, error) {
	return s.listJoined(ctx, `WHERE p.approved=false`, sortOrder)
}

func (s *Service) ListAll(ctx context.Context, sortOrder string) ([]Post, error) {
	return s.listJoined(ctx, ``, sortOrder)
}

// GroupedByLocation returns the current user's posts bucketed per location,
// skipping locations where the user has no posts.
func (s *Service) GroupedByLocation(ctx context.Context, userID, sortOrder string) ([]LocationGroup, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.id, l.name, COALESCE(l.thumbnail_url,''), l.rate,
		       p.id, p.location_id, p.user_id, p.title, p.comment, p.photos,
		       p.cleanliness, p.appearance, p.wildlife, p.approved, p.does_tuned, p.created_at, p.updated_at,
		       u.name, u.surname, COALESCE(u.profile_picture_url,'')
		FROM posts p
		JOIN locations l ON l.id = p.location_id
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id=$1
		ORDER BY l.name, p.created_at `+sortDirection(sortOrder),
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []LocationGroup
	for rows.Next() {
		var g LocationGroup
		var p Post
		if err := rows.Scan(&g.LocationID, &g.LocationName, &g.Thumbnail, &g.Rate,
			&p.ID, &p.LocationID, &p.UserID, &p.Title, &p.Comment, &p.Photos,
			&p.Cleanliness, &p.Appearance, &p.Wildlife, &p.Approved, &p.DoesTuned, &p.CreatedAt, &p.UpdatedAt,
			&p.UserName, &p.UserSurname, &p.ProfilePictureURL); err != nil {
			return nil, err
		}
		if len(groups) == 0 || groups[len(groups)-1].LocationID != g.LocationID {
			groups = append(groups, g)
		}
		last := &groups[len(groups)-1]
		last.Posts = append(last.Posts, p)
	}
	return groups, rows.Err()
}

func (s *Service) listPlain(ctx context.Context, where, sortOrder string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, location_id, user_id, title, comment, photos, cleanliness, appearance, wildlife, approved, does_tuned, created_at, updated_at
		FROM posts `+where+`
		ORDER BY created_at `+sortDirection(sortOrder),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.LocationID, &p.UserID, &p.Title, &p.Comment, &p.Photos,
			&p.Cleanliness, &p.Appearance, &p.Wildlife, &p.Approved, &p.DoesTuned, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Service) listJoined(ctx context.Context, where, sortOrder string) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.location_id, p.user_id, p.title, p.comment, p.photos,
		       p.cleanliness, p.appearance, p.wildlife, p.approved, p.does_tuned, p.created_at, p.updated_at,
		       u.name, u.surname, l.name
		FROM posts p
		JOIN users u ON u.id = p.user_id
		JOIN locations l ON l.id = p.location_id
		`+where+`
		ORDER BY p.created_at `+sortDirection(sortOrder))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.LocationID, &p.UserID, &p.Title, &p.Comment, &p.Photos,
			&p.Cleanliness, &p.Appearance, &p.Wildlife, &p.Approved, &p.DoesTuned, &p.CreatedAt, &p.UpdatedAt,
			&p.UserName, &p.UserSurname, &p.LocationName); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// recomputeAfterRemoval refreshes aggregates after a post leaves the
// approved set. Removing the last approved post leaves the stored
// aggregates untouched rather than failing the deletion.
func (s *Service) recomputeAfterRemoval(ctx context.Context, locationID string) error {
	if _, err := s.ratings.Recompute(ctx, locationID); err != nil && !errors.Is(err, rating.ErrNoPosts) {
		return err
	}
	return nil
}

func (s *Service) deletePhotos(ctx context.Context, urls []string) {
	for _, url := range urls {
		object := storage.ObjectName("posts", url)
		if object == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, object); err != nil {
			log.Printf("delete photo %s: %v", object, err)
		}
	}
}

func validateRate(factor string, value int) error {
	if value < 0 || value > 5 {
		return fmt.Errorf("%s rate must be between 0 and 5", factor)
	}
	return nil
}

func sortDirection(sortOrder string) string {
	if sortOrder == "asc" {
		return "ASC"
	}
	return "DESC"
}

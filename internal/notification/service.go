package notification

import (
	"context"
	"encoding/json"
	"errors"

	"backend-purewaters/internal/db"
	"backend-purewaters/internal/stream"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification not found")

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Create appends one notification and pushes it to the owner's stream.
func (s *Service) Create(ctx context.Context, input Notification) (Notification, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, post_id, location_id, message, does_event, read)
		VALUES ($1,$2,NULLIF($3,''),NULLIF($4,''),$5,$6,false)
		RETURNING created_at
	`, input.ID, input.UserID, input.PostID, input.LocationID, input.Message, input.DoesEvent)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Notification{}, err
	}

	s.push(input)
	return input, nil
}

// FanOut writes one notification per registered user and returns how many
// were created.
func (s *Service) FanOut(ctx context.Context, message string, doesEvent bool, locationID string) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users`)
	if err != nil {
		return 0, err
	}

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		userIDs = append(userIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, userID := range userIDs {
		n := Notification{
			ID:         uuid.NewString(),
			UserID:     userID,
			LocationID: locationID,
			Message:    message,
			DoesEvent:  doesEvent,
		}
		row := s.db.QueryRow(ctx, `
			INSERT INTO notifications (id, user_id, location_id, message, does_event, read)
			VALUES ($1,$2,NULLIF($3,''),$4,$5,false)
			RETURNING created_at
		`, n.ID, n.UserID, n.LocationID, n.Message, n.DoesEvent)
		if err := row.Scan(&n.CreatedAt); err != nil {
			return count, err
		}
		s.push(n)
		count++
	}
	return count, nil
}

func (s *Service) List(ctx context.Context, userID, sortOrder string) ([]Notification, error) {
	order := "DESC"
	if sortOrder == "asc" {
		order = "ASC"
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, COALESCE(post_id,''), COALESCE(location_id,''), message, does_event, read, created_at
		FROM notifications WHERE user_id=$1
		ORDER BY created_at `+order,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.PostID, &n.LocationID, &n.Message, &n.DoesEvent, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET read=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `UPDATE notifications SET read=true WHERE user_id=$1 AND read=false`, userID)
	return err
}

func (s *Service) HasUnread(ctx context.Context, userID string) (bool, error) {
	var unread bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM notifications WHERE user_id=$1 AND read=false)
	`, userID).Scan(&unread)
	return unread, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE user_id=$1`, userID)
	return err
}

func (s *Service) push(n Notification) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	s.hub.Broadcast(n.UserID, payload)
}

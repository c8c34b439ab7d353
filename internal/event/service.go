package event

import (
	"context"
	"errors"
	"fmt"

	"backend-purewaters/internal/db"
	"backend-purewaters/internal/notification"
)

var ErrNotFound = errors.New("event not found")

type Service struct {
	db     db.Querier
	notifs *notification.Service
}

func NewService(db db.Querier, notifs *notification.Service) *Service {
	return &Service{db: db, notifs: notifs}
}

// ExpireStale removes approved events whose finish time has passed and
// strips the event reference from their locations. Expiry is pull-based:
// it runs when locations or approved events are listed, never on a timer.
func (s *Service) ExpireStale(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		UPDATE locations
		SET event_id=NULL, event_start=NULL, event_finish=NULL, event_comment=NULL
		WHERE event_id IN (SELECT id FROM events WHERE does_approve=true AND event_finish < now())
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		DELETE FROM events WHERE does_approve=true AND event_finish < now()
	`)
	return err
}

func (s *Service) ListApproved(ctx context.Context) ([]Event, error) {
	if err := s.ExpireStale(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, true)
}

func (s *Service) ListUnapproved(ctx context.Context) ([]Event, error) {
	return s.list(ctx, false)
}

func (s *Service) list(ctx context.Context, approved bool) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT e.id, e.location_id, l.name, e.event_start, e.event_finish, e.does_approve, COALESCE(e.comment,''), e.created_at
		FROM events e
		JOIN locations l ON l.id = e.location_id
		WHERE e.does_approve=$1
		ORDER BY e.created_at DESC
	`, approved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.LocationID, &e.LocationName, &e.EventStart, &e.EventFinish, &e.DoesApprove, &e.Comment, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Approve publishes a pending event: the event fields are copied onto the
// location and every registered user is notified.
func (s *Service) Approve(ctx context.Context, eventID, comment string) (Event, error) {
	e, err := s.get(ctx, eventID)
	if err != nil {
		return Event{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE events SET does_approve=true, comment=$2, updated_at=now() WHERE id=$1
	`, eventID, comment)
	if err != nil {
		return Event{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE locations
		SET event_id=$2, event_start=$3, event_finish=$4, event_comment=$5, updated_at=now()
		WHERE id=$1
	`, e.LocationID, e.ID, e.EventStart, e.EventFinish, comment)
	if err != nil {
		return Event{}, err
	}

	message := fmt.Sprintf("The event at location %q has started and will last until %s.",
		e.LocationName, e.EventFinish.Format("2 Jan 2006 15:04"))
	if _, err := s.notifs.FanOut(ctx, message, true, e.LocationID); err != nil {
		return Event{}, err
	}

	e.DoesApprove = true
	e.Comment = comment
	return e, nil
}

// Reject discards a pending event and clears any event reference left on
// the location.
func (s *Service) Reject(ctx context.Context, eventID string) error {
	e, err := s.get(ctx, eventID)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM events WHERE id=$1`, eventID); err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE locations
		SET event_id=NULL, event_start=NULL, event_finish=NULL, event_comment=NULL
		WHERE id=$1
	`, e.LocationID)
	return err
}

func (s *Service) get(ctx context.Context, eventID string) (Event, error) {
	row := s.db.QueryRow(ctx, `
		SELECT e.id, e.location_id, l.name, e.event_start, e.event_finish, e.does_approve, COALESCE(e.comment,''), e.created_at
		FROM events e
		JOIN locations l ON l.id = e.location_id
		WHERE e.id=$1
	`, eventID)

	var e Event
	if err := row.Scan(&e.ID, &e.LocationID, &e.LocationName, &e.EventStart, &e.EventFinish, &e.DoesApprove, &e.Comment, &e.CreatedAt); err != nil {
		return Event{}, ErrNotFound
	}
	return e, nil
}

package rating

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend-purewaters/internal/db"
	"backend-purewaters/internal/notification"

	"github.com/google/uuid"
)

const (
	// A location whose overall mean drops below this opens a cleanup event.
	lowRateThreshold = 2.0
	eventDuration    = 7 * 24 * time.Hour
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrNoPosts          = errors.New("no approved posts for this location")
)

var nowFn = time.Now

// Aggregate holds a location's recomputed mean scores, all in [0,5].
type Aggregate struct {
	Cleanliness float64 `json:"cleanliness"`
	Appearance  float64 `json:"appearance"`
	Wildlife    float64 `json:"wildlife"`
	Overall     float64 `json:"rate"`
}

type factorRates struct {
	cleanliness int
	appearance  int
	wildlife    int
}

type Service struct {
	db     db.Querier
	notifs *notification.Service
}

func NewService(db db.Querier, notifs *notification.Service) *Service {
	return &Service{db: db, notifs: notifs}
}

// Recompute refreshes a location's mean scores from its approved posts and,
// when the overall mean falls below the threshold, opens a pending cleanup
// event and notifies every registered user. Called after every mutation of
// the approved-post set. The read-compute-write sequence is not wrapped in a
// transaction; concurrent moderation of one location is last-write-wins.
func (s *Service) Recompute(ctx context.Context, locationID string) (Aggregate, error) {
	var name string
	var eventID string
	err := s.db.QueryRow(ctx, `
		SELECT name, COALESCE(event_id,'') FROM locations WHERE id=$1
	`, locationID).Scan(&name, &eventID)
	if err != nil {
		return Aggregate{}, ErrLocationNotFound
	}

	rates, err := s.loadApprovedRates(ctx, locationID)
	if err != nil {
		return Aggregate{}, err
	}
	if len(rates) == 0 {
		return Aggregate{}, ErrNoPosts
	}

	agg := computeAggregate(rates)

	_, err = s.db.Exec(ctx, `
		UPDATE locations
		SET rate=$2, cleanliness=$3, appearance=$4, wildlife=$5, updated_at=now()
		WHERE id=$1
	`, locationID, agg.Overall, agg.Cleanliness, agg.Appearance, agg.Wildlife)
	if err != nil {
		return Aggregate{}, err
	}

	if agg.Overall < lowRateThreshold {
		if err := s.maybeOpenEvent(ctx, locationID, name, eventID); err != nil {
			return Aggregate{}, err
		}
	}
	return agg, nil
}

func (s *Service) loadApprovedRates(ctx context.Context, locationID string) ([]factorRates, error) {
	rows, err := s.db.Query(ctx, `
		SELECT cleanliness, appearance, wildlife
		FROM posts WHERE location_id=$1 AND approved=true
	`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []factorRates
	for rows.Next() {
		var r factorRates
		if err := rows.Scan(&r.cleanliness, &r.appearance, &r.wildlife); err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// maybeOpenEvent opens one pending event per degraded location. The guard
// covers both an approved event already copied onto the location and a
// pending event awaiting moderation.
func (s *Service) maybeOpenEvent(ctx context.Context, locationID, name, eventID string) error {
	if eventID != "" {
		log.Printf("event already active for location %q, skipping", name)
		return nil
	}

	var pending bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM events WHERE location_id=$1)
	`, locationID).Scan(&pending)
	if err != nil {
		return err
	}
	if pending {
		log.Printf("event already pending for location %q, skipping", name)
		return nil
	}

	start := nowFn()
	finish := start.Add(eventDuration)
	_, err = s.db.Exec(ctx, `
		INSERT INTO events (id, location_id, event_start, event_finish, does_approve, comment)
		VALUES ($1,$2,$3,$4,false,NULL)
	`, uuid.NewString(), locationID, start, finish)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("In location %q the average cleanliness rate is below 2", name)
	if _, err := s.notifs.FanOut(ctx, message, false, locationID); err != nil {
		return err
	}
	return nil
}

// computeAggregate is the unweighted mean of means: each factor is averaged
// across posts, the overall rate across the three factor means. Plain
// float64 division, no rounding.
func computeAggregate(rates []factorRates) Aggregate {
	var totalCleanliness, totalAppearance, totalWildlife int
	for _, r := range rates {
		totalCleanliness += r.cleanliness
		totalAppearance += r.appearance
		totalWildlife += r.wildlife
	}

	n := float64(len(rates))
	agg := Aggregate{
		Cleanliness: float64(totalCleanliness) / n,
		Appearance:  float64(totalAppearance) / n,
		Wildlife:    float64(totalWildlife) / n,
	}
	agg.Overall = (agg.Cleanliness + agg.Appearance + agg.Wildlife) / 3
	return agg
}

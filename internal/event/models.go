package event

import "time"

type Event struct {
	ID           string    `json:"event_id"`
	LocationID   string    `json:"location_id"`
	LocationName string    `json:"location_name"`
	EventStart   time.Time `json:"event_start"`
	EventFinish  time.Time `json:"event_finish"`
	DoesApprove  bool      `json:"does_approve"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

package notification

import "time"

type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PostID     string    `json:"post_id,omitempty"`
	LocationID string    `json:"location_id,omitempty"`
	Message    string    `json:"message"`
	DoesEvent  bool      `json:"does_event"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

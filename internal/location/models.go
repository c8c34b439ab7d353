package location

import "time"

type Location struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Coordinate   string  `json:"coordinate"`
	ThumbnailURL string  `json:"thumbnail"`
	Rate         float64 `json:"rate"`
	Cleanliness  float64 `json:"cleanliness"`
	Appearance   float64 `json:"appearance"`
	Wildlife     float64 `json:"wildlife"`

	EventID      string     `json:"event_id,omitempty"`
	EventStart   *time.Time `json:"event_start,omitempty"`
	EventFinish  *time.Time `json:"event_finish,omitempty"`
	EventComment string     `json:"event_comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Thumbnail struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreateRequest struct {
	Name       string
	Coordinate string
	Thumbnail  Thumbnail
}

// PostInfo is the post shape embedded in a location detail response.
type PostInfo struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Title             string    `json:"title"`
	Comment           string    `json:"comment"`
	Photos            []string  `json:"photos"`
	Cleanliness       int       `json:"cleanliness"`
	Appearance        int       `json:"appearance"`
	Wildlife          int       `json:"wildlife"`
	UserName          string    `json:"user_name"`
	UserSurname       string    `json:"user_surname"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type Details struct {
	Location Location   `json:"location"`
	Posts    []PostInfo `json:"posts"`
}

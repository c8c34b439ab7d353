package post

import "time"

type Post struct {
	ID          string    `json:"id"`
	LocationID  string    `json:"location_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Comment     string    `json:"comment"`
	Photos      []string  `json:"photos"`
	Cleanliness int       `json:"cleanliness"`
	Appearance  int       `json:"appearance"`
	Wildlife    int       `json:"wildlife"`
	Approved    bool      `json:"approved"`
	DoesTuned   bool      `json:"does_tuned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated on admin and grouped listings.
	UserName          string `json:"user_name,omitempty"`
	UserSurname       string `json:"user_surname,omitempty"`
	LocationName      string `json:"location_name,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreateRequest struct {
	Title       string
	Comment     string
	LocationID  string
	Cleanliness int
	Appearance  int
	Wildlife    int
	Photos      []PhotoUpload
}

// UpdateRequest carries a partial patch; nil rating pointers leave the
// stored value untouched. Any update resets moderation approval.
type UpdateRequest struct {
	Title       string `json:"title"`
	Comment     string `json:"comment"`
	Cleanliness *int   `json:"cleanliness"`
	Appearance  *int   `json:"appearance"`
	Wildlife    *int   `json:"wildlife"`
}

type LocationGroup struct {
	LocationID   string  `json:"location_id"`
	LocationName string  `json:"location_name"`
	Thumbnail    string  `json:"thumbnail"`
	Rate         float64 `json:"rate"`
	Posts        []Post  `json:"posts"`
}

package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"backend-purewaters/internal/auth"
	"backend-purewaters/internal/db"
	"backend-purewaters/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("a user with this email already exists")
	ErrWrongPassword = errors.New("current password is incorrect")
)

var nowFn = time.Now

type Service struct {
	db    db.Querier
	blobs storage.BlobStore
}

func NewService(db db.Querier, blobs storage.BlobStore) *Service {
	return &Service{db: db, blobs: blobs}
}

func (s *Service) Info(ctx context.Context, userID string) (auth.User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, surname, email, password_hash, country, role, COALESCE(profile_picture_url,''), created_at, updated_at
		FROM users WHERE id=$1
	`, userID)

	var u auth.User
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.PasswordHash,
		&u.Country, &u.Role, &u.ProfilePictureURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return auth.User{}, ErrNotFound
	}
	return u, nil
}

// Update applies a partial profile patch. Changing the email re-checks
// uniqueness against everyone else.
func (s *Service) Update(ctx context.Context, userID string, patch UpdateRequest) (auth.User, error) {
	u, err := s.Info(ctx, userID)
	if err != nil {
		return auth.User{}, err
	}

	if patch.Name != "" {
		u.Name = patch.Name
	}
	if patch.Surname != "" {
		u.Surname = patch.Surname
	}
	if patch.Email != "" && patch.Email != u.Email {
		if !strings.Contains(patch.Email, "@") {
			return auth.User{}, errors.New("email is invalid")
		}
		var taken bool
		if err := s.db.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM users WHERE email=$1 AND id<>$2)
		`, patch.Email, userID).Scan(&taken); err != nil {
			return auth.User{}, err
		}
		if taken {
			return auth.User{}, ErrEmailTaken
		}
		u.Email = patch.Email
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users SET name=$2, surname=$3, email=$4, updated_at=now() WHERE id=$1
	`, userID, u.Name, u.Surname, u.Email)
	if err != nil {
		return auth.User{}, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	var hash string
	if err := s.db.QueryRow(ctx, `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&hash); err != nil {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1
	`, userID, string(newHash))
	return err
}

// SetProfilePicture uploads the new picture, points the user at it and then
// drops the previous blob.
func (s *Service) SetProfilePicture(ctx context.Context, userID string, pic Picture) (string, error) {
	if len(pic.Data) == 0 {
		return "", errors.New("picture is required")
	}

	var current string
	if err := s.db.QueryRow(ctx, `
		SELECT COALESCE(profile_picture_url,'') FROM users WHERE id=$1
	`, userID).Scan(&current); err != nil {
		return "", ErrNotFound
	}

	object := fmt.Sprintf("profile-pictures/%d_%s", nowFn().UnixNano(), pic.Filename)
	url, err := s.blobs.Upload(ctx, object, pic.ContentType, pic.Data)
	if err != nil {
		return "", err
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE users SET profile_picture_url=$2, updated_at=now() WHERE id=$1
	`, userID, url); err != nil {
		return "", err
	}

	if old := storage.ObjectName("profile-pictures", current); current != "" && old != "" {
		if err := s.blobs.Delete(ctx, old); err != nil {
			log.Printf("delete profile picture %s: %v", old, err)
		}
	}
	return url, nil
}

// Delete removes the account and everything owned by it: post photos, post
// rows, notifications, refresh tokens, the profile picture and finally the
// user row.
func (s *Service) Delete(ctx context.Context, userID string) error {
	u, err := s.Info(ctx, userID)
	if err != nil {
		return err
	}

	rows, err := s.db.Query(ctx, `SELECT photos FROM posts WHERE user_id=$1`, userID)
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

	for _, stmt := range []string{
		`DELETE FROM posts WHERE user_id=$1`,
		`DELETE FROM notifications WHERE user_id=$1`,
		`DELETE FROM refresh_tokens WHERE user_id=$1`,
	} {
		if _, err := s.db.Exec(ctx, stmt, userID); err != nil {
			return err
		}
	}

	if object := storage.ObjectName("profile-pictures", u.ProfilePictureURL); u.ProfilePictureURL != "" && object != "" {
		if err := s.blobs.Delete(ctx, object); err != nil {
			log.Printf("delete profile picture %s: %v", object, err)
		}
	}

	_, err = s.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, userID)
	return err
}

// DeleteByEmail is the admin removal path, same cascade as Delete.
func (s *Service) DeleteByEmail(ctx context.Context, email string) error {
	var id string
	if err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE email=$1`, email).Scan(&id); err != nil {
		return ErrNotFound
	}
	return s.Delete(ctx, id)
}

// ListCommon returns every non-admin account.
func (s *Service) ListCommon(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, surname, email, country, role, COALESCE(profile_picture_url,''), created_at, updated_at
		FROM users WHERE role=$1
		ORDER BY created_at DESC
	`, auth.RoleCommon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Country, &u.Role,
			&u.ProfilePictureURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

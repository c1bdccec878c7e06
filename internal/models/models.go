package models

import "time"

// User represents a registered journal author
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	PushToken       *string   `json:"push_token,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Entry represents one day's posted photo: a blob URL, a caption and the
// server-assigned creation instant. At most one entry exists per user per
// local calendar day.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BlobURL   string    `json:"blob_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

const (
	// DefaultImageURL is the profile picture used when a user does not supply one.
	DefaultImageURL = "/static/images/default-pic.svg"
	// DefaultHeaderImageURL is the profile header used when a user does not supply one.
	DefaultHeaderImageURL = "/static/images/warbler-hero.svg"
)

// User represents a Warbler account.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null;check:chk_users_username_not_empty,username <> ''" json:"username"`
	Email          string    `gorm:"uniqueIndex;not null;check:chk_users_email_not_empty,email <> ''" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	ImageURL       string    `gorm:"default:/static/images/default-pic.svg" json:"image_url"`
	HeaderImageURL string    `gorm:"default:/static/images/warbler-hero.svg" json:"header_image_url"`
	Bio            string    `gorm:"type:text;default:''" json:"bio"`
	Location       string    `gorm:"default:''" json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// ApplyDefaults fills empty image fields with the application defaults.
func (u *User) ApplyDefaults() {
	if u.ImageURL == "" {
		u.ImageURL = DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = DefaultHeaderImageURL
	}
}

// UserProfile is the set of fields a user may change on their own profile.
type UserProfile struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

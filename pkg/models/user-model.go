package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered traveller with email/password credentials
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null" json:"name"`

	// Profile
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	Nationality  string     `json:"nationality,omitempty"`
	Bio          string     `gorm:"type:text" json:"bio,omitempty"`
	Languages    StringList `json:"languages"`
	ProfileImage string     `json:"profileImage,omitempty"`

	// Relationships
	CreatedTrips []Trip `gorm:"foreignKey:CreatorID" json:"createdTrips,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Languages == nil {
		u.Languages = NewStringList(nil)
	}
	return nil
}

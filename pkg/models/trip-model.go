package models

import (
	"time"

	"gorm.io/gorm"
)

// Trip is a listing that other users can ask to join
type Trip struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title           string     `gorm:"not null" json:"title"`
	Destination     string     `gorm:"not null;index" json:"destination"`
	StartDate       time.Time  `gorm:"not null;index" json:"startDate"`
	EndDate         time.Time  `gorm:"not null" json:"endDate"`
	Description     string     `gorm:"type:text" json:"description"`
	Activities      StringList `json:"activities"`
	MaxParticipants int        `gorm:"not null" json:"maxParticipants"`
	Status          TripStatus `gorm:"size:16;not null;default:'OPEN';index" json:"status"`
	ImageURL        string     `gorm:"size:2048" json:"imageUrl,omitempty"`

	CreatorID string `gorm:"size:36;not null;index" json:"creatorId"`
	Creator   *User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	// Relationships
	Participants []Participation `gorm:"foreignKey:TripID" json:"participants,omitempty"`
	JoinRequests []JoinRequest   `gorm:"foreignKey:TripID" json:"joinRequests,omitempty"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Activities == nil {
		t.Activities = NewStringList(nil)
	}
	if t.Status == "" {
		t.Status = TripStatusOpen
	}
	return nil
}

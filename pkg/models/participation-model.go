package models

import "time"

// Participation is a confirmed roster entry. The composite key keeps a user
// from joining the same trip twice.
type Participation struct {
	UserID   string    `gorm:"primaryKey;size:36" json:"userId"`
	TripID   string    `gorm:"primaryKey;size:36;index" json:"tripId"`
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Trip *Trip `gorm:"foreignKey:TripID" json:"trip,omitempty"`
}

func (Participation) TableName() string {
	return "participations"
}

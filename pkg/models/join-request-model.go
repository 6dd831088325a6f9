package models

import (
	"time"

	"gorm.io/gorm"
)

// JoinRequest is a sender's application to join a trip. Only the trip
// creator moves it out of PENDING.
type JoinRequest struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TripID     string            `gorm:"size:36;not null;index" json:"tripId"`
	SenderID   string            `gorm:"size:36;not null;index" json:"senderId"`
	ReceiverID string            `gorm:"size:36;not null;index" json:"receiverId"`
	Message    string            `gorm:"type:text;not null" json:"message"`
	Status     JoinRequestStatus `gorm:"size:16;not null;default:'PENDING';index" json:"status"`

	Trip     *Trip `gorm:"foreignKey:TripID" json:"trip,omitempty"`
	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (r *JoinRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.Status == "" {
		r.Status = JoinRequestPending
	}
	return nil
}

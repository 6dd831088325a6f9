package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is an append-only direct message. IsRead is the only field that
// changes after insert.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	SenderID   string `gorm:"size:36;not null;index" json:"senderId"`
	ReceiverID string `gorm:"size:36;not null;index" json:"receiverId"`
	Content    string `gorm:"type:text;not null" json:"content"`
	IsRead     bool   `gorm:"not null;default:false" json:"isRead"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return nil
}

package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TripStatus enum
type TripStatus string

const (
	TripStatusOpen      TripStatus = "OPEN"
	TripStatusFull      TripStatus = "FULL"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// Valid reports whether s is one of the known trip statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusOpen, TripStatusFull, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// JoinRequestStatus enum
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestAccepted JoinRequestStatus = "ACCEPTED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// StringList is stored as a JSON array column.
type StringList = datatypes.JSONSlice[string]

// NewStringList copies values into a StringList, never returning nil so the
// column is written as [] rather than null.
func NewStringList(values []string) StringList {
	out := make([]string, 0, len(values))
	out = append(out, values...)
	return datatypes.NewJSONSlice(out)
}

func newID() string {
	return uuid.NewString()
}

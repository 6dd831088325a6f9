package service

import (
	"context"
	"fmt"
	"time"

	"github.com/1mt4y/travelbuddy/pkg/db"
)

// Roster answers membership questions about trips. The roster size, not
// Trip.Status, decides whether a trip is full.
type Roster struct {
	*core
}

func (s *Roster) IsParticipant(ctx context.Context, userID, tripID string) (bool, error) {
	ok, err := s.repo.IsParticipant(ctx, userID, tripID)
	if err != nil {
		return false, fmt.Errorf("failed to check roster: %w", err)
	}
	return ok, nil
}

// Add inserts a roster entry; adding an existing member is a no-op.
func (s *Roster) Add(ctx context.Context, userID, tripID string) error {
	return addParticipant(ctx, s.repo, userID, tripID, s.clock())
}

func (s *Roster) Size(ctx context.Context, tripID string) (int, error) {
	count, err := s.repo.CountParticipants(ctx, tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return int(count), nil
}

// IsFull compares the roster size with the trip's capacity.
func (s *Roster) IsFull(ctx context.Context, tripID string) (bool, error) {
	trip, err := s.repo.GetTripByID(ctx, tripID)
	if err != nil {
		if db.IsNotFound(err) {
			return false, NotFoundError("Trip not found")
		}
		return false, fmt.Errorf("failed to load trip: %w", err)
	}
	size, err := s.Size(ctx, tripID)
	if err != nil {
		return false, err
	}
	return isFull(size, trip.MaxParticipants), nil
}

func addParticipant(ctx context.Context, repo *db.Repository, userID, tripID string, at time.Time) error {
	if err := repo.AddParticipant(ctx, userID, tripID, at); err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

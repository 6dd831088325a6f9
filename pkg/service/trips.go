package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/metrics"
	"github.com/1mt4y/travelbuddy/pkg/models"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// TripRegistry owns trip listings.
type TripRegistry struct {
	*core
}

type CreateTripInput struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Destination     string   `json:"destination" validate:"required,max=200"`
	StartDate       string   `json:"startDate" validate:"required"`
	EndDate         string   `json:"endDate" validate:"required"`
	Description     string   `json:"description" validate:"required,max=5000"`
	Activities      []string `json:"activities" validate:"max=50"`
	MaxParticipants int      `json:"maxParticipants" validate:"min=1,max=100"`
	ImageURL        string   `json:"imageUrl" validate:"max=2048"`
}

// UpdateTripInput is a partial update; nil fields are left alone.
type UpdateTripInput struct {
	Title           *string            `json:"title" validate:"omitempty,max=200"`
	Destination     *string            `json:"destination" validate:"omitempty,max=200"`
	StartDate       *string            `json:"startDate"`
	EndDate         *string            `json:"endDate"`
	Description     *string            `json:"description" validate:"omitempty,max=5000"`
	Activities      []string           `json:"activities" validate:"omitempty,max=50"`
	MaxParticipants *int               `json:"maxParticipants" validate:"omitempty,min=1,max=100"`
	Status          *models.TripStatus `json:"status"`
	ImageURL        *string            `json:"imageUrl" validate:"omitempty,max=2048"`
}

type ListTripsInput struct {
	Destination string
	StartDate   string
	EndDate     string
}

// Create persists an OPEN trip and its creator's roster entry together.
func (s *TripRegistry) Create(ctx context.Context, creatorID string, in CreateTripInput) (*TripDetail, error) {
	in.Title = s.validator.SanitizeInput(in.Title)
	in.Destination = s.validator.SanitizeInput(in.Destination)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := s.validator.Struct(in); err != nil {
		return nil, ValidationError(err.Error())
	}
	if in.ImageURL != "" && !s.validator.ValidateURL(in.ImageURL) {
		return nil, ValidationError("imageUrl must be an http(s) URL")
	}

	start, end, err := parseTripDates(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if start.Before(now.Truncate(24 * time.Hour)) {
		return nil, ValidationError("Start date cannot be in the past")
	}

	trip := &models.Trip{
		Title:           in.Title,
		Destination:     in.Destination,
		StartDate:       start,
		EndDate:         end,
		Description:     in.Description,
		Activities:      models.NewStringList(s.validator.SanitizeList(in.Activities)),
		MaxParticipants: in.MaxParticipants,
		Status:          models.TripStatusOpen,
		ImageURL:        in.ImageURL,
		CreatorID:       creatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		if err := tx.CreateTrip(ctx, trip); err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		return addParticipant(ctx, tx, creatorID, trip.ID, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.TripsCreated.Inc()
	s.logger.LogTrip(trip.ID, creatorID, "create")

	return s.Get(ctx, trip.ID, creatorID)
}

// List returns OPEN trips matching the optional filters.
func (s *TripRegistry) List(ctx context.Context, in ListTripsInput) ([]TripSummary, error) {
	filter := db.TripFilter{Destination: in.Destination}

	if in.StartDate != "" {
		t, err := utils.ParseDate(in.StartDate)
		if err != nil {
			return nil, ValidationError("startDate must be a date (YYYY-MM-DD)")
		}
		filter.StartDate = &t
	}
	if in.EndDate != "" {
		t, err := utils.ParseDate(in.EndDate)
		if err != nil {
			return nil, ValidationError("endDate must be a date (YYYY-MM-DD)")
		}
		filter.EndDate = &t
	}

	trips, err := s.repo.ListOpenTrips(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return summarizeTrips(trips), nil
}

// Get returns a trip with flags relative to viewerID. An empty viewerID is
// an anonymous view. Pending requests are only included for the creator.
func (s *TripRegistry) Get(ctx context.Context, tripID, viewerID string) (*TripDetail, error) {
	trip, err := s.repo.GetTripDetail(ctx, tripID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFoundError("Trip not found")
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	detail := &TripDetail{TripSummary: summarizeTrip(trip)}
	if viewerID == "" {
		return detail, nil
	}

	detail.IsCreator = trip.CreatorID == viewerID
	for _, p := range trip.Participants {
		if p.UserID == viewerID {
			detail.IsParticipant = true
			break
		}
	}

	if detail.IsCreator {
		pending, err := s.repo.ListJoinRequestsForTrip(ctx, tripID, true)
		if err != nil {
			return nil, fmt.Errorf("failed to load join requests: %w", err)
		}
		detail.PendingRequests = viewJoinRequests(pending)
		return detail, nil
	}

	latest, err := s.repo.GetLatestJoinRequest(ctx, tripID, viewerID)
	switch {
	case err == nil:
		detail.HasRequested = true
		status := latest.Status
		detail.RequestStatus = &status
	case !db.IsNotFound(err):
		return nil, fmt.Errorf("failed to load join request: %w", err)
	}

	return detail, nil
}

// Update applies a partial update. Only the creator may call it and the
// capacity may not drop below the current roster.
func (s *TripRegistry) Update(ctx context.Context, tripID, callerID string, in UpdateTripInput) (*TripDetail, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, ValidationError(err.Error())
	}

	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		trip, err := tx.GetTripByID(ctx, tripID)
		if err != nil {
			if db.IsNotFound(err) {
				return NotFoundError("Trip not found")
			}
			return fmt.Errorf("failed to load trip: %w", err)
		}

		if trip.CreatorID != callerID {
			return AuthorizationError("You are not authorized to update this trip")
		}

		if in.MaxParticipants != nil {
			count, err := tx.CountParticipants(ctx, tripID)
			if err != nil {
				return fmt.Errorf("failed to count participants: %w", err)
			}
			if int64(*in.MaxParticipants) < count {
				return ValidationError("Maximum participants cannot be less than current participants count")
			}
			trip.MaxParticipants = *in.MaxParticipants
		}

		if err := s.applyTripChanges(trip, in); err != nil {
			return err
		}
		trip.UpdatedAt = s.clock()

		if err := tx.UpdateTrip(ctx, trip); err != nil {
			return fmt.Errorf("failed to update trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogTrip(tripID, callerID, "update")
	return s.Get(ctx, tripID, callerID)
}

func (s *TripRegistry) applyTripChanges(trip *models.Trip, in UpdateTripInput) error {
	if in.Title != nil {
		title := s.validator.SanitizeInput(*in.Title)
		if title == "" {
			return ValidationError("title is required")
		}
		trip.Title = title
	}
	if in.Destination != nil {
		dest := s.validator.SanitizeInput(*in.Destination)
		if dest == "" {
			return ValidationError("destination is required")
		}
		trip.Destination = dest
	}
	if in.Description != nil {
		trip.Description = strings.TrimSpace(*in.Description)
	}
	if in.Activities != nil {
		trip.Activities = models.NewStringList(s.validator.SanitizeList(in.Activities))
	}
	if in.ImageURL != nil {
		image := strings.TrimSpace(*in.ImageURL)
		if image != "" && !s.validator.ValidateURL(image) {
			return ValidationError("imageUrl must be an http(s) URL")
		}
		trip.ImageURL = image
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return ValidationErrorf("status must be one of: %s, %s, %s, %s",
				models.TripStatusOpen, models.TripStatusFull, models.TripStatusCompleted, models.TripStatusCancelled)
		}
		trip.Status = *in.Status
	}

	start, end := trip.StartDate, trip.EndDate
	if in.StartDate != nil {
		t, err := utils.ParseDate(*in.StartDate)
		if err != nil {
			return ValidationError("startDate must be a date (YYYY-MM-DD)")
		}
		start = t
	}
	if in.EndDate != nil {
		t, err := utils.ParseDate(*in.EndDate)
		if err != nil {
			return ValidationError("endDate must be a date (YYYY-MM-DD)")
		}
		end = t
	}
	if !end.After(start) {
		return ValidationError("End date must be after start date")
	}
	trip.StartDate, trip.EndDate = start, end

	return nil
}

// Delete removes the trip with all its join requests and roster rows in a
// single transaction.
func (s *TripRegistry) Delete(ctx context.Context, tripID, callerID string) error {
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		trip, err := tx.GetTripByID(ctx, tripID)
		if err != nil {
			if db.IsNotFound(err) {
				return NotFoundError("Trip not found")
			}
			return fmt.Errorf("failed to load trip: %w", err)
		}

		if trip.CreatorID != callerID {
			return AuthorizationError("You are not authorized to delete this trip")
		}

		if err := tx.DeleteJoinRequestsByTrip(ctx, tripID); err != nil {
			return fmt.Errorf("failed to delete join requests: %w", err)
		}
		if err := tx.DeleteParticipationsByTrip(ctx, tripID); err != nil {
			return fmt.Errorf("failed to delete participations: %w", err)
		}
		if err := tx.DeleteTrip(ctx, tripID); err != nil {
			return fmt.Errorf("failed to delete trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.TripsDeleted.Inc()
	s.logger.LogTrip(tripID, callerID, "delete")
	return nil
}

// ForUser returns the trips a user created, the ones they joined and their
// own outstanding requests.
func (s *TripRegistry) ForUser(ctx context.Context, userID string) (*UserTrips, error) {
	created, err := s.repo.GetTripsByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created trips: %w", err)
	}

	parts, err := s.repo.GetJoinedParticipations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load joined trips: %w", err)
	}

	pending, err := s.repo.ListSentPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending requests: %w", err)
	}

	joined := make([]JoinedTrip, 0, len(parts))
	for _, p := range parts {
		if p.Trip == nil {
			continue
		}
		joined = append(joined, JoinedTrip{TripSummary: summarizeTrip(p.Trip), JoinedAt: p.JoinedAt})
	}

	return &UserTrips{
		Created:         summarizeTrips(created),
		Joined:          joined,
		PendingRequests: viewJoinRequests(pending),
	}, nil
}

func parseTripDates(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(startValue)
	if err != nil {
		return time.Time{}, time.Time{}, ValidationError("startDate must be a date (YYYY-MM-DD)")
	}
	end, err := utils.ParseDate(endValue)
	if err != nil {
		return time.Time{}, time.Time{}, ValidationError("endDate must be a date (YYYY-MM-DD)")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ValidationError("End date must be after start date")
	}
	return start, end, nil
}

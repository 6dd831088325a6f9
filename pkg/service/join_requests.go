package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/metrics"
	"github.com/1mt4y/travelbuddy/pkg/models"
)

const previousRequestsLimit = 10

// JoinRequests runs the PENDING -> ACCEPTED | REJECTED workflow.
type JoinRequests struct {
	*core
}

type RequestInboxInput struct {
	TripID string
}

func courtesyMessage(destination string) string {
	return fmt.Sprintf("Hi! I've sent a request to join your trip to %s. Looking forward to your response!", destination)
}

// Request files a PENDING request from senderID and drops a courtesy
// message into the creator's inbox, both in one transaction.
func (s *JoinRequests) Request(ctx context.Context, tripID, senderID, message string) (*JoinRequestView, error) {
	message = strings.TrimSpace(message)

	var req *models.JoinRequest
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		trip, err := tx.GetTripByID(ctx, tripID)
		if err != nil {
			if db.IsNotFound(err) {
				return NotFoundError("Trip not found")
			}
			return fmt.Errorf("failed to load trip: %w", err)
		}

		if trip.CreatorID == senderID {
			return ConflictError("You cannot request to join your own trip")
		}

		if trip.Status != models.TripStatusOpen {
			return ConflictError("This trip is not open for join requests")
		}

		member, err := tx.IsParticipant(ctx, senderID, tripID)
		if err != nil {
			return fmt.Errorf("failed to check roster: %w", err)
		}
		if member {
			return ConflictError("You are already a participant in this trip")
		}

		pending, err := tx.HasPendingJoinRequest(ctx, tripID, senderID)
		if err != nil {
			return fmt.Errorf("failed to check join requests: %w", err)
		}
		if pending {
			return ConflictError("You already have a pending request for this trip")
		}

		if message == "" {
			return ValidationError("A message is required when requesting to join a trip")
		}

		now := s.clock()
		req = &models.JoinRequest{
			TripID:     tripID,
			SenderID:   senderID,
			ReceiverID: trip.CreatorID,
			Message:    message,
			Status:     models.JoinRequestPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateJoinRequest(ctx, req); err != nil {
			if db.IsDuplicate(err) {
				return ConflictError("You already have a pending request for this trip")
			}
			return fmt.Errorf("failed to create join request: %w", err)
		}

		courtesy := &models.Message{
			SenderID:   senderID,
			ReceiverID: trip.CreatorID,
			Content:    courtesyMessage(trip.Destination),
			CreatedAt:  now,
		}
		if err := tx.CreateMessage(ctx, courtesy); err != nil {
			return fmt.Errorf("failed to send courtesy message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.JoinRequestsTotal.WithLabelValues(string(models.JoinRequestPending)).Inc()
	metrics.MessagesSent.Inc()
	s.logger.LogJoinRequest(req.ID, tripID, senderID, "request")

	view := viewJoinRequest(req)
	return &view, nil
}

// Status reports the caller's relationship to a trip.
func (s *JoinRequests) Status(ctx context.Context, tripID, userID string) (*JoinStatus, error) {
	trip, err := s.repo.GetTripByID(ctx, tripID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFoundError("Trip not found")
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	if trip.CreatorID == userID {
		return &JoinStatus{Status: JoinStateCreator}, nil
	}

	member, err := s.repo.IsParticipant(ctx, userID, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to check roster: %w", err)
	}
	if member {
		return &JoinStatus{Status: JoinStateJoined}, nil
	}

	latest, err := s.repo.GetLatestJoinRequest(ctx, tripID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return &JoinStatus{Status: JoinStateNotRequested}, nil
		}
		return nil, fmt.Errorf("failed to load join request: %w", err)
	}

	status := latest.Status
	return &JoinStatus{Status: JoinStateRequested, RequestID: latest.ID, RequestStatus: &status}, nil
}

// ListForTrip returns every request on a trip, newest first. Creator only.
func (s *JoinRequests) ListForTrip(ctx context.Context, tripID, callerID string) ([]JoinRequestView, error) {
	if err := s.requireCreator(ctx, tripID, callerID, "You are not authorized to view join requests for this trip"); err != nil {
		return nil, err
	}

	reqs, err := s.repo.ListJoinRequestsForTrip(ctx, tripID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return viewJoinRequests(reqs), nil
}

// PendingCountForTrip counts PENDING requests on a trip. Creator only.
func (s *JoinRequests) PendingCountForTrip(ctx context.Context, tripID, callerID string) (int64, error) {
	if err := s.requireCreator(ctx, tripID, callerID, "You are not authorized to view join requests for this trip"); err != nil {
		return 0, err
	}

	count, err := s.repo.CountPendingForTrip(ctx, tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to count join requests: %w", err)
	}
	return count, nil
}

// Resolve accepts or rejects a PENDING request. Accepting adds the sender
// to the roster unless it is already at capacity.
func (s *JoinRequests) Resolve(ctx context.Context, requestID, callerID string, newStatus models.JoinRequestStatus) (*JoinRequestView, error) {
	if newStatus != models.JoinRequestAccepted && newStatus != models.JoinRequestRejected {
		return nil, ValidationErrorf("status must be %s or %s", models.JoinRequestAccepted, models.JoinRequestRejected)
	}

	var req *models.JoinRequest
	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		var err error
		req, err = tx.GetJoinRequestByID(ctx, requestID)
		if err != nil {
			if db.IsNotFound(err) {
				return NotFoundError("Join request not found")
			}
			return fmt.Errorf("failed to load join request: %w", err)
		}

		if req.Trip == nil || req.Trip.CreatorID != callerID {
			return AuthorizationError("You are not authorized to manage this join request")
		}

		if req.Status != models.JoinRequestPending {
			return ValidationErrorf("This request has already been %s", strings.ToLower(string(req.Status)))
		}

		if newStatus == models.JoinRequestAccepted {
			count, err := tx.CountParticipants(ctx, req.TripID)
			if err != nil {
				return fmt.Errorf("failed to count participants: %w", err)
			}
			if isFull(int(count), req.Trip.MaxParticipants) {
				return ConflictError("This trip has reached its maximum number of participants")
			}
		}

		now := s.clock()
		changed, err := tx.ResolveJoinRequest(ctx, req.ID, newStatus, now)
		if err != nil {
			return fmt.Errorf("failed to update join request: %w", err)
		}
		if changed == 0 {
			return ValidationError("This request has already been resolved")
		}

		if newStatus == models.JoinRequestAccepted {
			if err := addParticipant(ctx, tx, req.SenderID, req.TripID, now); err != nil {
				return err
			}
		}

		req.Status = newStatus
		req.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.JoinRequestsTotal.WithLabelValues(string(newStatus)).Inc()
	s.logger.LogJoinRequest(req.ID, req.TripID, callerID, strings.ToLower(string(newStatus)))

	view := viewJoinRequest(req)
	return &view, nil
}

// Inbox aggregates requests received by a creator across their trips.
func (s *JoinRequests) Inbox(ctx context.Context, userID string, in RequestInboxInput) (*RequestInbox, error) {
	pending, err := s.repo.ListReceivedJoinRequests(ctx, userID, in.TripID, true, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending requests: %w", err)
	}

	previous, err := s.repo.ListReceivedJoinRequests(ctx, userID, in.TripID, false, previousRequestsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous requests: %w", err)
	}

	trips, err := s.repo.GetTripsByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created trips: %w", err)
	}

	ids := make([]string, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.ID)
	}
	counts, err := s.repo.CountPendingByTrip(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending requests: %w", err)
	}

	created := make([]CreatedTrip, 0, len(trips))
	for i := range trips {
		created = append(created, CreatedTrip{
			TripSummary:          summarizeTrip(&trips[i]),
			PendingRequestsCount: counts[trips[i].ID],
		})
	}

	return &RequestInbox{
		PendingRequests:  viewJoinRequests(pending),
		PreviousRequests: viewJoinRequests(previous),
		CreatedTrips:     created,
	}, nil
}

// PendingReceivedCount backs the navigation badge.
func (s *JoinRequests) PendingReceivedCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.CountPendingReceived(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return count, nil
}

func (s *JoinRequests) requireCreator(ctx context.Context, tripID, callerID, msg string) error {
	trip, err := s.repo.GetTripByID(ctx, tripID)
	if err != nil {
		if db.IsNotFound(err) {
			return NotFoundError("Trip not found")
		}
		return fmt.Errorf("failed to load trip: %w", err)
	}
	if trip.CreatorID != callerID {
		return AuthorizationError(msg)
	}
	return nil
}

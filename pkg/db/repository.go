package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/1mt4y/travelbuddy/pkg/models"
)

// TripFilter narrows ListOpenTrips. Zero values are ignored.
type TripFilter struct {
	Destination string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Repository provides database operations for specific models
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db.DB}
}

// Transaction runs fn with a repository bound to a single transaction.
// Everything fn does through tx commits or rolls back together.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&Repository{db: gtx})
	})
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// User repository methods
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.conn(ctx).Omit(clause.Associations).Create(user).Error
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.conn(ctx).Where("id = ?", id).First(&user).Error
	return &user, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.conn(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *Repository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.conn(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *Repository) UserExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.conn(ctx).Omit(clause.Associations).Save(user).Error
}

// Trip repository methods
func (r *Repository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	return r.conn(ctx).Omit(clause.Associations).Create(trip).Error
}

func (r *Repository) GetTripByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := r.conn(ctx).Where("id = ?", id).First(&trip).Error
	return &trip, err
}

// GetTripDetail loads a trip with its creator and roster, oldest member first.
func (r *Repository) GetTripDetail(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := r.conn(ctx).
		Preload("Creator").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC").Order("user_id ASC")
		}).
		Preload("Participants.User").
		Where("id = ?", id).
		First(&trip).Error
	return &trip, err
}

// ListOpenTrips returns OPEN trips matching the filter, newest first.
func (r *Repository) ListOpenTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error) {
	var trips []models.Trip
	query := r.conn(ctx).
		Preload("Creator").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC").Order("user_id ASC")
		}).
		Preload("Participants.User").
		Where("status = ?", models.TripStatusOpen)

	if dest := strings.TrimSpace(filter.Destination); dest != "" {
		query = query.Where("LOWER(destination) LIKE ?", "%"+strings.ToLower(dest)+"%")
	}
	if filter.StartDate != nil {
		query = query.Where("start_date >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query = query.Where("end_date <= ?", filter.EndDate.UTC())
	}

	err := query.Order("created_at DESC").Order("id DESC").Find(&trips).Error
	return trips, err
}

func (r *Repository) GetTripsByCreator(ctx context.Context, creatorID string) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.conn(ctx).
		Preload("Participants").
		Where("creator_id = ?", creatorID).
		Order("start_date ASC").
		Order("id ASC").
		Find(&trips).Error
	return trips, err
}

// GetRecentOpenTripsByCreator backs the public profile view.
func (r *Repository) GetRecentOpenTripsByCreator(ctx context.Context, creatorID string, limit int) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.conn(ctx).
		Preload("Participants").
		Where("creator_id = ? AND status = ?", creatorID, models.TripStatusOpen).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&trips).Error
	return trips, err
}

func (r *Repository) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	return r.conn(ctx).Omit(clause.Associations).Save(trip).Error
}

// DeleteTrip removes only the trip row. Callers clear join requests and
// participations first inside the same transaction.
func (r *Repository) DeleteTrip(ctx context.Context, id string) error {
	return r.conn(ctx).Where("id = ?", id).Delete(&models.Trip{}).Error
}

// Participation repository methods
func (r *Repository) AddParticipant(ctx context.Context, userID, tripID string, joinedAt time.Time) error {
	return r.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.Participation{UserID: userID, TripID: tripID, JoinedAt: joinedAt}).Error
}

func (r *Repository) IsParticipant(ctx context.Context, userID, tripID string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Participation{}).
		Where("user_id = ? AND trip_id = ?", userID, tripID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CountParticipants(ctx context.Context, tripID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Participation{}).Where("trip_id = ?", tripID).Count(&count).Error
	return count, err
}

// GetJoinedParticipations lists trips the user belongs to but did not create.
func (r *Repository) GetJoinedParticipations(ctx context.Context, userID string) ([]models.Participation, error) {
	var parts []models.Participation
	err := r.conn(ctx).
		Select("participations.*").
		Joins("JOIN trips ON trips.id = participations.trip_id").
		Where("participations.user_id = ? AND trips.creator_id <> ?", userID, userID).
		Preload("Trip.Creator").
		Preload("Trip.Participants").
		Order("trips.start_date ASC").
		Order("trips.id ASC").
		Find(&parts).Error
	return parts, err
}

func (r *Repository) DeleteParticipationsByTrip(ctx context.Context, tripID string) error {
	return r.conn(ctx).Where("trip_id = ?", tripID).Delete(&models.Participation{}).Error
}

// Join request repository methods
func (r *Repository) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	return r.conn(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *Repository) GetJoinRequestByID(ctx context.Context, id string) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := r.conn(ctx).Preload("Trip").Where("id = ?", id).First(&req).Error
	return &req, err
}

func (r *Repository) HasPendingJoinRequest(ctx context.Context, tripID, senderID string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.JoinRequest{}).
		Where("trip_id = ? AND sender_id = ? AND status = ?", tripID, senderID, models.JoinRequestPending).
		Count(&count).Error
	return count > 0, err
}

// GetLatestJoinRequest returns the sender's most recent request for a trip.
func (r *Repository) GetLatestJoinRequest(ctx context.Context, tripID, senderID string) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := r.conn(ctx).
		Where("trip_id = ? AND sender_id = ?", tripID, senderID).
		Order("created_at DESC").
		Order("id DESC").
		First(&req).Error
	return &req, err
}

func (r *Repository) ListJoinRequestsForTrip(ctx context.Context, tripID string, onlyPending bool) ([]models.JoinRequest, error) {
	var reqs []models.JoinRequest
	query := r.conn(ctx).Preload("Sender").Where("trip_id = ?", tripID)
	if onlyPending {
		query = query.Where("status = ?", models.JoinRequestPending)
	}
	err := query.Order("created_at DESC").Order("id DESC").Find(&reqs).Error
	return reqs, err
}

func (r *Repository) CountPendingForTrip(ctx context.Context, tripID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.JoinRequest{}).
		Where("trip_id = ? AND status = ?", tripID, models.JoinRequestPending).
		Count(&count).Error
	return count, err
}

// CountPendingByTrip groups PENDING requests per trip for the given ids.
func (r *Repository) CountPendingByTrip(ctx context.Context, tripIDs []string) (map[string]int64, error) {
	type tripCount struct {
		TripID string
		Count  int64
	}

	counts := make(map[string]int64, len(tripIDs))
	if len(tripIDs) == 0 {
		return counts, nil
	}

	var results []tripCount
	err := r.conn(ctx).Model(&models.JoinRequest{}).
		Select("trip_id, COUNT(*) as count").
		Where("trip_id IN ? AND status = ?", tripIDs, models.JoinRequestPending).
		Group("trip_id").
		Scan(&results).Error

	for _, result := range results {
		counts[result.TripID] = result.Count
	}
	return counts, err
}

// ResolveJoinRequest moves a PENDING request to status. It returns the
// number of rows changed so callers can detect a lost race.
func (r *Repository) ResolveJoinRequest(ctx context.Context, id string, status models.JoinRequestStatus, at time.Time) (int64, error) {
	result := r.conn(ctx).Model(&models.JoinRequest{}).
		Where("id = ? AND status = ?", id, models.JoinRequestPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

// ListReceivedJoinRequests returns requests addressed to receiverID.
// pending selects PENDING rows newest first; otherwise resolved rows by
// last update. tripID and limit are optional.
func (r *Repository) ListReceivedJoinRequests(ctx context.Context, receiverID, tripID string, pending bool, limit int) ([]models.JoinRequest, error) {
	var reqs []models.JoinRequest
	query := r.conn(ctx).
		Preload("Sender").
		Preload("Trip").
		Where("receiver_id = ?", receiverID)

	if tripID != "" {
		query = query.Where("trip_id = ?", tripID)
	}

	if pending {
		query = query.Where("status = ?", models.JoinRequestPending).Order("created_at DESC")
	} else {
		query = query.Where("status <> ?", models.JoinRequestPending).Order("updated_at DESC")
	}
	query = query.Order("id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&reqs).Error
	return reqs, err
}

func (r *Repository) CountPendingReceived(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.JoinRequest{}).
		Where("receiver_id = ? AND status = ?", receiverID, models.JoinRequestPending).
		Count(&count).Error
	return count, err
}

func (r *Repository) ListSentPending(ctx context.Context, senderID string) ([]models.JoinRequest, error) {
	var reqs []models.JoinRequest
	err := r.conn(ctx).
		Preload("Trip.Creator").
		Where("sender_id = ? AND status = ?", senderID, models.JoinRequestPending).
		Order("created_at DESC").
		Order("id DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *Repository) DeleteJoinRequestsByTrip(ctx context.Context, tripID string) error {
	return r.conn(ctx).Where("trip_id = ?", tripID).Delete(&models.JoinRequest{}).Error
}

func (r *Repository) CountJoinRequestsByTrip(ctx context.Context, tripID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.JoinRequest{}).Where("trip_id = ?", tripID).Count(&count).Error
	return count, err
}

// Message repository methods
func (r *Repository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.conn(ctx).Omit(clause.Associations).Create(msg).Error
}

func (r *Repository) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := r.conn(ctx).Where("id = ?", id).First(&msg).Error
	return &msg, err
}

// ListConversation returns messages between a and b, oldest first. A non-nil
// after keeps only messages created strictly later.
func (r *Repository) ListConversation(ctx context.Context, a, b string, after *time.Time) ([]models.Message, error) {
	var msgs []models.Message
	query := r.conn(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a)
	if after != nil {
		query = query.Where("created_at > ?", after.UTC())
	}
	err := query.Order("created_at ASC").Order("id ASC").Find(&msgs).Error
	return msgs, err
}

// MarkConversationRead flips every unread message from sender to receiver.
func (r *Repository) MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	result := r.conn(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *Repository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountUnreadFrom(ctx context.Context, receiverID, senderID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Count(&count).Error
	return count, err
}

// ListCounterpartIDs returns every user that userID has exchanged at least
// one message with.
func (r *Repository) ListCounterpartIDs(ctx context.Context, userID string) ([]string, error) {
	var received, sent []string

	if err := r.conn(ctx).Model(&models.Message{}).
		Where("receiver_id = ?", userID).
		Distinct().
		Pluck("sender_id", &received).Error; err != nil {
		return nil, err
	}

	if err := r.conn(ctx).Model(&models.Message{}).
		Where("sender_id = ?", userID).
		Distinct().
		Pluck("receiver_id", &sent).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(received)+len(sent))
	ids := make([]string, 0, len(received)+len(sent))
	for _, id := range append(received, sent...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Repository) GetLatestMessageBetween(ctx context.Context, a, b string) (*models.Message, error) {
	var msg models.Message
	err := r.conn(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a).
		Order("created_at DESC").
		Order("id DESC").
		First(&msg).Error
	return &msg, err
}

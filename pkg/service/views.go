package service

import (
	"time"

	"github.com/1mt4y/travelbuddy/pkg/models"
)

// UserSummary is the public face of a user inside other payloads.
type UserSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// CreatorSummary adds the bits shown on a trip page.
type CreatorSummary struct {
	UserSummary
	Bio         string   `json:"bio,omitempty"`
	Nationality string   `json:"nationality,omitempty"`
	Languages   []string `json:"languages"`
}

type ParticipantView struct {
	UserSummary
	JoinedAt time.Time `json:"joinedAt"`
}

type TripSummary struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Destination      string            `json:"destination"`
	StartDate        time.Time         `json:"startDate"`
	EndDate          time.Time         `json:"endDate"`
	Description      string            `json:"description"`
	Activities       []string          `json:"activities"`
	MaxParticipants  int               `json:"maxParticipants"`
	Status           models.TripStatus `json:"status"`
	ImageURL         string            `json:"imageUrl,omitempty"`
	CreatorID        string            `json:"creatorId"`
	Creator          *CreatorSummary   `json:"creator,omitempty"`
	Participants     []ParticipantView `json:"participants"`
	ParticipantCount int               `json:"participantCount"`
	IsFull           bool              `json:"isFull"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// TripDetail is a trip as seen by a particular viewer.
type TripDetail struct {
	TripSummary
	IsCreator       bool                      `json:"isCreator"`
	IsParticipant   bool                      `json:"isParticipant"`
	HasRequested    bool                      `json:"hasRequested"`
	RequestStatus   *models.JoinRequestStatus `json:"requestStatus,omitempty"`
	PendingRequests []JoinRequestView         `json:"pendingRequests,omitempty"`
}

type TripRef struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

type JoinRequestView struct {
	ID         string                   `json:"id"`
	TripID     string                   `json:"tripId"`
	SenderID   string                   `json:"senderId"`
	ReceiverID string                   `json:"receiverId"`
	Message    string                   `json:"message"`
	Status     models.JoinRequestStatus `json:"status"`
	CreatedAt  time.Time                `json:"createdAt"`
	UpdatedAt  time.Time                `json:"updatedAt"`
	Sender     *UserSummary             `json:"sender,omitempty"`
	Trip       *TripRef                 `json:"trip,omitempty"`
}

// Caller-relative join states returned by JoinRequests.Status.
const (
	JoinStateCreator      = "CREATOR"
	JoinStateJoined       = "JOINED"
	JoinStateRequested    = "REQUESTED"
	JoinStateNotRequested = "NOT_REQUESTED"
)

type JoinStatus struct {
	Status        string                    `json:"status"`
	RequestID     string                    `json:"requestId,omitempty"`
	RequestStatus *models.JoinRequestStatus `json:"requestStatus,omitempty"`
}

type CreatedTrip struct {
	TripSummary
	PendingRequestsCount int64 `json:"pendingRequestsCount"`
}

// RequestInbox is the creator's aggregate view of incoming requests.
type RequestInbox struct {
	PendingRequests  []JoinRequestView `json:"pendingRequests"`
	PreviousRequests []JoinRequestView `json:"previousRequests"`
	CreatedTrips     []CreatedTrip     `json:"createdTrips"`
}

type JoinedTrip struct {
	TripSummary
	JoinedAt time.Time `json:"joinedAt"`
}

type UserTrips struct {
	Created         []TripSummary     `json:"created"`
	Joined          []JoinedTrip      `json:"joined"`
	PendingRequests []JoinRequestView `json:"pendingRequests"`
}

// Profile is the owner's view of their own account.
type Profile struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	Nationality  string     `json:"nationality,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Languages    []string   `json:"languages"`
	ProfileImage string     `json:"profileImage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// PublicProfile never carries the email or credential.
type PublicProfile struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	DateOfBirth  *time.Time    `json:"dateOfBirth,omitempty"`
	Nationality  string        `json:"nationality,omitempty"`
	Bio          string        `json:"bio,omitempty"`
	Languages    []string      `json:"languages"`
	ProfileImage string        `json:"profileImage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	Trips        []TripSummary `json:"trips"`
}

type Conversation struct {
	OtherUser UserSummary      `json:"otherUser"`
	Messages  []models.Message `json:"messages"`
}

type ConversationSummary struct {
	User        UserSummary    `json:"user"`
	LastMessage models.Message `json:"lastMessage"`
	UnreadCount int64          `json:"unreadCount"`
}

func summarizeUser(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfileImage: u.ProfileImage}
}

func summarizeCreator(u *models.User) *CreatorSummary {
	if u == nil {
		return nil
	}
	return &CreatorSummary{
		UserSummary: summarizeUser(u),
		Bio:         u.Bio,
		Nationality: u.Nationality,
		Languages:   stringList(u.Languages),
	}
}

func summarizeTrip(t *models.Trip) TripSummary {
	participants := make([]ParticipantView, 0, len(t.Participants))
	for _, p := range t.Participants {
		view := ParticipantView{UserSummary: UserSummary{ID: p.UserID}, JoinedAt: p.JoinedAt}
		if p.User != nil {
			view.UserSummary = summarizeUser(p.User)
		}
		participants = append(participants, view)
	}

	return TripSummary{
		ID:               t.ID,
		Title:            t.Title,
		Destination:      t.Destination,
		StartDate:        t.StartDate,
		EndDate:          t.EndDate,
		Description:      t.Description,
		Activities:       stringList(t.Activities),
		MaxParticipants:  t.MaxParticipants,
		Status:           t.Status,
		ImageURL:         t.ImageURL,
		CreatorID:        t.CreatorID,
		Creator:          summarizeCreator(t.Creator),
		Participants:     participants,
		ParticipantCount: len(participants),
		IsFull:           isFull(len(participants), t.MaxParticipants),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func summarizeTrips(trips []models.Trip) []TripSummary {
	out := make([]TripSummary, 0, len(trips))
	for i := range trips {
		out = append(out, summarizeTrip(&trips[i]))
	}
	return out
}

func viewJoinRequest(r *models.JoinRequest) JoinRequestView {
	view := JoinRequestView{
		ID:         r.ID,
		TripID:     r.TripID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Message:    r.Message,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Sender != nil {
		s := summarizeUser(r.Sender)
		view.Sender = &s
	}
	if r.Trip != nil {
		view.Trip = &TripRef{
			ID:          r.Trip.ID,
			Title:       r.Trip.Title,
			Destination: r.Trip.Destination,
			StartDate:   r.Trip.StartDate,
			EndDate:     r.Trip.EndDate,
		}
	}
	return view
}

func viewJoinRequests(reqs []models.JoinRequest) []JoinRequestView {
	out := make([]JoinRequestView, 0, len(reqs))
	for i := range reqs {
		out = append(out, viewJoinRequest(&reqs[i]))
	}
	return out
}

func profileOf(u *models.User) *Profile {
	return &Profile{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		DateOfBirth:  u.DateOfBirth,
		Nationality:  u.Nationality,
		Bio:          u.Bio,
		Languages:    stringList(u.Languages),
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}

func stringList(l models.StringList) []string {
	out := make([]string, 0, len(l))
	return append(out, l...)
}

// isFull is the authoritative fullness check; Trip.Status is not kept in
// sync with the roster.
func isFull(participants, maxParticipants int) bool {
	return participants >= maxParticipants
}

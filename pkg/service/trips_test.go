package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1mt4y/travelbuddy/pkg/models"
)

func TestCreateTripAddsCreatorToRoster(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	trip := f.createTrip(t, alice.ID, 2)

	assert.Equal(t, models.TripStatusOpen, trip.Status)
	assert.True(t, trip.IsCreator)
	assert.True(t, trip.IsParticipant)
	assert.Equal(t, 1, trip.ParticipantCount)
	assert.False(t, trip.IsFull)
	require.NotNil(t, trip.Creator)
	assert.Equal(t, alice.ID, trip.Creator.ID)
	assert.Equal(t, []string{"swimming", "hiking"}, trip.Activities)

	ok, err := f.svc.Roster.IsParticipant(f.ctx, alice.ID, trip.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateTripValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	base := CreateTripInput{
		Title:           "Trip",
		Destination:     "Lisbon",
		StartDate:       "2025-06-01",
		EndDate:         "2025-06-05",
		Description:     "Pastéis.",
		MaxParticipants: 2,
	}

	cases := map[string]func(in *CreateTripInput){
		"missing title":       func(in *CreateTripInput) { in.Title = "" },
		"end before start":    func(in *CreateTripInput) { in.EndDate = "2025-05-30" },
		"end equals start":    func(in *CreateTripInput) { in.EndDate = in.StartDate },
		"start in the past":   func(in *CreateTripInput) { in.StartDate, in.EndDate = "2024-12-01", "2024-12-05" },
		"zero capacity":       func(in *CreateTripInput) { in.MaxParticipants = 0 },
		"unparseable date":    func(in *CreateTripInput) { in.StartDate = "soon" },
		"missing description": func(in *CreateTripInput) { in.Description = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := f.svc.Trips.Create(f.ctx, alice.ID, in)
			requireKind(t, err, KindValidation)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Trip{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListTripsFilters(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	greece := f.createTrip(t, alice.ID, 4)
	lisbon, err := f.svc.Trips.Create(f.ctx, alice.ID, CreateTripInput{
		Title:           "City break",
		Destination:     "Lisbon, Portugal",
		StartDate:       "2025-09-01",
		EndDate:         "2025-09-04",
		Description:     "Trams and viewpoints.",
		MaxParticipants: 3,
	})
	require.NoError(t, err)

	all, err := f.svc.Trips.List(f.ctx, ListTripsInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, lisbon.ID, all[0].ID)

	byDest, err := f.svc.Trips.List(f.ctx, ListTripsInput{Destination: "GREECE"})
	require.NoError(t, err)
	require.Len(t, byDest, 1)
	assert.Equal(t, greece.ID, byDest[0].ID)
	require.Len(t, byDest[0].Participants, 1)
	assert.Equal(t, alice.ID, byDest[0].Participants[0].ID)

	fromAugust, err := f.svc.Trips.List(f.ctx, ListTripsInput{StartDate: "2025-08-01"})
	require.NoError(t, err)
	require.Len(t, fromAugust, 1)
	assert.Equal(t, lisbon.ID, fromAugust[0].ID)

	untilJuly, err := f.svc.Trips.List(f.ctx, ListTripsInput{EndDate: "2025-07-01"})
	require.NoError(t, err)
	require.Len(t, untilJuly, 1)
	assert.Equal(t, greece.ID, untilJuly[0].ID)

	completed := models.TripStatusCompleted
	_, err = f.svc.Trips.Update(f.ctx, greece.ID, alice.ID, UpdateTripInput{Status: &completed})
	require.NoError(t, err)

	open, err := f.svc.Trips.List(f.ctx, ListTripsInput{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, lisbon.ID, open[0].ID)

	_, err = f.svc.Trips.List(f.ctx, ListTripsInput{StartDate: "not-a-date"})
	requireKind(t, err, KindValidation)
}

func TestGetTripViewerFlags(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	trip := f.createTrip(t, alice.ID, 3)

	anon, err := f.svc.Trips.Get(f.ctx, trip.ID, "")
	require.NoError(t, err)
	assert.False(t, anon.IsCreator)
	assert.False(t, anon.HasRequested)

	asBob, err := f.svc.Trips.Get(f.ctx, trip.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, asBob.IsCreator)
	assert.False(t, asBob.IsParticipant)
	assert.False(t, asBob.HasRequested)
	assert.Nil(t, asBob.RequestStatus)

	_, err = f.svc.Requests.Request(f.ctx, trip.ID, bob.ID, "Count me in")
	require.NoError(t, err)

	asBob, err = f.svc.Trips.Get(f.ctx, trip.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, asBob.HasRequested)
	require.NotNil(t, asBob.RequestStatus)
	assert.Equal(t, models.JoinRequestPending, *asBob.RequestStatus)
	assert.Empty(t, asBob.PendingRequests)

	asAlice, err := f.svc.Trips.Get(f.ctx, trip.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, asAlice.PendingRequests, 1)
	require.NotNil(t, asAlice.PendingRequests[0].Sender)
	assert.Equal(t, bob.ID, asAlice.PendingRequests[0].Sender.ID)

	_, err = f.svc.Trips.Get(f.ctx, "3f1c2a9e-8a4b-4c1d-9e2f-0a1b2c3d4e5f", alice.ID)
	requireKind(t, err, KindNotFound)
}

func TestUpdateTrip(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	trip := f.createTrip(t, alice.ID, 3)

	title := "Hijacked"
	_, err := f.svc.Trips.Update(f.ctx, trip.ID, bob.ID, UpdateTripInput{Title: &title})
	requireKind(t, err, KindAuthorization)

	_, err = f.svc.Trips.Update(f.ctx, "3f1c2a9e-8a4b-4c1d-9e2f-0a1b2c3d4e5f", alice.ID, UpdateTripInput{Title: &title})
	requireKind(t, err, KindNotFound)

	req, err := f.svc.Requests.Request(f.ctx, trip.ID, bob.ID, "Hi")
	require.NoError(t, err)
	_, err = f.svc.Requests.Resolve(f.ctx, req.ID, alice.ID, models.JoinRequestAccepted)
	require.NoError(t, err)

	one := 1
	_, err = f.svc.Trips.Update(f.ctx, trip.ID, alice.ID, UpdateTripInput{MaxParticipants: &one})
	requireKind(t, err, KindValidation)

	badEnd := "2025-05-01"
	_, err = f.svc.Trips.Update(f.ctx, trip.ID, alice.ID, UpdateTripInput{EndDate: &badEnd})
	requireKind(t, err, KindValidation)

	bogus := models.TripStatus("ARCHIVED")
	_, err = f.svc.Trips.Update(f.ctx, trip.ID, alice.ID, UpdateTripInput{Status: &bogus})
	requireKind(t, err, KindValidation)

	two := 2
	newTitle := "Island hopping, slower"
	updated, err := f.svc.Trips.Update(f.ctx, trip.ID, alice.ID, UpdateTripInput{Title: &newTitle, MaxParticipants: &two})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, 2, updated.MaxParticipants)
	assert.True(t, updated.IsFull)
	assert.Equal(t, models.TripStatusOpen, updated.Status)
	assert.Equal(t, "Cyclades, Greece", updated.Destination)
	assert.Empty(t, updated.ImageURL)
}

func TestTripImageURL(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	in := CreateTripInput{
		Title:           "Fjords",
		Destination:     "Bergen, Norway",
		StartDate:       "2025-07-01",
		EndDate:         "2025-07-08",
		Description:     "Ferries and rain.",
		MaxParticipants: 3,
		ImageURL:        "javascript:alert(1)",
	}
	_, err := f.svc.Trips.Create(f.ctx, alice.ID, in)
	requireKind(t, err, KindValidation)

	in.ImageURL = " https://img.example.com/fjord.jpg "
	trip, err := f.svc.Trips.Create(f.ctx, alice.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/fjord.jpg", trip.ImageURL)

	bad := "ftp://img.example.com/fjord.jpg"
	_, err = f.svc.Trips.Update(f.ctx, trip.ID, alice.ID, UpdateTripInput{ImageURL: &bad})
	requireKind(t, err, KindValidation)

	other := "http://img.example.com/bergen.png"
	updated, err := f.svc.Trips.Update(f.ctx, trip.ID, alice.ID, UpdateTripInput{ImageURL: &other})
	require.NoError(t, err)
	assert.Equal(t, other, updated.ImageURL)

	cleared := ""
	updated, err = f.svc.Trips.Update(f.ctx, trip.ID, alice.ID, UpdateTripInput{ImageURL: &cleared})
	require.NoError(t, err)
	assert.Empty(t, updated.ImageURL)

	listed, err := f.svc.Trips.List(f.ctx, ListTripsInput{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].ImageURL)
}

func TestDeleteTripCascades(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")
	trip := f.createTrip(t, alice.ID, 4)

	req, err := f.svc.Requests.Request(f.ctx, trip.ID, bob.ID, "Hi")
	require.NoError(t, err)
	_, err = f.svc.Requests.Resolve(f.ctx, req.ID, alice.ID, models.JoinRequestAccepted)
	require.NoError(t, err)
	_, err = f.svc.Requests.Request(f.ctx, trip.ID, carol.ID, "Hello")
	require.NoError(t, err)

	requireKind(t, f.svc.Trips.Delete(f.ctx, trip.ID, bob.ID), KindAuthorization)
	assert.Equal(t, 2, f.rosterSize(t, trip.ID))

	require.NoError(t, f.svc.Trips.Delete(f.ctx, trip.ID, alice.ID))

	var requests, parts, trips int64
	require.NoError(t, f.db.Model(&models.JoinRequest{}).Where("trip_id = ?", trip.ID).Count(&requests).Error)
	require.NoError(t, f.db.Model(&models.Participation{}).Where("trip_id = ?", trip.ID).Count(&parts).Error)
	require.NoError(t, f.db.Model(&models.Trip{}).Where("id = ?", trip.ID).Count(&trips).Error)
	assert.Zero(t, requests)
	assert.Zero(t, parts)
	assert.Zero(t, trips)

	requireKind(t, f.svc.Trips.Delete(f.ctx, trip.ID, alice.ID), KindNotFound)
}

func TestForUser(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	mine := f.createTrip(t, bob.ID, 3)
	joined := f.createTrip(t, alice.ID, 3)
	pending := f.createTrip(t, alice.ID, 3)

	req, err := f.svc.Requests.Request(f.ctx, joined.ID, bob.ID, "Hi")
	require.NoError(t, err)
	_, err = f.svc.Requests.Resolve(f.ctx, req.ID, alice.ID, models.JoinRequestAccepted)
	require.NoError(t, err)
	_, err = f.svc.Requests.Request(f.ctx, pending.ID, bob.ID, "Me too")
	require.NoError(t, err)

	trips, err := f.svc.Trips.ForUser(f.ctx, bob.ID)
	require.NoError(t, err)

	require.Len(t, trips.Created, 1)
	assert.Equal(t, mine.ID, trips.Created[0].ID)

	require.Len(t, trips.Joined, 1)
	assert.Equal(t, joined.ID, trips.Joined[0].ID)
	assert.False(t, trips.Joined[0].JoinedAt.IsZero())
	assert.Equal(t, 2, trips.Joined[0].ParticipantCount)

	require.Len(t, trips.PendingRequests, 1)
	assert.Equal(t, pending.ID, trips.PendingRequests[0].TripID)
	require.NotNil(t, trips.PendingRequests[0].Trip)
}

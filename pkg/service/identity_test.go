package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1mt4y/travelbuddy/pkg/models"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	in := RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123", Languages: []string{" Portuguese ", ""}}
	p, err := f.svc.Identity.Register(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, []string{"Portuguese"}, p.Languages)

	in.Email = "  ANA@example.com "
	_, err = f.svc.Identity.Register(f.ctx, in)
	requireKind(t, err, KindConflict)
	assert.Equal(t, "User with this email already exists", err.Error())

	var count int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]RegisterInput{
		"short password": {Name: "Ana", Email: "ana@example.com", Password: "short"},
		"bad email":      {Name: "Ana", Email: "ana", Password: "password123"},
		"blank name":     {Name: "   ", Email: "ana@example.com", Password: "password123"},
		"bad birth date": {Name: "Ana", Email: "ana@example.com", Password: "password123", DateOfBirth: "yesterday"},
		"long password":  {Name: "Ana", Email: "ana@example.com", Password: strings.Repeat("é", 40)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Identity.Register(f.ctx, in)
			requireKind(t, err, KindValidation)
		})
	}
}

func TestRegisterPasswordByteLimit(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Identity.Register(f.ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: strings.Repeat("é", 37)})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "Password must be at most 72 bytes", err.Error())

	_, err = f.svc.Identity.Register(f.ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: strings.Repeat("é", 36)})
	require.NoError(t, err)

	user, err := f.svc.Identity.Authenticate(f.ctx, "ana@example.com", strings.Repeat("é", 36))
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Identity.Register(f.ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	require.NoError(t, err)

	user, err := f.svc.Identity.Authenticate(f.ctx, "Ana@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	_, err = f.svc.Identity.Authenticate(f.ctx, "ana@example.com", "wrong-password")
	requireKind(t, err, KindAuthentication)

	_, err = f.svc.Identity.Authenticate(f.ctx, "nobody@example.com", "password123")
	requireKind(t, err, KindAuthentication)

	_, err = f.svc.Identity.Resolve(f.ctx, "3f1c2a9e-8a4b-4c1d-9e2f-0a1b2c3d4e5f")
	requireKind(t, err, KindAuthentication)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	me := f.register(t, "ana")

	_, err := f.svc.Identity.UpdateProfile(f.ctx, me.ID, ProfileInput{Name: ""})
	requireKind(t, err, KindValidation)

	_, err = f.svc.Identity.UpdateProfile(f.ctx, me.ID, ProfileInput{Name: "Ana", ProfileImage: "ftp://example.com/me.png"})
	requireKind(t, err, KindValidation)

	p, err := f.svc.Identity.UpdateProfile(f.ctx, me.ID, ProfileInput{
		Name:         "Ana Silva",
		DateOfBirth:  "1990-04-12",
		Nationality:  "Portuguese",
		Bio:          "  Coffee first.  ",
		Languages:    []string{"Portuguese", "Spanish"},
		ProfileImage: "https://cdn.example.com/ana.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", p.Name)
	assert.Equal(t, "Coffee first.", p.Bio)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, 1990, p.DateOfBirth.Year())

	reloaded, err := f.svc.Identity.GetProfile(f.ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Portuguese", "Spanish"}, reloaded.Languages)
	assert.Equal(t, "https://cdn.example.com/ana.png", reloaded.ProfileImage)
}

func TestPublicProfileShowsRecentOpenTrips(t *testing.T) {
	f := newFixture(t)
	me := f.register(t, "ana")

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, f.createTrip(t, me.ID, 3).ID)
	}

	cancelled := models.TripStatusCancelled
	_, err := f.svc.Trips.Update(f.ctx, ids[4], me.ID, UpdateTripInput{Status: &cancelled})
	require.NoError(t, err)

	p, err := f.svc.Identity.PublicProfile(f.ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, p.Trips, 3)
	assert.Equal(t, ids[3], p.Trips[0].ID)
	assert.Equal(t, ids[2], p.Trips[1].ID)
	assert.Equal(t, ids[1], p.Trips[2].ID)

	_, err = f.svc.Identity.PublicProfile(f.ctx, "3f1c2a9e-8a4b-4c1d-9e2f-0a1b2c3d4e5f")
	requireKind(t, err, KindNotFound)
}

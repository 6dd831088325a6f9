package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/1mt4y/travelbuddy/pkg/config"
	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/log"
	"github.com/1mt4y/travelbuddy/pkg/models"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// stepClock advances one second on every read so rows get distinct,
// increasing timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	svc  *Services
	repo *db.Repository
	db   *db.DB
	ctx  context.Context
}

func openTestDB(t testing.TB) *db.DB {
	t.Helper()

	database, err := db.New(&config.DatabaseConfig{
		Driver:       "sqlite",
		Database:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		LogLevel:     "silent",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newFixture(t testing.TB) *fixture {
	t.Helper()

	database := openTestDB(t)
	logger, err := log.New(&config.LoggingConfig{Level: "error", Format: "json", Output: "discard"})
	require.NoError(t, err)

	clock := &stepClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	repo := db.NewRepository(database)
	svc := New(repo, utils.NewPasswordHasher(bcrypt.MinCost), logger, WithClock(clock.Now))

	return &fixture{svc: svc, repo: repo, db: database, ctx: context.Background()}
}

func (f *fixture) register(t testing.TB, name string) *Profile {
	t.Helper()
	p, err := f.svc.Identity.Register(f.ctx, RegisterInput{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "password123",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) createTrip(t testing.TB, creatorID string, maxParticipants int) *TripDetail {
	t.Helper()
	trip, err := f.svc.Trips.Create(f.ctx, creatorID, CreateTripInput{
		Title:           "Island hopping",
		Destination:     "Cyclades, Greece",
		StartDate:       "2025-06-01",
		EndDate:         "2025-06-10",
		Description:     "Ferries, beaches and tavernas.",
		Activities:      []string{"swimming", "hiking"},
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)
	return trip
}

func (f *fixture) rosterSize(t testing.TB, tripID string) int {
	t.Helper()
	n, err := f.svc.Roster.Size(f.ctx, tripID)
	require.NoError(t, err)
	return n
}

func (f *fixture) requestStatus(t testing.TB, requestID string) models.JoinRequestStatus {
	t.Helper()
	var req models.JoinRequest
	require.NoError(t, f.db.Where("id = ?", requestID).First(&req).Error)
	return req.Status
}

func requireKind(t testing.TB, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

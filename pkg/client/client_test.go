package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/1mt4y/travelbuddy/pkg/config"
	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/log"
	"github.com/1mt4y/travelbuddy/pkg/models"
	"github.com/1mt4y/travelbuddy/pkg/service"
	"github.com/1mt4y/travelbuddy/pkg/utils"
	"github.com/1mt4y/travelbuddy/pkg/webserver"
)

func discardLogger(t *testing.T) *log.Logger {
	t.Helper()
	logger, err := log.New(&config.LoggingConfig{Level: "error", Format: "json", Output: "discard"})
	require.NoError(t, err)
	return logger
}

// startAPI serves the real router over an in-memory database and returns
// its base URL with the services for seeding.
func startAPI(t *testing.T) (string, *service.Services) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1"},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			Database:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			LogLevel:     "silent",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Security: config.SecurityConfig{
			JWTSecret:          "client-test-secret-0123",
			JWTExpirationHours: 1,
			SessionCookieName:  "travelbuddy_session",
			BcryptCost:         bcrypt.MinCost,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "json", Output: "discard"},
		Polling: config.PollingConfig{ConversationSeconds: 5, BadgeSeconds: 60},
	}

	database, err := db.New(&cfg.Database, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { _ = database.Close() })

	logger := discardLogger(t)
	srv, err := webserver.New(cfg, database, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	svc := service.New(db.NewRepository(database), utils.NewPasswordHasher(bcrypt.MinCost), logger)
	return ts.URL, svc
}

func register(t *testing.T, svc *service.Services, name string) (string, string) {
	t.Helper()
	email := fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8])
	p, err := svc.Identity.Register(context.Background(), service.RegisterInput{Name: name, Email: email, Password: "password123"})
	require.NoError(t, err)
	return p.ID, email
}

func TestClientAgainstAPI(t *testing.T) {
	baseURL, svc := startAPI(t)
	ctx := context.Background()

	dID, dEmail := register(t, svc, "d")
	eID, eEmail := register(t, svc, "e")

	d := New(baseURL)
	id, err := d.Login(ctx, dEmail, "password123")
	require.NoError(t, err)
	assert.Equal(t, dID, id)

	e := New(baseURL + "/")
	_, err = e.Login(ctx, eEmail, "password123")
	require.NoError(t, err)

	cc, err := d.ClientConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, cc.ConversationPollSeconds)
	assert.Equal(t, 60, cc.BadgePollSeconds)

	first, err := d.SendMessage(ctx, eID, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", first.Content)

	badges, err := e.Badges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), badges.UnreadMessages)
	assert.Zero(t, badges.PendingRequests)

	conv, err := e.Conversation(ctx, dID, "")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, dID, conv.OtherUser.ID)

	second, err := d.SendMessage(ctx, eID, "Still there?")
	require.NoError(t, err)

	conv, err = e.Conversation(ctx, dID, first.ID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, second.ID, conv.Messages[0].ID)

	unread, err := e.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	baseURL, svc := startAPI(t)
	ctx := context.Background()

	_, email := register(t, svc, "d")

	anon := New(baseURL)
	_, err := anon.UnreadCount(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = anon.Login(ctx, email, "wrong-password")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	_, err = anon.Login(ctx, email, "password123")
	require.NoError(t, err)
	_, err = anon.SendMessage(ctx, uuid.NewString(), "anyone?")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientWithIssuedToken(t *testing.T) {
	baseURL, svc := startAPI(t)
	ctx := context.Background()

	dID, dEmail := register(t, svc, "d")
	eID, _ := register(t, svc, "e")

	token, err := utils.NewJWTManager("client-test-secret-0123", 1).GenerateToken(dID, dEmail, "d")
	require.NoError(t, err)

	c := New(baseURL, WithToken(token), WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	msg, err := c.SendMessage(ctx, eID, "Token only")
	require.NoError(t, err)
	assert.Equal(t, dID, msg.SenderID)
}

func TestConversationWatcherReportsOnlyNewMessages(t *testing.T) {
	baseURL, svc := startAPI(t)
	ctx := context.Background()

	dID, _ := register(t, svc, "d")
	eID, eEmail := register(t, svc, "e")

	e := New(baseURL)
	_, err := e.Login(ctx, eEmail, "password123")
	require.NoError(t, err)

	var seen []string
	w := NewConversationWatcher(e, dID, func(m models.Message) { seen = append(seen, m.Content) })

	_, err = svc.Messaging.Send(ctx, dID, eID, "one")
	require.NoError(t, err)
	require.NoError(t, w.Poll(ctx))
	assert.Equal(t, []string{"one"}, seen)

	require.NoError(t, w.Poll(ctx))
	assert.Equal(t, []string{"one"}, seen)

	_, err = svc.Messaging.Send(ctx, dID, eID, "two")
	require.NoError(t, err)
	_, err = svc.Messaging.Send(ctx, eID, dID, "three")
	require.NoError(t, err)
	require.NoError(t, w.Poll(ctx))
	assert.Equal(t, []string{"one", "two", "three"}, seen)
}

func TestPollerRunsImmediatelyAndOnInterval(t *testing.T) {
	p := NewPoller(discardLogger(t))

	var fast, slow int32
	p.Add(Job{Name: "fast", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
		atomic.AddInt32(&fast, 1)
		return nil
	}})
	p.Add(Job{Name: "slow", Interval: time.Hour, Run: func(context.Context) error {
		atomic.AddInt32(&slow, 1)
		return errors.New("badge endpoint down")
	}})

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&fast) >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&slow))

	p.Stop()
	p.Stop()
	after := atomic.LoadInt32(&fast)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&fast))
}

func TestPollerStopsWithContext(t *testing.T) {
	p := NewPoller(discardLogger(t))

	var mu sync.Mutex
	runs := 0
	p.Add(Job{Name: "tick", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 2
	}, time.Second, time.Millisecond)

	cancel()
	p.Stop()

	assert.Error(t, NewPoller(discardLogger(t)).Start(context.Background()))
}

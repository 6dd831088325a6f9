package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/1mt4y/travelbuddy/pkg/log"
	"github.com/1mt4y/travelbuddy/pkg/models"
)

// Job is one periodic refresh. Run is called once right away and then on
// every tick; an error is logged and the job keeps going.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Poller runs jobs on fixed intervals until its context is cancelled or
// Stop is called.
type Poller struct {
	logger  *log.Logger
	jobs    []Job
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

func NewPoller(logger *log.Logger) *Poller {
	return &Poller{
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Add registers a job. Jobs added after Start are ignored.
func (p *Poller) Add(job Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.jobs = append(p.jobs, job)
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("poller already started")
	}
	if len(p.jobs) == 0 {
		return errors.New("poller has no jobs")
	}
	for _, job := range p.jobs {
		if job.Interval <= 0 || job.Run == nil {
			return errors.New("poller job " + job.Name + " needs a positive interval and a run function")
		}
	}
	p.started = true

	p.logger.WithField("job_count", len(p.jobs)).Info("Starting poller")

	for _, job := range p.jobs {
		p.wg.Add(1)
		go p.run(ctx, job)
	}
	return nil
}

// Stop halts every job and waits for in-flight runs to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Poller stopped")
}

func (p *Poller) run(ctx context.Context, job Job) {
	defer p.wg.Done()

	p.logger.WithField("job", job.Name).Debug("Poll job started")

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	p.tick(ctx, job)
	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("job", job.Name).Debug("Poll job stopped by context")
			return
		case <-p.stopCh:
			p.logger.WithField("job", job.Name).Debug("Poll job stopped")
			return
		case <-ticker.C:
			p.tick(ctx, job)
		}
	}
}

func (p *Poller) tick(ctx context.Context, job Job) {
	if err := job.Run(ctx); err != nil && ctx.Err() == nil {
		p.logger.WithError(err).WithField("job", job.Name).Warn("Poll job failed")
	}
}

// ConversationWatcher remembers the newest message it has seen in one
// thread and reports only newer ones on each poll.
type ConversationWatcher struct {
	client    *Client
	otherID   string
	lastID    string
	onMessage func(models.Message)
}

func NewConversationWatcher(c *Client, otherID string, onMessage func(models.Message)) *ConversationWatcher {
	return &ConversationWatcher{client: c, otherID: otherID, onMessage: onMessage}
}

// Poll fetches messages after the last one seen. Opening the thread also
// marks it read on the server.
func (w *ConversationWatcher) Poll(ctx context.Context) error {
	conv, err := w.client.Conversation(ctx, w.otherID, w.lastID)
	if err != nil {
		return err
	}
	for _, msg := range conv.Messages {
		if msg.ID == w.lastID {
			continue
		}
		w.onMessage(msg)
	}
	if n := len(conv.Messages); n > 0 {
		w.lastID = conv.Messages[n-1].ID
	}
	return nil
}

// Job wraps the watcher for a Poller.
func (w *ConversationWatcher) Job(interval time.Duration) Job {
	return Job{Name: "conversation:" + w.otherID, Interval: interval, Run: w.Poll}
}

package service

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/models"
)

const (
	opRequest = iota
	opAccept
	opReject
	opCount
)

// TestJoinWorkflowInvariants drives random request/accept/reject sequences
// from three travellers against a trip of capacity two and checks after
// every step that a sender never holds two PENDING requests, the roster
// never exceeds capacity and resolved requests stay resolved.
func TestJoinWorkflowInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.MaxSize = 25

	properties := gopter.NewProperties(parameters)

	properties.Property("join workflow keeps one pending request per sender and a bounded roster", prop.ForAll(
		func(ops []int) bool {
			f := newFixture(t)
			creator := f.register(t, "creator")
			trip := f.createTrip(t, creator.ID, 2)

			senders := make([]string, 3)
			for i := range senders {
				senders[i] = f.register(t, "traveller").ID
			}

			resolved := map[string]models.JoinRequestStatus{}

			for _, op := range ops {
				sender := senders[op%len(senders)]

				var err error
				switch (op / len(senders)) % opCount {
				case opRequest:
					_, err = f.svc.Requests.Request(f.ctx, trip.ID, sender, "Hi")
				case opAccept, opReject:
					status := models.JoinRequestAccepted
					if (op/len(senders))%opCount == opReject {
						status = models.JoinRequestRejected
					}
					latest, lerr := f.repo.GetLatestJoinRequest(f.ctx, trip.ID, sender)
					if lerr != nil {
						if !db.IsNotFound(lerr) {
							return false
						}
						continue
					}
					var view *JoinRequestView
					view, err = f.svc.Requests.Resolve(f.ctx, latest.ID, creator.ID, status)
					if err == nil {
						resolved[view.ID] = view.Status
					}
				}
				if err != nil && KindOf(err) == KindInternal {
					return false
				}

				if !workflowHolds(t, f, trip.ID, trip.MaxParticipants, resolved) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 3*opCount-1)),
	))

	properties.TestingRun(t)
}

func workflowHolds(t *testing.T, f *fixture, tripID string, maxParticipants int, resolved map[string]models.JoinRequestStatus) bool {
	var reqs []models.JoinRequest
	require.NoError(t, f.db.Where("trip_id = ?", tripID).Find(&reqs).Error)

	pending := map[string]int{}
	for _, r := range reqs {
		if r.Status == models.JoinRequestPending {
			pending[r.SenderID]++
			if pending[r.SenderID] > 1 {
				return false
			}
		}
		if want, ok := resolved[r.ID]; ok && r.Status != want {
			return false
		}
	}

	return f.rosterSize(t, tripID) <= maxParticipants
}

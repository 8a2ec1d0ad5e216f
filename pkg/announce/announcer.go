package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/visit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Detect compares two consecutive queue snapshots and returns one
// announcement per patient whose visit moved from waiting to in-progress.
func Detect(prev, curr []models.QueueEntry) []models.Announcement {
	previous := make(map[uuid.UUID]string, len(prev))
	for _, entry := range prev {
		previous[entry.PatientID] = entry.Visit.Status
	}

	var called []models.Announcement
	for _, entry := range curr {
		if previous[entry.PatientID] == models.VisitStatusWaiting &&
			entry.Visit.Status == models.VisitStatusInProgress {
			called = append(called, models.Announcement{
				PatientID:   entry.PatientID,
				PatientName: entry.PatientName,
				ClinicID:    entry.Visit.ClinicID,
				ClinicName:  entry.Visit.ClinicName,
				CalledAt:    time.Now().UTC(),
			})
		}
	}
	return called
}

// Announcer tracks a last-seen status cursor per patient so each
// waiting -> in-progress edge fires exactly once, regardless of how the
// snapshots were delivered. Fired announcements live in Redis under a TTL
// that doubles as the display expiry.
type Announcer struct {
	client *redis.Client
	events visit.EventPublisher
	ttl    time.Duration

	mu     sync.Mutex
	cursor map[uuid.UUID]string
}

func NewAnnouncer(client *redis.Client, events visit.EventPublisher, ttl time.Duration) *Announcer {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Announcer{
		client: client,
		events: events,
		ttl:    ttl,
		cursor: make(map[uuid.UUID]string),
	}
}

// Observe feeds the announcer one queue snapshot and returns the
// announcements it fired. Patients absent from the snapshot (completed or
// archived visits) have their cursor cleared so the next visit cycle can
// announce again.
func (a *Announcer) Observe(ctx context.Context, entries []models.QueueEntry) []models.Announcement {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(entries))
	var fired []models.Announcement

	for _, entry := range entries {
		seen[entry.PatientID] = true
		prev, known := a.cursor[entry.PatientID]
		a.cursor[entry.PatientID] = entry.Visit.Status

		if known && prev == models.VisitStatusWaiting &&
			entry.Visit.Status == models.VisitStatusInProgress {
			ann := models.Announcement{
				PatientID:   entry.PatientID,
				PatientName: entry.PatientName,
				ClinicID:    entry.Visit.ClinicID,
				ClinicName:  entry.Visit.ClinicName,
				CalledAt:    time.Now().UTC(),
			}
			fired = append(fired, ann)
			a.store(ctx, ann)
			a.publish(ctx, entry)
		}
	}

	for id := range a.cursor {
		if !seen[id] {
			delete(a.cursor, id)
		}
	}
	return fired
}

func (a *Announcer) store(ctx context.Context, ann models.Announcement) {
	if a.client == nil {
		return
	}
	data, err := json.Marshal(ann)
	if err != nil {
		return
	}
	key := fmt.Sprintf("announce:%s", ann.PatientID)
	if err := a.client.Set(ctx, key, data, a.ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("announcement cache write failed")
	}
}

func (a *Announcer) publish(ctx context.Context, entry models.QueueEntry) {
	if a.events == nil {
		return
	}
	if err := a.events.PublishVisitEvent(ctx, models.EventPatientCalled, entry.PatientID, entry.Visit, map[string]interface{}{
		"patient_name": entry.PatientName,
	}); err != nil {
		logger.Log.WithError(err).Warn("announcement publish failed")
	}
}

// Board lists the announcements still inside their display window.
func (a *Announcer) Board(ctx context.Context) ([]models.Announcement, error) {
	return ReadBoard(ctx, a.client)
}

// ReadBoard scans the transient announcement keys. Shared with the display
// service, which has no Announcer of its own.
func ReadBoard(ctx context.Context, client *redis.Client) ([]models.Announcement, error) {
	if client == nil {
		return nil, nil
	}
	var board []models.Announcement
	iter := client.Scan(ctx, 0, "announce:*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var ann models.Announcement
		if err := json.Unmarshal(data, &ann); err != nil {
			continue
		}
		board = append(board, ann)
	}
	if err := iter.Err(); err != nil {
		return board, err
	}
	return board, nil
}

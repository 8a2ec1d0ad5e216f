package announce

import (
	"context"
	"sync"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
)

// BoardKeeper maintains the display service's in-memory "now serving" board
// from announcement events on the bus. Entries age out after the display TTL.
type BoardKeeper struct {
	ttl time.Duration

	mu    sync.Mutex
	items map[uuid.UUID]models.Announcement
}

func NewBoardKeeper(ttl time.Duration) *BoardKeeper {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BoardKeeper{
		ttl:   ttl,
		items: make(map[uuid.UUID]models.Announcement),
	}
}

// HandleEvent is the Kafka consumer handler. Non-announcement events are
// ignored so the keeper can share a topic with other visit events.
func (k *BoardKeeper) HandleEvent(ctx context.Context, event models.VisitEvent) error {
	if event.Type != models.EventPatientCalled {
		return nil
	}
	name, _ := event.Data["patient_name"].(string)
	k.mu.Lock()
	k.items[event.PatientID] = models.Announcement{
		PatientID:   event.PatientID,
		PatientName: name,
		ClinicID:    event.ClinicID,
		CalledAt:    event.Timestamp,
	}
	k.mu.Unlock()
	return nil
}

// Snapshot returns the entries still inside their display window, pruning the
// rest.
func (k *BoardKeeper) Snapshot() []models.Announcement {
	cutoff := time.Now().UTC().Add(-k.ttl)
	k.mu.Lock()
	defer k.mu.Unlock()

	board := make([]models.Announcement, 0, len(k.items))
	for id, ann := range k.items {
		if ann.CalledAt.Before(cutoff) {
			delete(k.items, id)
			continue
		}
		board = append(board, ann)
	}
	return board
}

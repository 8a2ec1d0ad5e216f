package announce

import (
	"context"
	"testing"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
)

func init() {
	logger.Init()
}

func entry(id uuid.UUID, name, status string) models.QueueEntry {
	return models.QueueEntry{
		PatientID:   id,
		PatientName: name,
		Visit: models.Visit{
			VisitID:  "v-" + id.String(),
			ClinicID: "c1",
			Status:   status,
		},
	}
}

func TestDetectWaitingToInProgress(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	prev := []models.QueueEntry{
		entry(id, "Ada", models.VisitStatusWaiting),
		entry(other, "Ben", models.VisitStatusInProgress),
	}
	curr := []models.QueueEntry{
		entry(id, "Ada", models.VisitStatusInProgress),
		entry(other, "Ben", models.VisitStatusInProgress),
	}

	called := Detect(prev, curr)
	if len(called) != 1 || called[0].PatientID != id {
		t.Fatalf("expected one announcement for Ada, got %+v", called)
	}
}

func TestDetectIgnoresNewArrivals(t *testing.T) {
	curr := []models.QueueEntry{entry(uuid.New(), "New", models.VisitStatusInProgress)}
	if called := Detect(nil, curr); len(called) != 0 {
		t.Fatalf("patient absent from the previous snapshot must not announce, got %+v", called)
	}
}

func TestObserveFiresOncePerEdge(t *testing.T) {
	announcer := NewAnnouncer(nil, nil, time.Minute)
	id := uuid.New()
	ctx := context.Background()

	if fired := announcer.Observe(ctx, []models.QueueEntry{entry(id, "Ada", models.VisitStatusWaiting)}); len(fired) != 0 {
		t.Fatalf("waiting snapshot must not fire, got %+v", fired)
	}
	if fired := announcer.Observe(ctx, []models.QueueEntry{entry(id, "Ada", models.VisitStatusInProgress)}); len(fired) != 1 {
		t.Fatalf("expected the call edge to fire once, got %+v", fired)
	}
	if fired := announcer.Observe(ctx, []models.QueueEntry{entry(id, "Ada", models.VisitStatusInProgress)}); len(fired) != 0 {
		t.Fatalf("repeated in-progress snapshots must not re-fire, got %+v", fired)
	}
}

func TestObserveFirstSnapshotNeverFires(t *testing.T) {
	announcer := NewAnnouncer(nil, nil, time.Minute)
	id := uuid.New()

	fired := announcer.Observe(context.Background(), []models.QueueEntry{entry(id, "Ada", models.VisitStatusInProgress)})
	if len(fired) != 0 {
		t.Fatalf("unseen patient must seed the cursor silently, got %+v", fired)
	}
}

func TestObserveResetsCursorWhenAbsent(t *testing.T) {
	announcer := NewAnnouncer(nil, nil, time.Minute)
	id := uuid.New()
	ctx := context.Background()

	announcer.Observe(ctx, []models.QueueEntry{entry(id, "Ada", models.VisitStatusWaiting)})
	announcer.Observe(ctx, []models.QueueEntry{entry(id, "Ada", models.VisitStatusInProgress)})
	// Visit completed, patient drops off the queue.
	announcer.Observe(ctx, nil)

	// Next visit cycle announces again.
	announcer.Observe(ctx, []models.QueueEntry{entry(id, "Ada", models.VisitStatusWaiting)})
	fired := announcer.Observe(ctx, []models.QueueEntry{entry(id, "Ada", models.VisitStatusInProgress)})
	if len(fired) != 1 {
		t.Fatalf("a new visit cycle must announce again, got %+v", fired)
	}
}

func TestBoardKeeperPrunesExpired(t *testing.T) {
	keeper := NewBoardKeeper(time.Minute)
	ctx := context.Background()

	fresh := uuid.New()
	stale := uuid.New()
	_ = keeper.HandleEvent(ctx, models.VisitEvent{
		Type:      models.EventPatientCalled,
		PatientID: fresh,
		Timestamp: time.Now().UTC(),
		Data:      map[string]interface{}{"patient_name": "Ada W."},
	})
	_ = keeper.HandleEvent(ctx, models.VisitEvent{
		Type:      models.EventPatientCalled,
		PatientID: stale,
		Timestamp: time.Now().UTC().Add(-2 * time.Minute),
		Data:      map[string]interface{}{"patient_name": "Old B."},
	})
	_ = keeper.HandleEvent(ctx, models.VisitEvent{
		Type:      models.EventVisitWaiting,
		PatientID: uuid.New(),
		Timestamp: time.Now().UTC(),
	})

	board := keeper.Snapshot()
	if len(board) != 1 || board[0].PatientID != fresh {
		t.Fatalf("expected only the fresh announcement, got %+v", board)
	}
	if board[0].PatientName != "Ada W." {
		t.Fatalf("expected the published name, got %q", board[0].PatientName)
	}
}

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/observability/metrics"
	"github.com/ehabalabdo/med-loop-sub000/pkg/queue"
)

// PatientLister is the read side of the clinic repository the notifier polls.
type PatientLister interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
}

// Observer identifies one polling consumer and its queue scope. Internal
// observers (the call announcer) bypass the role rules and see the full
// unmasked queue.
type Observer struct {
	ID        string
	Role      string
	ClinicIDs []string
	Internal  bool
}

// Callback receives the observer's projected queue whenever it changes.
type Callback func(entries []models.QueueEntry)

// Notifier stands in for a push transport: it re-reads the patient set on a
// fixed interval, re-projects the queue per observer, and invokes the callback
// only when the projected view actually changed since the last delivery.
// Consistency is eventual, bounded by the poll interval; two observers may see
// the same change on different ticks.
type Notifier struct {
	store     PatientLister
	projector *queue.Projector
	interval  time.Duration
}

func NewNotifier(store PatientLister, projector *queue.Projector, interval time.Duration) *Notifier {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Notifier{store: store, projector: projector, interval: interval}
}

// Subscribe delivers an immediate snapshot, then polls. The returned stop
// function ends the poll loop and is safe to call more than once.
func (n *Notifier) Subscribe(observer Observer, callback Callback) func() {
	ctx := context.Background()

	// Observers only ever see successfully committed snapshots. A failed
	// poll delivers nothing; it just delays the next observed snapshot.
	last, err := n.snapshot(ctx, observer)
	delivered := err == nil
	if delivered {
		callback(last)
	}

	stop := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				current, err := n.snapshot(ctx, observer)
				if err != nil {
					continue
				}
				if delivered && SnapshotsEqual(last, current) {
					metrics.IncNotifierSkip()
					continue
				}
				last = current
				delivered = true
				metrics.IncNotifierDelivery()
				callback(current)
			}
		}
	}()

	return func() {
		once.Do(func() { close(stop) })
	}
}

func (n *Notifier) snapshot(ctx context.Context, observer Observer) ([]models.QueueEntry, error) {
	patients, err := n.store.ListPatients(ctx)
	if err != nil {
		logger.Log.WithError(err).WithField("observer", observer.ID).Warn("queue poll failed")
		return nil, err
	}
	if observer.Internal {
		return n.projector.ProjectFull(patients), nil
	}
	return n.projector.Project(patients, observer.Role, observer.ClinicIDs), nil
}

// SnapshotsEqual reports whether two projected queues are identical in both
// membership and order.
func SnapshotsEqual(a, b []models.QueueEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].PatientID != b[i].PatientID {
			return false
		}
		av, bv := a[i].Visit, b[i].Visit
		if av.VisitID != bv.VisitID || av.Status != bv.Status ||
			av.Priority != bv.Priority || av.Version != bv.Version {
			return false
		}
	}
	return true
}

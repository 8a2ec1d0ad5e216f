package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	transitionsTotal    atomic.Int64
	transitionsRejected atomic.Int64
	checkInsTotal       atomic.Int64
	intakesTotal        atomic.Int64
	invoicesCreated     atomic.Int64
	announcementsFired  atomic.Int64
	notifierDeliveries  atomic.Int64
	notifierSkips       atomic.Int64
	queueDepth          atomic.Int64
)

func Init() {}

func IncTransition()         { transitionsTotal.Add(1) }
func IncTransitionRejected() { transitionsRejected.Add(1) }
func IncCheckIn()            { checkInsTotal.Add(1) }
func IncIntake()             { intakesTotal.Add(1) }
func IncInvoiceCreated()     { invoicesCreated.Add(1) }
func IncAnnouncement()       { announcementsFired.Add(1) }
func IncNotifierDelivery()   { notifierDeliveries.Add(1) }
func IncNotifierSkip()       { notifierSkips.Add(1) }

func ObserveQueueDepth(depth int) { queueDepth.Store(int64(depth)) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP medloop_visit_transitions_total Number of successful visit transitions since start.\n")
	fmt.Fprintf(w, "# TYPE medloop_visit_transitions_total counter\n")
	fmt.Fprintf(w, "medloop_visit_transitions_total %d\n", transitionsTotal.Load())
	fmt.Fprintf(w, "# HELP medloop_visit_transitions_rejected_total Number of transitions rejected by the state machine.\n")
	fmt.Fprintf(w, "# TYPE medloop_visit_transitions_rejected_total counter\n")
	fmt.Fprintf(w, "medloop_visit_transitions_rejected_total %d\n", transitionsRejected.Load())
	fmt.Fprintf(w, "# HELP medloop_checkins_total Number of appointment check-ins since start.\n")
	fmt.Fprintf(w, "# TYPE medloop_checkins_total counter\n")
	fmt.Fprintf(w, "medloop_checkins_total %d\n", checkInsTotal.Load())
	fmt.Fprintf(w, "# HELP medloop_intakes_total Number of walk-in intakes since start.\n")
	fmt.Fprintf(w, "# TYPE medloop_intakes_total counter\n")
	fmt.Fprintf(w, "medloop_intakes_total %d\n", intakesTotal.Load())
	fmt.Fprintf(w, "# HELP medloop_invoices_created_total Number of invoices created by the completion cascade.\n")
	fmt.Fprintf(w, "# TYPE medloop_invoices_created_total counter\n")
	fmt.Fprintf(w, "medloop_invoices_created_total %d\n", invoicesCreated.Load())
	fmt.Fprintf(w, "# HELP medloop_announcements_total Number of now-serving announcements fired.\n")
	fmt.Fprintf(w, "# TYPE medloop_announcements_total counter\n")
	fmt.Fprintf(w, "medloop_announcements_total %d\n", announcementsFired.Load())
	fmt.Fprintf(w, "# HELP medloop_notifier_deliveries_total Queue snapshots delivered to observers.\n")
	fmt.Fprintf(w, "# TYPE medloop_notifier_deliveries_total counter\n")
	fmt.Fprintf(w, "medloop_notifier_deliveries_total %d\n", notifierDeliveries.Load())
	fmt.Fprintf(w, "# HELP medloop_notifier_skips_total Poll ticks skipped because nothing changed.\n")
	fmt.Fprintf(w, "# TYPE medloop_notifier_skips_total counter\n")
	fmt.Fprintf(w, "medloop_notifier_skips_total %d\n", notifierSkips.Load())
	fmt.Fprintf(w, "# HELP medloop_queue_depth Current number of non-completed visits in the global queue.\n")
	fmt.Fprintf(w, "# TYPE medloop_queue_depth gauge\n")
	fmt.Fprintf(w, "medloop_queue_depth %d\n", queueDepth.Load())
}

func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WritePrometheus(w)
	})
}

package visit

import "errors"

var (
	// ErrInvalidTransition is returned for any status change not present in
	// the transition table, including anything out of completed.
	ErrInvalidTransition = errors.New("invalid visit transition")

	// ErrNoActiveVisit is returned when a transition targets a patient whose
	// current visit slot is an empty placeholder.
	ErrNoActiveVisit = errors.New("patient has no active visit")

	// ErrVisitActive is returned by intake when the patient already has a
	// non-completed visit open.
	ErrVisitActive = errors.New("patient already has an active visit")
)

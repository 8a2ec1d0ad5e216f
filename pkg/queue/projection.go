package queue

import (
	"sort"
	"strings"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
)

type Projector struct {
	rules RulesConfig
}

func NewProjector(rules RulesConfig) *Projector {
	return &Projector{rules: rules}
}

// Project derives the ordered queue one observer sees from the full patient
// set: completed and placeholder visits are dropped, clinic-scoped roles are
// filtered to their assigned clinics (no clinics means an empty queue), and
// the rest is sorted urgent-first, then by arrival date, then by visit id so
// the order is total and stable across polls.
func (p *Projector) Project(patients []models.Patient, role string, clinicIDs []string) []models.QueueEntry {
	return p.project(patients, p.rules.ForRole(role), clinicIDs)
}

// ProjectFull derives the unfiltered queue: every active visit across all
// clinics, real names, no truncation. Internal consumers like the call
// announcer observe this view; it is never served to API callers.
func (p *Projector) ProjectFull(patients []models.Patient) []models.QueueEntry {
	return p.project(patients, RoleRule{}, nil)
}

func (p *Projector) project(patients []models.Patient, rule RoleRule, clinicIDs []string) []models.QueueEntry {
	clinicSet := make(map[string]bool, len(clinicIDs))
	for _, id := range clinicIDs {
		clinicSet[id] = true
	}

	entries := make([]models.QueueEntry, 0, len(patients))
	for _, patient := range patients {
		v := patient.CurrentVisit
		if v.Empty() || v.Status == models.VisitStatusCompleted {
			continue
		}
		if rule.ClinicScoped && !clinicSet[v.ClinicID] {
			continue
		}
		name := patient.Name
		if rule.MaskNames {
			name = maskName(name)
		}
		entries = append(entries, models.QueueEntry{
			PatientID:   patient.ID,
			PatientName: name,
			Visit:       v,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Visit, entries[j].Visit
		if a.Priority != b.Priority {
			return a.Priority == models.PriorityUrgent
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.VisitID < b.VisitID
	})

	if rule.MaxEntries > 0 && len(entries) > rule.MaxEntries {
		entries = entries[:rule.MaxEntries]
	}
	return entries
}

// maskName reduces a full name to first name plus last initial for public
// display surfaces.
func maskName(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return name
	}
	return parts[0] + " " + strings.ToUpper(parts[len(parts)-1][:1]) + "."
}

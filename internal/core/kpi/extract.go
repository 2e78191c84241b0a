// Package kpi derives SLA timings from ticket event logs and aggregates them
// into summaries and calendar-bucketed series.
//
// Every function in this package is pure: results depend only on the
// arguments, no clock is read and no state is shared between calls.
package kpi

import (
	"strings"
	"time"

	"github.com/lorrc/service-desk-kpi/internal/core/domain"
)

const (
	assignmentMarker = "assigned to"
	resolutionMarker = "resolution updated"
)

// ExtractMilestones derives the created, assigned and resolved instants of a
// ticket. Absent data yields nil fields.
func ExtractMilestones(ticket domain.Ticket) domain.Milestones {
	return domain.Milestones{
		Created:  copyTime(ticket.Created),
		Assigned: assignedAt(ticket),
		Resolved: resolvedAt(ticket),
	}
}

func assignedAt(ticket domain.Ticket) *time.Time {
	if ts := firstEvent(ticket.Events, assignmentMarker, domain.RoleUser, domain.RoleSystem); ts != nil {
		return ts
	}
	if ticket.AssignedTo != nil && ticket.AssignedTo.AssignedAt != nil {
		return copyTime(ticket.AssignedTo.AssignedAt)
	}
	// lastUpdated approximates the assignment time once work has started.
	if !ticket.Status.Is(domain.StatusOpen) && ticket.LastUpdated != nil {
		return copyTime(ticket.LastUpdated)
	}
	return nil
}

func resolvedAt(ticket domain.Ticket) *time.Time {
	if ts := firstEvent(ticket.Events, resolutionMarker, domain.RoleResolver); ts != nil {
		return ts
	}
	if ticket.Status.Is(domain.StatusResolved) && ticket.LastUpdated != nil {
		return copyTime(ticket.LastUpdated)
	}
	return nil
}

// firstEvent returns the earliest timestamp among events whose message
// contains marker (case-insensitive) and whose author has one of roles.
// Equal timestamps keep the entry that comes first in the log.
func firstEvent(events []domain.TicketEvent, marker string, roles ...domain.AuthorRole) *time.Time {
	var earliest *time.Time
	for _, ev := range events {
		if ev.Timestamp.IsZero() || !hasRole(ev.AuthorRole, roles) {
			continue
		}
		if !strings.Contains(strings.ToLower(ev.Message), marker) {
			continue
		}
		if earliest == nil || ev.Timestamp.Before(*earliest) {
			ts := ev.Timestamp
			earliest = &ts
		}
	}
	return earliest
}

func hasRole(role domain.AuthorRole, allowed []domain.AuthorRole) bool {
	normalized := domain.AuthorRole(strings.ToLower(strings.TrimSpace(string(role))))
	for _, r := range allowed {
		if normalized == r {
			return true
		}
	}
	return false
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

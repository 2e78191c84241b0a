package kpi

import (
	"time"

	"github.com/lorrc/service-desk-kpi/internal/core/domain"
)

// Classify computes the response and resolution times of a ticket and
// decides whether it breached its SLA.
//
// It returns nil for tickets without an assignee identity; such tickets are
// excluded from every aggregate. A priority missing from rules never
// produces a breach.
func Classify(ticket domain.Ticket, milestones domain.Milestones, rules domain.SLARules) *domain.KPIDetail {
	if !ticket.AssignedTo.HasIdentity() {
		return nil
	}

	detail := &domain.KPIDetail{
		TicketID:         ticket.ID,
		TicketNumber:     ticket.TicketNumber,
		Priority:         domain.NormalizePriority(string(ticket.Priority)),
		Status:           ticket.Status,
		ResponseTimeMs:   elapsedMs(milestones.Created, milestones.Assigned),
		ResolutionTimeMs: elapsedMs(milestones.Assigned, milestones.Resolved),
	}

	rule, ok := rules.Lookup(string(ticket.Priority))
	if !ok {
		return detail
	}

	detail.Breached = exceeds(detail.ResponseTimeMs, rule.ResponseThreshold()) ||
		exceeds(detail.ResolutionTimeMs, rule.ResolutionThreshold())

	return detail
}

func elapsedMs(from, to *time.Time) *int64 {
	if from == nil || to == nil {
		return nil
	}
	ms := to.Sub(*from).Milliseconds()
	return &ms
}

func exceeds(ms *int64, threshold time.Duration) bool {
	return ms != nil && *ms > threshold.Milliseconds()
}

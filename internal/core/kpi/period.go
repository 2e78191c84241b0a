package kpi

import (
	"time"

	"github.com/lorrc/service-desk-kpi/internal/core/domain"
)

// AggregateByPeriod parses spec against now and aggregates tickets into the
// window's buckets. See ParseWindow for the accepted specs.
func AggregateByPeriod(tickets []domain.Ticket, rules domain.SLARules, spec string, now time.Time) ([]domain.TimeBucket, error) {
	window, err := ParseWindow(spec, now)
	if err != nil {
		return nil, err
	}
	return AggregateWindow(tickets, rules, window), nil
}

// AggregateWindow aggregates tickets into each bucket of window by creation
// time. Buckets without tickets carry an empty summary. Tickets without a
// creation time belong to no bucket.
func AggregateWindow(tickets []domain.Ticket, rules domain.SLARules, window Window) []domain.TimeBucket {
	buckets := window.Buckets()
	for i := range buckets {
		buckets[i].Summary = Aggregate(createdWithin(tickets, buckets[i].PeriodStart, buckets[i].PeriodEnd), rules)
	}
	return buckets
}

// SummarizeWindow aggregates the tickets created anywhere within window.
func SummarizeWindow(tickets []domain.Ticket, rules domain.SLARules, window Window) domain.KPISummary {
	start, end := window.Bounds()
	return Aggregate(createdWithin(tickets, start, end), rules)
}

func createdWithin(tickets []domain.Ticket, start, end time.Time) []domain.Ticket {
	var selected []domain.Ticket
	for _, ticket := range tickets {
		if ticket.Created == nil {
			continue
		}
		if !ticket.Created.Before(start) && ticket.Created.Before(end) {
			selected = append(selected, ticket)
		}
	}
	return selected
}

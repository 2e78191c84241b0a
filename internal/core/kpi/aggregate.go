package kpi

import "github.com/lorrc/service-desk-kpi/internal/core/domain"

// Aggregate classifies every ticket and summarizes the assigned ones.
// Averages only consider details that carry a value and are zero when none
// do. Details keep the order of tickets.
func Aggregate(tickets []domain.Ticket, rules domain.SLARules) domain.KPISummary {
	summary := domain.EmptyKPISummary()

	var (
		responseTotal, resolutionTotal int64
		responseN, resolutionN         int
	)

	for _, ticket := range tickets {
		detail := Classify(ticket, ExtractMilestones(ticket), rules)
		if detail == nil {
			continue
		}

		if detail.ResponseTimeMs != nil {
			responseTotal += *detail.ResponseTimeMs
			responseN++
		}
		if detail.ResolutionTimeMs != nil {
			resolutionTotal += *detail.ResolutionTimeMs
			resolutionN++
		}
		if detail.Breached {
			summary.BreachedCount++
		}

		summary.Details = append(summary.Details, *detail)
	}

	summary.Count = len(summary.Details)
	summary.AverageResponseMs = mean(responseTotal, responseN)
	summary.AverageResolutionMs = mean(resolutionTotal, resolutionN)

	return summary
}

func mean(total int64, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

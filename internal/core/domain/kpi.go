package domain

import "time"

// KPIDetail is the per-ticket outcome of SLA classification.
// Durations are in milliseconds; nil means not computable.
type KPIDetail struct {
	TicketID         int64
	TicketNumber     string
	Priority         TicketPriority
	Status           TicketStatus
	ResponseTimeMs   *int64
	ResolutionTimeMs *int64
	Breached         bool
}

// KPISummary aggregates KPI details over a ticket set.
type KPISummary struct {
	Count               int
	AverageResponseMs   float64
	AverageResolutionMs float64
	BreachedCount       int
	Details             []KPIDetail
}

// EmptyKPISummary returns the zeroed summary of an empty ticket set.
func EmptyKPISummary() KPISummary {
	return KPISummary{Details: []KPIDetail{}}
}

// TimeBucket is one period of a chart series. The period is half-open:
// [PeriodStart, PeriodEnd).
type TimeBucket struct {
	Label       string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Summary     KPISummary
}

// Contains reports whether t falls within the bucket's period.
func (b TimeBucket) Contains(t time.Time) bool {
	return !t.Before(b.PeriodStart) && t.Before(b.PeriodEnd)
}

package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lorrc/service-desk-kpi/internal/core/errors"
)

// SLARule holds the response and resolution thresholds for one priority.
type SLARule struct {
	ResponseMinutes   int
	ResolutionMinutes int
}

// ResponseThreshold returns the response threshold as a duration.
func (r SLARule) ResponseThreshold() time.Duration {
	return time.Duration(r.ResponseMinutes) * time.Minute
}

// ResolutionThreshold returns the resolution threshold as a duration.
func (r SLARule) ResolutionThreshold() time.Duration {
	return time.Duration(r.ResolutionMinutes) * time.Minute
}

// SLARules maps a normalized priority to its thresholds.
type SLARules map[TicketPriority]SLARule

// DefaultSLARules returns the canonical rule table. Each call returns a new
// map so callers may modify the result.
func DefaultSLARules() SLARules {
	return SLARules{
		PriorityCritical: {ResponseMinutes: 10, ResolutionMinutes: 60},
		PriorityHigh:     {ResponseMinutes: 60, ResolutionMinutes: 120},
		PriorityMedium:   {ResponseMinutes: 120, ResolutionMinutes: 360},
		PriorityLow:      {ResponseMinutes: 360, ResolutionMinutes: 1440},
	}
}

// Lookup normalizes priority and returns its rule.
func (r SLARules) Lookup(priority string) (SLARule, bool) {
	rule, ok := r[NormalizePriority(priority)]
	return rule, ok
}

// Priorities returns the configured priorities in a stable order.
func (r SLARules) Priorities() []TicketPriority {
	out := make([]TicketPriority, 0, len(r))
	for p := range r {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := r[out[i]], r[out[j]]
		if ri.ResponseMinutes != rj.ResponseMinutes {
			return ri.ResponseMinutes < rj.ResponseMinutes
		}
		return out[i] < out[j]
	})
	return out
}

// Fingerprint returns a canonical string form of the table, suitable for
// cache keys. Equal tables yield equal fingerprints.
func (r SLARules) Fingerprint() string {
	keys := make([]string, 0, len(r))
	for p := range r {
		keys = append(keys, string(p))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		rule := r[TicketPriority(k)]
		parts = append(parts, fmt.Sprintf("%s=%d/%d", k, rule.ResponseMinutes, rule.ResolutionMinutes))
	}
	return strings.Join(parts, ",")
}

// ParseSLARules parses overrides of the form "critical=10/60,high=60/120"
// and merges them over the default table. An empty string yields the
// defaults.
func ParseSLARules(raw string) (SLARules, error) {
	rules := DefaultSLARules()
	if strings.TrimSpace(raw) == "" {
		return rules, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, thresholds, ok := strings.Cut(entry, "=")
		priority := NormalizePriority(name)
		if !ok || priority == "" {
			return nil, fmt.Errorf("%w: entry %q must be priority=response/resolution", apperrors.ErrInvalidSLARules, entry)
		}

		resp, res, ok := strings.Cut(thresholds, "/")
		if !ok {
			return nil, fmt.Errorf("%w: entry %q must be priority=response/resolution", apperrors.ErrInvalidSLARules, entry)
		}

		responseMinutes, err := parseMinutes(resp)
		if err != nil {
			return nil, fmt.Errorf("%w: %s response: %v", apperrors.ErrInvalidSLARules, priority, err)
		}
		resolutionMinutes, err := parseMinutes(res)
		if err != nil {
			return nil, fmt.Errorf("%w: %s resolution: %v", apperrors.ErrInvalidSLARules, priority, err)
		}

		rules[priority] = SLARule{
			ResponseMinutes:   responseMinutes,
			ResolutionMinutes: resolutionMinutes,
		}
	}

	return rules, nil
}

func parseMinutes(raw string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", minutes)
	}
	return minutes, nil
}

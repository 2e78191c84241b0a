package domain_test

import (
	"testing"

	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.TicketPriority
	}{
		{"lowercase unchanged", "high", domain.PriorityHigh},
		{"uppercase folded", "CRITICAL", domain.PriorityCritical},
		{"mixed case with padding", "  Medium ", domain.PriorityMedium},
		{"empty stays empty", "", domain.TicketPriority("")},
		{"unknown kept", "Urgent", domain.TicketPriority("urgent")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizePriority(tt.raw))
		})
	}
}

func TestTicketStatus_Is(t *testing.T) {
	tests := []struct {
		name   string
		status domain.TicketStatus
		other  domain.TicketStatus
		want   bool
	}{
		{"exact match", domain.StatusResolved, domain.StatusResolved, true},
		{"case folded", domain.TicketStatus("resolved"), domain.StatusResolved, true},
		{"padded", domain.TicketStatus(" Open "), domain.StatusOpen, true},
		{"different status", domain.StatusClosed, domain.StatusResolved, false},
		{"empty", domain.TicketStatus(""), domain.StatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Is(tt.other))
		})
	}
}

func TestIssueType_TicketPrefix(t *testing.T) {
	assert.Equal(t, "IN", domain.IssueIncident.TicketPrefix())
	assert.Equal(t, "SR", domain.IssueServiceRequest.TicketPrefix())
	assert.Equal(t, "CR", domain.IssueChangeRequest.TicketPrefix())
	assert.Equal(t, "", domain.IssueType("Problem").TicketPrefix())
}

func TestAssignee_HasIdentity(t *testing.T) {
	var missing *domain.Assignee
	assert.False(t, missing.HasIdentity())
	assert.False(t, (&domain.Assignee{}).HasIdentity())
	assert.False(t, (&domain.Assignee{Email: "  ", Name: ""}).HasIdentity())
	assert.True(t, (&domain.Assignee{Email: "agent@example.com"}).HasIdentity())
	assert.True(t, (&domain.Assignee{Name: "Agent Smith"}).HasIdentity())
}

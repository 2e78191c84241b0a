package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusInProgress TicketStatus = "In Progress"
	StatusResolved   TicketStatus = "Resolved"
	StatusClosed     TicketStatus = "Closed"
	StatusOnHold     TicketStatus = "On Hold"
)

// Is reports whether s names the same status as other, ignoring case and
// surrounding whitespace.
func (s TicketStatus) Is(other TicketStatus) bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(other))
}

func (s TicketStatus) String() string {
	return string(s)
}

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

const (
	PriorityCritical TicketPriority = "critical"
	PriorityHigh     TicketPriority = "high"
	PriorityMedium   TicketPriority = "medium"
	PriorityLow      TicketPriority = "low"
)

// NormalizePriority trims and lowercases a raw priority string.
func NormalizePriority(raw string) TicketPriority {
	return TicketPriority(strings.ToLower(strings.TrimSpace(raw)))
}

// IssueType classifies a ticket and determines its number prefix.
type IssueType string

const (
	IssueIncident       IssueType = "Incident"
	IssueServiceRequest IssueType = "Service Request"
	IssueChangeRequest  IssueType = "Change Request"
)

// TicketPrefix returns the ticket number prefix for the issue type, or an
// empty string for unknown types.
func (t IssueType) TicketPrefix() string {
	switch t {
	case IssueIncident:
		return "IN"
	case IssueServiceRequest:
		return "SR"
	case IssueChangeRequest:
		return "CR"
	default:
		return ""
	}
}

// AuthorRole identifies who wrote an entry in a ticket's event log.
type AuthorRole string

const (
	RoleUser     AuthorRole = "user"
	RoleSystem   AuthorRole = "system"
	RoleResolver AuthorRole = "resolver"
	RoleClient   AuthorRole = "client"
)

// TicketEvent is one entry of a ticket's append-only comment/event log.
type TicketEvent struct {
	Message    string
	Timestamp  time.Time
	AuthorRole AuthorRole
}

// Assignee is the contact a ticket is assigned to.
type Assignee struct {
	Email      string
	Name       string
	AssignedAt *time.Time
}

// HasIdentity reports whether the assignee can be resolved to a contact.
func (a *Assignee) HasIdentity() bool {
	if a == nil {
		return false
	}
	return strings.TrimSpace(a.Email) != "" || strings.TrimSpace(a.Name) != ""
}

// Ticket is the read-only view of a ticket used for reporting.
// Optional instants are nil when the source record does not carry them.
type Ticket struct {
	ID           int64
	TicketNumber string
	ProjectID    *uuid.UUID
	Priority     TicketPriority
	Status       TicketStatus
	Created      *time.Time
	LastUpdated  *time.Time
	AssignedTo   *Assignee
	Events       []TicketEvent
}

// Milestones are the instants derived from a ticket's fields and event log.
type Milestones struct {
	Created  *time.Time
	Assigned *time.Time
	Resolved *time.Time
}

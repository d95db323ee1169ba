package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

var ticketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed}

var ticketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical}

// TicketStatuses lists the lifecycle in order.
func TicketStatuses() []TicketStatus {
	return append([]TicketStatus(nil), ticketStatuses...)
}

// TicketPriorities lists priorities from lowest to highest.
func TicketPriorities() []TicketPriority {
	return append([]TicketPriority(nil), ticketPriorities...)
}

// ParseTicketStatus matches a status name, ignoring case and separators
// ("in_progress", "In Progress" and "InProgress" are the same state).
func ParseTicketStatus(value string) (TicketStatus, bool) {
	normalized := normalizeEnum(value)
	for _, status := range ticketStatuses {
		if normalizeEnum(string(status)) == normalized {
			return status, true
		}
	}
	return "", false
}

// ParseTicketPriority matches a priority name case-insensitively.
func ParseTicketPriority(value string) (TicketPriority, bool) {
	normalized := normalizeEnum(value)
	for _, priority := range ticketPriorities {
		if normalizeEnum(string(priority)) == normalized {
			return priority, true
		}
	}
	return "", false
}

func normalizeEnum(value string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(value)))
}

// forwardTransitions lists the single forward step out of each state.
// Closed is reachable from every non-terminal state.
var forwardTransitions = map[TicketStatus]TicketStatus{
	TicketStatusOpen:       TicketStatusInProgress,
	TicketStatusInProgress: TicketStatusResolved,
	TicketStatusResolved:   TicketStatusClosed,
}

// CanTransition reports whether a ticket may move from current to next.
// Staying in a non-terminal state is allowed so the assignee can change alone.
func CanTransition(current, next TicketStatus) bool {
	if current == TicketStatusClosed {
		return false
	}
	if next == TicketStatusClosed || next == current {
		return true
	}
	return forwardTransitions[current] == next
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID               string
	TicketNumber     string
	CompanyID        string
	CreatedByUserID  string
	AssignedToUserID *string
	Title            string
	Description      string
	TicketTypeID     string
	CategoryID       *string
	ModuleID         *string
	Status           TicketStatus
	Priority         TicketPriority
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TicketView is a ticket joined with the display names of its references.
type TicketView struct {
	Ticket
	CompanyName    string
	CreatedByName  string
	AssignedToName *string
	TicketTypeName *string
	CategoryName   *string
	ModuleName     *string
}

// TicketNumberPrefix is the per-month prefix shared by ticket numbers, e.g. "TK-2024-08-".
func TicketNumberPrefix(at time.Time) string {
	return fmt.Sprintf("TK-%04d-%02d-", at.Year(), int(at.Month()))
}

// FormatTicketNumber renders TK-{year}-{month}-{sequence}, e.g. TK-2024-08-001.
func FormatTicketNumber(at time.Time, sequence int) string {
	return fmt.Sprintf("%s%03d", TicketNumberPrefix(at), sequence)
}

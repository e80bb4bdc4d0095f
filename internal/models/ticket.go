package models

import "time"

// TicketStatus is the resolution state of a support ticket.
type TicketStatus string

const (
	TicketPending    TicketStatus = "pending"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketPending, TicketInProgress, TicketResolved:
		return true
	}
	return false
}

// Policy warning codes attached to permissive ticket transitions.
const (
	WarningResolvedWithoutResponse = "RESOLVED_WITHOUT_RESPONSE"
)

// SupportTicket is a user-submitted support request handled by staff.
type SupportTicket struct {
	ID            string       `db:"id" json:"id"`
	UserID        string       `db:"user_id" json:"user_id"`
	Category      string       `db:"category" json:"category"`
	Subject       string       `db:"subject" json:"subject"`
	Message       string       `db:"message" json:"message"`
	Status        TicketStatus `db:"status" json:"status"`
	AdminResponse *string      `db:"admin_response" json:"admin_response,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// HasResponse reports whether a non-blank administrator response is stored.
func (t *SupportTicket) HasResponse() bool {
	return t != nil && t.AdminResponse != nil && trimmed(*t.AdminResponse) != ""
}

// TicketFilter constrains ticket listings.
type TicketFilter struct {
	Status   *TicketStatus
	UserID   string
	Page     int
	PageSize int
}

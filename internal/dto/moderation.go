package dto

import (
	"time"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

// SubmitOverrideRequest sets the administrator score for a user.
// Score range is checked by the service so it can answer with INVALID_SCORE.
type SubmitOverrideRequest struct {
	Score   int     `json:"score"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// CreateSessionRequest books a session between a student and a tutor.
type CreateSessionRequest struct {
	StudentID      string    `json:"student_id" validate:"required"`
	TutorID        string    `json:"tutor_id" validate:"required,nefield=StudentID"`
	Subject        string    `json:"subject" validate:"required,max=255"`
	ScheduledStart time.Time `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
}

// TransitionSessionRequest moves a session to a new lifecycle state.
type TransitionSessionRequest struct {
	Status models.SessionStatus `json:"status" validate:"required"`
	Reason *string              `json:"reason" validate:"omitempty,max=1000"`
}

// SessionPartyRequest names the side of the session raising a flag.
type SessionPartyRequest struct {
	Party models.SessionParty `json:"party" validate:"required,oneof=student tutor"`
}

// AttachRatingRequest records a peer rating for a closed session.
type AttachRatingRequest struct {
	RaterID  string  `json:"rater_id" validate:"required"`
	TargetID string  `json:"target_id" validate:"required"`
	Score    int     `json:"score"`
	Comment  *string `json:"comment" validate:"omitempty,max=2000"`
	Visible  *bool   `json:"visible"`
}

// SetRatingVisibilityRequest hides or restores a rating.
type SetRatingVisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// CreateTicketRequest opens a support ticket on behalf of a user.
type CreateTicketRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Category string `json:"category" validate:"required,max=64"`
	Subject  string `json:"subject" validate:"required,max=255"`
	Message  string `json:"message" validate:"required"`
}

// TransitionTicketRequest moves a ticket and optionally replaces the staff response.
type TransitionTicketRequest struct {
	Status   models.TicketStatus `json:"status" validate:"required"`
	Response *string             `json:"response"`
}

// TicketTransitionResult is the ticket after a transition plus any policy warnings.
type TicketTransitionResult struct {
	Ticket        *models.SupportTicket `json:"ticket"`
	PolicyWarning bool                  `json:"policy_warning"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// SoftDeleteResult reports the outcome of an account deletion.
type SoftDeleteResult struct {
	UserID         string `json:"user_id"`
	AlreadyDeleted bool   `json:"already_deleted"`
}

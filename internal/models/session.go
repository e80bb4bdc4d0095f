package models

import "time"

// SessionStatus is the lifecycle state of a tutoring session.
type SessionStatus string

const (
	SessionPending       SessionStatus = "PENDING"
	SessionConfirmed     SessionStatus = "CONFIRMED"
	SessionPendingRating SessionStatus = "PENDING_RATING"
	SessionDisputed      SessionStatus = "DISPUTED"
	SessionClosed        SessionStatus = "CLOSED"
	SessionCancelled     SessionStatus = "CANCELLED"
)

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionConfirmed, SessionPendingRating, SessionDisputed, SessionClosed, SessionCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
// DISPUTED is terminal here; resolving a dispute is an administrative action elsewhere.
func (s SessionStatus) Terminal() bool {
	return s == SessionDisputed || s == SessionClosed || s == SessionCancelled
}

// SessionParty identifies one side of a session.
type SessionParty string

const (
	PartyStudent SessionParty = "student"
	PartyTutor   SessionParty = "tutor"
)

// Session is a single tutoring engagement between a student and a tutor.
type Session struct {
	ID                  string        `db:"id" json:"id"`
	StudentID           string        `db:"student_id" json:"student_id"`
	TutorID             string        `db:"tutor_id" json:"tutor_id"`
	Subject             string        `db:"subject" json:"subject"`
	ScheduledStart      time.Time     `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd        time.Time     `db:"scheduled_end" json:"scheduled_end"`
	Status              SessionStatus `db:"status" json:"status"`
	StudentAcknowledged bool          `db:"student_acknowledged" json:"student_acknowledged"`
	TutorAcknowledged   bool          `db:"tutor_acknowledged" json:"tutor_acknowledged"`
	StudentCompleted    bool          `db:"student_completed" json:"student_completed"`
	TutorCompleted      bool          `db:"tutor_completed" json:"tutor_completed"`
	Reason              *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID is the student or tutor of the session.
func (s *Session) HasParticipant(userID string) bool {
	return userID != "" && (s.StudentID == userID || s.TutorID == userID)
}

// SessionFilter constrains session listings.
type SessionFilter struct {
	Status   *SessionStatus
	UserID   string
	Page     int
	PageSize int
}

package service

import (
	"strings"
	"time"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
)

// DefaultSessionCloseGrace is how long after the scheduled end a session may be closed
// without both completion confirmations.
const DefaultSessionCloseGrace = 72 * time.Hour

var sessionEdges = map[models.SessionStatus][]models.SessionStatus{
	models.SessionPending:       {models.SessionConfirmed, models.SessionDisputed, models.SessionCancelled},
	models.SessionConfirmed:     {models.SessionPendingRating, models.SessionDisputed, models.SessionCancelled},
	models.SessionPendingRating: {models.SessionClosed, models.SessionDisputed, models.SessionCancelled},
}

// validateTransitionInput rejects requests that are malformed regardless of session state.
func validateTransitionInput(target models.SessionStatus, reason *string) error {
	if !target.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown session status "+string(target))
	}
	if target == models.SessionDisputed && (reason == nil || strings.TrimSpace(*reason) == "") {
		return appErrors.Clone(appErrors.ErrValidation, "a reason is required to dispute a session")
	}
	return nil
}

// CheckSessionTransition decides whether session may move to target at now. It does not
// touch the store; the caller persists the result with a compare-and-set on the status.
func CheckSessionTransition(session *models.Session, target models.SessionStatus, reason *string, now time.Time, closeGrace time.Duration) error {
	if err := validateTransitionInput(target, reason); err != nil {
		return err
	}
	from := session.Status
	if from.Terminal() {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "session is "+string(from)+" and cannot change state")
	}
	if !edgeAllowed(from, target) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move session from "+string(from)+" to "+string(target))
	}

	switch target {
	case models.SessionConfirmed:
		if !session.StudentAcknowledged || !session.TutorAcknowledged {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "both parties must acknowledge the session")
		}
	case models.SessionPendingRating:
		if now.Before(session.ScheduledEnd) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "session has not reached its scheduled end")
		}
	case models.SessionClosed:
		bothCompleted := session.StudentCompleted && session.TutorCompleted
		graceElapsed := !now.Before(session.ScheduledEnd.Add(closeGrace))
		if !bothCompleted && !graceElapsed {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "session needs both completion confirmations or the close grace period to elapse")
		}
	}
	return nil
}

func edgeAllowed(from, to models.SessionStatus) bool {
	for _, candidate := range sessionEdges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreInRange(t *testing.T) {
	for score, want := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -1: false} {
		assert.Equal(t, want, ScoreInRange(score), "score %d", score)
	}
}

func TestSessionStatus(t *testing.T) {
	assert.True(t, SessionPendingRating.Valid())
	assert.False(t, SessionStatus("ARCHIVED").Valid())
	assert.False(t, SessionStatus("pending").Valid())

	assert.False(t, SessionPending.Terminal())
	assert.False(t, SessionConfirmed.Terminal())
	assert.False(t, SessionPendingRating.Terminal())
	assert.True(t, SessionDisputed.Terminal())
	assert.True(t, SessionClosed.Terminal())
	assert.True(t, SessionCancelled.Terminal())
}

func TestSessionHasParticipant(t *testing.T) {
	session := &Session{StudentID: "s-1", TutorID: "t-1"}
	assert.True(t, session.HasParticipant("s-1"))
	assert.True(t, session.HasParticipant("t-1"))
	assert.False(t, session.HasParticipant("x-1"))
	assert.False(t, session.HasParticipant(""))
}

func TestTicketHasResponse(t *testing.T) {
	blank := "   "
	answer := "refund issued"

	var missing *SupportTicket
	assert.False(t, missing.HasResponse())
	assert.False(t, (&SupportTicket{}).HasResponse())
	assert.False(t, (&SupportTicket{AdminResponse: &blank}).HasResponse())
	assert.True(t, (&SupportTicket{AdminResponse: &answer}).HasResponse())
	assert.False(t, TicketStatus("open").Valid())
}

func TestUserIsDeleted(t *testing.T) {
	now := time.Now()
	assert.False(t, (&User{Active: false}).IsDeleted())
	assert.True(t, (&User{DeletedAt: &now}).IsDeleted())
}

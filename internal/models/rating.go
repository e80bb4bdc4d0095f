package models

import "time"

const (
	MinScore = 1
	MaxScore = 5
)

// ScoreInRange reports whether score is an accepted rating or override value.
func ScoreInRange(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Rating is a peer rating from one session participant to the other.
type Rating struct {
	ID           string    `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	RaterID      string    `db:"rater_id" json:"rater_id"`
	TargetUserID string    `db:"target_user_id" json:"target_user_id"`
	Score        int       `db:"score" json:"score"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	Visible      bool      `db:"visible" json:"visible"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RatingSummary aggregates the visible ratings targeting one user.
type RatingSummary struct {
	Count   int     `db:"rating_count" json:"count"`
	Average float64 `db:"average" json:"average"`
}

// AdminOverride is the single administrator-assigned score for a user.
type AdminOverride struct {
	ID           string    `db:"id" json:"id"`
	TargetUserID string    `db:"target_user_id" json:"target_user_id"`
	Score        int       `db:"score" json:"score"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	CreatedBy    *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WeightedScore is the derived reputation of a user. It is never persisted.
//
// PeerAverage is 0 when RatingCount is 0; callers must read RatingCount to tell
// "no signal" apart from a real average.
type WeightedScore struct {
	UserID        string  `json:"user_id"`
	PeerAverage   float64 `json:"peer_average"`
	RatingCount   int     `json:"rating_count"`
	OverrideScore *int    `json:"override_score"`
	FinalScore    float64 `json:"final_score"`
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

const ratingColumns = `id, session_id, rater_id, target_user_id, score, comment, visible, created_at, updated_at`

// RatingRepository is the append-only store of peer ratings.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository constructs a RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create inserts a rating. A second rating for the same (rater, target, session) fails with
// ErrDuplicate through the table's unique constraint.
func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = rating.CreatedAt

	const query = `INSERT INTO ratings (id, session_id, rater_id, target_user_id, score, comment, visible, created_at, updated_at)
		VALUES (:id, :session_id, :rater_id, :target_user_id, :score, :comment, :visible, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return translate(err, "create rating")
	}
	return nil
}

// SummaryForTarget returns the count and mean of visible ratings targeting the user.
// The mean is 0 when there are no ratings.
func (r *RatingRepository) SummaryForTarget(ctx context.Context, targetUserID string) (*models.RatingSummary, error) {
	const query = `SELECT COUNT(*) AS rating_count, COALESCE(AVG(score), 0)::float8 AS average FROM ratings WHERE target_user_id = $1 AND visible`
	var summary models.RatingSummary
	if err := r.db.GetContext(ctx, &summary, query, targetUserID); err != nil {
		return nil, fmt.Errorf("summarize ratings: %w", err)
	}
	return &summary, nil
}

// ListByTarget returns ratings targeting the user, newest first.
func (r *RatingRepository) ListByTarget(ctx context.Context, targetUserID string, includeHidden bool) ([]models.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE target_user_id = $1`
	if !includeHidden {
		query += ` AND visible`
	}
	query += ` ORDER BY created_at DESC`

	var ratings []models.Rating
	if err := r.db.SelectContext(ctx, &ratings, query, targetUserID); err != nil {
		return nil, fmt.Errorf("list ratings by target: %w", err)
	}
	return ratings, nil
}

// SetVisibility toggles whether a rating counts toward reputation and returns the updated row.
func (r *RatingRepository) SetVisibility(ctx context.Context, id string, visible bool, at time.Time) (*models.Rating, error) {
	query := `UPDATE ratings SET visible = $2, updated_at = $3 WHERE id = $1 RETURNING ` + ratingColumns
	var rating models.Rating
	if err := r.db.QueryRowxContext(ctx, query, id, visible, at).StructScan(&rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("set rating visibility: %w", err)
	}
	return &rating, nil
}

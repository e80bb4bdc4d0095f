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

// OverrideRepository persists the single administrator override per user.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs an OverrideRepository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// FindByTarget returns the committed override row for the user.
func (r *OverrideRepository) FindByTarget(ctx context.Context, targetUserID string) (*models.AdminOverride, error) {
	const query = `SELECT id, target_user_id, score, comment, created_by, created_at, updated_at FROM admin_overrides WHERE target_user_id = $1`
	var override models.AdminOverride
	if err := r.db.GetContext(ctx, &override, query, targetUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find override by target: %w", err)
	}
	return &override, nil
}

// Upsert inserts the override or, when one already exists for the target, updates it in
// the same statement. Concurrent callers never produce a second row; the last writer wins.
// The stored id and created_at are written back into override.
func (r *OverrideRepository) Upsert(ctx context.Context, override *models.AdminOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if override.UpdatedAt.IsZero() {
		override.UpdatedAt = now
	}

	const query = `INSERT INTO admin_overrides (id, target_user_id, score, comment, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (target_user_id) DO UPDATE
		SET score = EXCLUDED.score,
		    comment = EXCLUDED.comment,
		    created_by = EXCLUDED.created_by,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		override.ID,
		override.TargetUserID,
		override.Score,
		override.Comment,
		override.CreatedBy,
		override.UpdatedAt,
	)
	if err := row.Scan(&override.ID, &override.CreatedAt, &override.UpdatedAt); err != nil {
		return translate(err, "upsert override")
	}
	return nil
}

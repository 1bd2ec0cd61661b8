package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgShareRepository struct {
	pool *pgxpool.Pool
}

func NewShareRepository(pool *pgxpool.Pool) ShareRepository {
	return &pgShareRepository{pool: pool}
}

const shareColumns = `id, estimation_id, user_id, email, status, role,
	last_accessed_at, reminder_sent_at, created_at, updated_at`

// isUniqueViolation matches the partial unique indexes on
// (estimation_id, user_id) and (estimation_id, lower(email)).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *pgShareRepository) Create(ctx context.Context, share *Share) error {
	query := `
		INSERT INTO shares (estimation_id, user_id, email, status, role)
		VALUES ($1, $2, LOWER(TRIM($3)), $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		share.EstimationID, share.UserID, share.Email, share.Status, share.Role,
	).Scan(&share.ID, &share.CreatedAt, &share.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateShare
	}
	return err
}

func (r *pgShareRepository) FindByID(ctx context.Context, id string) (*Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE id = $1`
	return scanShare(r.pool.QueryRow(ctx, query, id))
}

func (r *pgShareRepository) FindByEstimation(ctx context.Context, estimationID string) ([]*Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE estimation_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, estimationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShares(rows)
}

func (r *pgShareRepository) FindActiveByUser(ctx context.Context, estimationID, userID string) (*Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares
		WHERE estimation_id = $1 AND user_id = $2 AND status = 'active'`
	return scanShare(r.pool.QueryRow(ctx, query, estimationID, userID))
}

func (r *pgShareRepository) FindByEmail(ctx context.Context, estimationID, email string) (*Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares
		WHERE estimation_id = $1 AND LOWER(email) = LOWER(TRIM($2))`
	return scanShare(r.pool.QueryRow(ctx, query, estimationID, email))
}

func (r *pgShareRepository) FindPendingByEmail(ctx context.Context, email string) ([]*Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares
		WHERE status = 'pending' AND LOWER(email) = LOWER(TRIM($1))`
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShares(rows)
}

func (r *pgShareRepository) Activate(ctx context.Context, id, userID string) (bool, error) {
	// The status guard makes repeated sweeps no-ops and an active share can
	// never revert to pending.
	tag, err := r.pool.Exec(ctx, `
		UPDATE shares
		SET user_id = $2, email = NULL, status = 'active', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, userID)
	if isUniqueViolation(err) {
		return false, ErrDuplicateShare
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgShareRepository) UpdateRole(ctx context.Context, id string, role ShareRole) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE shares SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	return err
}

func (r *pgShareRepository) TouchAccess(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE shares SET last_accessed_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *pgShareRepository) MarkReminderSent(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE shares SET reminder_sent_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *pgShareRepository) FindStalePending(ctx context.Context, olderThan time.Time) ([]*Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares
		WHERE status = 'pending' AND created_at < $1
		  AND (reminder_sent_at IS NULL OR reminder_sent_at < $1)`
	rows, err := r.pool.Query(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShares(rows)
}

func (r *pgShareRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM shares WHERE id = $1`, id)
	return err
}

func (r *pgShareRepository) TransferOwnership(ctx context.Context, estimationID, newOwnerID, consumedShareID, formerOwnerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE estimations SET owner_id = $2, updated_at = NOW() WHERE id = $1`,
		estimationID, newOwnerID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM shares WHERE id = $1`, consumedShareID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO shares (estimation_id, user_id, status, role)
		VALUES ($1, $2, 'active', 'viewer')
	`, estimationID, formerOwnerID); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateShare
		}
		return err
	}

	return tx.Commit(ctx)
}

func scanShare(row pgx.Row) (*Share, error) {
	s := &Share{}
	err := row.Scan(
		&s.ID, &s.EstimationID, &s.UserID, &s.Email, &s.Status, &s.Role,
		&s.LastAccessedAt, &s.ReminderSentAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func collectShares(rows pgx.Rows) ([]*Share, error) {
	var shares []*Share
	for rows.Next() {
		s := &Share{}
		if err := rows.Scan(
			&s.ID, &s.EstimationID, &s.UserID, &s.Email, &s.Status, &s.Role,
			&s.LastAccessedAt, &s.ReminderSentAt, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

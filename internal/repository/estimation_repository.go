package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgEstimationRepository struct {
	pool *pgxpool.Pool
}

func NewEstimationRepository(pool *pgxpool.Pool) EstimationRepository {
	return &pgEstimationRepository{pool: pool}
}

const estimationColumns = `id, title, owner_id, tracking, public_token, created_at, updated_at`

func (r *pgEstimationRepository) Create(ctx context.Context, est *Estimation) error {
	query := `
		INSERT INTO estimations (title, owner_id, tracking, public_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		est.Title, est.OwnerID, est.Tracking, est.PublicToken,
	).Scan(&est.ID, &est.CreatedAt, &est.UpdatedAt)
}

func (r *pgEstimationRepository) FindByID(ctx context.Context, id string) (*Estimation, error) {
	query := `SELECT ` + estimationColumns + ` FROM estimations WHERE id = $1`
	return scanEstimation(r.pool.QueryRow(ctx, query, id))
}

func (r *pgEstimationRepository) FindByOwner(ctx context.Context, ownerID string) ([]*Estimation, error) {
	query := `SELECT ` + estimationColumns + ` FROM estimations WHERE owner_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEstimations(rows)
}

func (r *pgEstimationRepository) FindSharedWithUser(ctx context.Context, userID string) ([]*Estimation, error) {
	query := `
		SELECT e.id, e.title, e.owner_id, e.tracking, e.public_token, e.created_at, e.updated_at
		FROM estimations e
		JOIN shares s ON s.estimation_id = e.id
		WHERE s.user_id = $1 AND s.status = 'active'
		ORDER BY e.created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEstimations(rows)
}

func (r *pgEstimationRepository) FindByPublicToken(ctx context.Context, token string) (*Estimation, error) {
	query := `SELECT ` + estimationColumns + ` FROM estimations WHERE public_token = $1`
	return scanEstimation(r.pool.QueryRow(ctx, query, token))
}

func (r *pgEstimationRepository) Update(ctx context.Context, est *Estimation) error {
	query := `
		UPDATE estimations
		SET title = $2, tracking = $3, public_token = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		est.ID, est.Title, est.Tracking, est.PublicToken,
	).Scan(&est.UpdatedAt)
}

func (r *pgEstimationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM estimations WHERE id = $1`, id)
	return err
}

func scanEstimation(row pgx.Row) (*Estimation, error) {
	est := &Estimation{}
	err := row.Scan(
		&est.ID, &est.Title, &est.OwnerID, &est.Tracking, &est.PublicToken,
		&est.CreatedAt, &est.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return est, nil
}

func collectEstimations(rows pgx.Rows) ([]*Estimation, error) {
	var ests []*Estimation
	for rows.Next() {
		est := &Estimation{}
		if err := rows.Scan(
			&est.ID, &est.Title, &est.OwnerID, &est.Tracking, &est.PublicToken,
			&est.CreatedAt, &est.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ests = append(ests, est)
	}
	return ests, rows.Err()
}

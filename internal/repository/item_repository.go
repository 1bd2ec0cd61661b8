package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &pgItemRepository{pool: pool}
}

const itemColumns = `id, estimation_id, title, value, quantity, actual, order_key, fixed, created_at, updated_at`

func (r *pgItemRepository) Create(ctx context.Context, item *EstimationItem) error {
	query := `
		INSERT INTO estimation_items (estimation_id, title, value, quantity, actual, order_key, fixed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		item.EstimationID, item.Title, item.Value, item.Quantity,
		item.Actual, item.OrderKey, item.Fixed,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *pgItemRepository) FindByID(ctx context.Context, id string) (*EstimationItem, error) {
	query := `SELECT ` + itemColumns + ` FROM estimation_items WHERE id = $1`
	item := &EstimationItem{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.EstimationID, &item.Title, &item.Value, &item.Quantity,
		&item.Actual, &item.OrderKey, &item.Fixed, &item.CreatedAt, &item.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *pgItemRepository) FindByEstimation(ctx context.Context, estimationID string) ([]*EstimationItem, error) {
	// id is the stable tiebreak so iteration stays deterministic on
	// duplicate keys.
	query := `SELECT ` + itemColumns + ` FROM estimation_items
		WHERE estimation_id = $1 ORDER BY order_key, id`
	rows, err := r.pool.Query(ctx, query, estimationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*EstimationItem
	for rows.Next() {
		item := &EstimationItem{}
		if err := rows.Scan(
			&item.ID, &item.EstimationID, &item.Title, &item.Value, &item.Quantity,
			&item.Actual, &item.OrderKey, &item.Fixed, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *pgItemRepository) MaxOrderKey(ctx context.Context, estimationID string) (float64, bool, error) {
	var max *float64
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(order_key) FROM estimation_items WHERE estimation_id = $1`,
		estimationID,
	).Scan(&max)
	if err != nil {
		return 0, false, err
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

func (r *pgItemRepository) Update(ctx context.Context, item *EstimationItem) error {
	query := `
		UPDATE estimation_items
		SET title = $2, value = $3, quantity = $4, actual = $5, fixed = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		item.ID, item.Title, item.Value, item.Quantity, item.Actual, item.Fixed,
	).Scan(&item.UpdatedAt)
}

func (r *pgItemRepository) UpdateOrderKey(ctx context.Context, id string, key float64) error {
	// Last write wins per row; concurrent reorders are not serialized here.
	_, err := r.pool.Exec(ctx,
		`UPDATE estimation_items SET order_key = $2, updated_at = NOW() WHERE id = $1`,
		id, key)
	return err
}

func (r *pgItemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM estimation_items WHERE id = $1`, id)
	return err
}

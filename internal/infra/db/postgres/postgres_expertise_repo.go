package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
)

var _ repository.ExpertiseRepository = (*PostgresExpertiseRepo)(nil)

type PostgresExpertiseRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresExpertiseRepo(pool *pgxpool.Pool) *PostgresExpertiseRepo {
	return &PostgresExpertiseRepo{pool: pool}
}

func (r *PostgresExpertiseRepo) List(ctx context.Context, tx repository.Tx) ([]model.Option, error) {
	rows, err := pickRows(ctx, r.pool, tx, `SELECT id, label FROM expertise_areas ORDER BY label;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.Label); err != nil {
			return nil, fmt.Errorf("scan expertise: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

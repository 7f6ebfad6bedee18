package routes

import (
	"context"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exported(ctx context.Context, entity, recordID, routingKey string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM export_routes
		 WHERE entity = $1 AND record_id = $2 AND routing_key = $3)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, entity, recordID, routingKey).Scan(&ok); err != nil {
		return false, common.StorageError(err)
	}
	return ok, nil
}

func (r *PostgresRepository) List(ctx context.Context, entity, recordID string) ([]string, error) {
	query :=
		`SELECT routing_key FROM export_routes
		 WHERE entity = $1 AND record_id = $2
		 ORDER BY routing_key`

	rows, err := r.db.QueryContext(ctx, query, entity, recordID)
	if err != nil {
		return nil, common.StorageError(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, common.StorageError(err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError(err)
	}
	return out, nil
}

func (r *PostgresRepository) Mark(ctx context.Context, entity, recordID, routingKey string) error {
	query :=
		`INSERT INTO export_routes (entity, record_id, routing_key)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (entity, record_id, routing_key) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, entity, recordID, routingKey); err != nil {
		return common.StorageError(err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, entity, recordID string) error {
	query :=
		`DELETE FROM export_routes
		 WHERE entity = $1 AND record_id = $2`

	if _, err := r.db.ExecContext(ctx, query, entity, recordID); err != nil {
		return common.StorageError(err)
	}
	return nil
}

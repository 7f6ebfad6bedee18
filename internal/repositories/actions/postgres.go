package actions

import (
	"context"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, a *models.Action) (bool, error) {
	query :=
		`INSERT INTO actions (action_id, credit_id, action_at, task, action_type, note, party_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (action_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, a.ActionID, a.CreditID, a.ActionAt,
		dbx.NullString(a.Task), dbx.NullString(a.ActionType), dbx.NullString(a.Note), dbx.NullString(a.PartyName))
	if err != nil {
		return false, common.StorageError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.StorageError(err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListPendingSource(ctx context.Context) ([]*models.Action, error) {
	query :=
		`SELECT action_id, credit_id, action_at, task, action_type, note, party_name, source_status, registered_at
		 FROM actions
		 WHERE source_status = 'pending'
		 ORDER BY action_at, action_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StorageError(err)
	}
	defer rows.Close()

	var out []*models.Action
	for rows.Next() {
		a := &models.Action{}
		var status string
		if err := rows.Scan(&a.ActionID, &a.CreditID, &a.ActionAt, dbx.Text{S: &a.Task}, dbx.Text{S: &a.ActionType},
			dbx.Text{S: &a.Note}, dbx.Text{S: &a.PartyName}, &status, &a.RegisteredAt); err != nil {
			return nil, common.StorageError(err)
		}
		a.SourceStatus = models.ExportStatus(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError(err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkSourceExported(ctx context.Context, actionID string) error {
	query :=
		`UPDATE actions SET source_status = 'exported'
		 WHERE action_id = $1`

	if _, err := r.db.ExecContext(ctx, query, actionID); err != nil {
		return common.StorageError(err)
	}
	return nil
}

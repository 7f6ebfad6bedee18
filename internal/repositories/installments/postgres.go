package installments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/models"
)

const selectQuery = `SELECT credit_id, interest_balance, arrears_balance, other_balance, fee_balance, overdue_balance,
		 due_today, snapshot_at, registered_at, source_status, fingerprint, updated_at
		 FROM installments`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Installment, error) {
	i := &models.Installment{}
	var status string
	err := row.Scan(&i.CreditID, &i.InterestBalance, &i.ArrearsBalance, &i.OtherBalance, &i.FeeBalance, &i.OverdueBalance,
		&i.DueToday, dbx.Date{T: &i.SnapshotAt}, dbx.Date{T: &i.RegisteredAt}, &status, &i.Hash, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.SourceStatus = models.ExportStatus(status)
	return i, nil
}

func (r *PostgresRepository) Get(ctx context.Context, creditID string) (*models.Installment, error) {
	return r.get(ctx, selectQuery+` WHERE credit_id = $1`, creditID)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, creditID string) (*models.Installment, error) {
	return r.get(ctx, selectQuery+` WHERE credit_id = $1 FOR UPDATE`, creditID)
}

func (r *PostgresRepository) get(ctx context.Context, query, creditID string) (*models.Installment, error) {
	i, err := scan(r.db.QueryRowContext(ctx, query, creditID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError(err)
	}
	return i, nil
}

// Insert stores a new snapshot as pending for the Source push-back.
func (r *PostgresRepository) Insert(ctx context.Context, i *models.Installment) error {
	query :=
		`INSERT INTO installments (credit_id, interest_balance, arrears_balance, other_balance, fee_balance, overdue_balance,
		 due_today, snapshot_at, registered_at, source_status, fingerprint)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10)`

	i.SourceStatus = models.StatusPending
	i.Hash = i.Fingerprint()

	_, err := r.db.ExecContext(ctx, query, i.CreditID, i.InterestBalance, i.ArrearsBalance, i.OtherBalance, i.FeeBalance,
		i.OverdueBalance, i.DueToday, dbx.NullTime(i.SnapshotAt), dbx.NullTime(i.RegisteredAt), i.Hash)
	if err != nil {
		return common.StorageError(err)
	}
	return nil
}

// Update overwrites the snapshot and puts it back to pending.
func (r *PostgresRepository) Update(ctx context.Context, i *models.Installment) error {
	query :=
		`UPDATE installments SET interest_balance = $2, arrears_balance = $3, other_balance = $4, fee_balance = $5,
		 overdue_balance = $6, due_today = $7, snapshot_at = $8, registered_at = $9,
		 source_status = 'pending', fingerprint = $10, updated_at = now()
		 WHERE credit_id = $1`

	i.SourceStatus = models.StatusPending
	i.Hash = i.Fingerprint()

	res, err := r.db.ExecContext(ctx, query, i.CreditID, i.InterestBalance, i.ArrearsBalance, i.OtherBalance, i.FeeBalance,
		i.OverdueBalance, i.DueToday, dbx.NullTime(i.SnapshotAt), dbx.NullTime(i.RegisteredAt), i.Hash)
	if err != nil {
		return common.StorageError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListPendingSource(ctx context.Context) ([]*models.Installment, error) {
	return r.list(ctx, selectQuery+` WHERE source_status = 'pending' ORDER BY credit_id`)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Installment, error) {
	return r.list(ctx, selectQuery+` ORDER BY credit_id`)
}

func (r *PostgresRepository) list(ctx context.Context, query string) ([]*models.Installment, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StorageError(err)
	}
	defer rows.Close()

	var out []*models.Installment
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, common.StorageError(err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError(err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkSourceExported(ctx context.Context, creditID string) error {
	query :=
		`UPDATE installments SET source_status = 'exported'
		 WHERE credit_id = $1`

	if _, err := r.db.ExecContext(ctx, query, creditID); err != nil {
		return common.StorageError(err)
	}
	return nil
}

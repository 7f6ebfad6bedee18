package payments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/models"
)

const selectQuery = `SELECT payment_id, credit_id, amount, paid_on, posted_on, method, notes,
		 export_status, fingerprint, created_at, updated_at
		 FROM payments`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Payment, error) {
	p := &models.Payment{}
	var status string
	err := row.Scan(&p.PaymentID, &p.CreditID, &p.Amount, dbx.Date{T: &p.PaidOn}, dbx.Date{T: &p.PostedOn},
		dbx.Text{S: &p.Method}, dbx.Text{S: &p.Notes}, &status, &p.Hash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ExportStatus = models.ExportStatus(status)
	return p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := scan(r.db.QueryRowContext(ctx, selectQuery+` WHERE payment_id = $1`, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError(err)
	}
	return p, nil
}

func (r *PostgresRepository) Fingerprint(ctx context.Context, paymentID string) (string, error) {
	query :=
		`SELECT fingerprint FROM payments
		 WHERE payment_id = $1`

	var fp string
	err := r.db.QueryRowContext(ctx, query, paymentID).Scan(&fp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", common.StorageError(err)
	}
	return fp, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, p *models.Payment) error {
	query :=
		`INSERT INTO payments (payment_id, credit_id, amount, paid_on, posted_on, method, notes, export_status, fingerprint)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if p.ExportStatus == "" {
		p.ExportStatus = models.StatusPending
	}
	p.Hash = p.Fingerprint()

	_, err := r.db.ExecContext(ctx, query, p.PaymentID, p.CreditID, p.Amount,
		dbx.NullTime(p.PaidOn), dbx.NullTime(p.PostedOn), dbx.NullString(p.Method), dbx.NullString(p.Notes),
		string(p.ExportStatus), p.Hash)
	if err != nil {
		return common.StorageError(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Payment, resetExport bool) error {
	query :=
		`UPDATE payments SET credit_id = $2, amount = $3, paid_on = $4, posted_on = $5, method = $6, notes = $7,
		 fingerprint = $8,
		 export_status = CASE WHEN $9::boolean THEN 'pending' ELSE export_status END,
		 updated_at = now()
		 WHERE payment_id = $1`

	p.Hash = p.Fingerprint()

	res, err := r.db.ExecContext(ctx, query, p.PaymentID, p.CreditID, p.Amount,
		dbx.NullTime(p.PaidOn), dbx.NullTime(p.PostedOn), dbx.NullString(p.Method), dbx.NullString(p.Notes),
		p.Hash, resetExport)
	if err != nil {
		return common.StorageError(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) ListPending(ctx context.Context) ([]*models.Payment, error) {
	return r.list(ctx, selectQuery+` WHERE export_status = 'pending' ORDER BY payment_id`)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Payment, error) {
	return r.list(ctx, selectQuery+` ORDER BY payment_id`)
}

func (r *PostgresRepository) list(ctx context.Context, query string) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StorageError(err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, common.StorageError(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError(err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkExported(ctx context.Context, paymentID string) error {
	return r.setStatus(ctx, paymentID, models.StatusExported)
}

func (r *PostgresRepository) MarkPending(ctx context.Context, paymentID string) error {
	return r.setStatus(ctx, paymentID, models.StatusPending)
}

func (r *PostgresRepository) setStatus(ctx context.Context, paymentID string, status models.ExportStatus) error {
	query :=
		`UPDATE payments SET export_status = $2, updated_at = now()
		 WHERE payment_id = $1`

	res, err := r.db.ExecContext(ctx, query, paymentID, string(status))
	if err != nil {
		return common.StorageError(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, paymentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE payment_id = $1`, paymentID)
	if err != nil {
		return common.StorageError(err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

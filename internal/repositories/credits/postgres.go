package credits

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/models"
)

var columns = []string{
	"credit_id", "client_id", "co_debtor_id", "legal_representative_id", "company_key",
	"source", "classification", "debt_type", "created_on", "first_payment_on",
	"total_amount", "periodicity", "installment_count", "notes", "intermediary_id",
	"institution", "program", "program_period", "penalty_amount", "penalty_type",
	"penalty_period", "promissory_note",
}

var (
	selectQuery = `SELECT ` + strings.Join(columns, ", ") + `, export_status, fingerprint, created_at, updated_at
		 FROM credits`

	insertQuery = `INSERT INTO credits (` + strings.Join(columns, ", ") + `, export_status, fingerprint)
		 VALUES (` + dbx.Placeholders(1, len(columns)+2) + `)`

	updateQuery = `UPDATE credits SET ` + dbx.SetClause(columns[1:], 2) + `,
		 fingerprint = $` + strconv.Itoa(len(columns)+1) + `,
		 export_status = CASE WHEN $` + strconv.Itoa(len(columns)+2) + `::boolean THEN 'pending' ELSE export_status END,
		 updated_at = now()
		 WHERE credit_id = $1`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func values(c *models.Credit) []any {
	return []any{
		c.CreditID, c.ClientID, dbx.NullString(c.CoDebtorID), dbx.NullString(c.LegalRepresentativeID), dbx.NullString(c.CompanyKey),
		dbx.NullString(c.Source), dbx.NullString(c.Classification), dbx.NullString(c.DebtType), dbx.NullTime(c.CreatedOn), dbx.NullTime(c.FirstPaymentOn),
		c.TotalAmount, dbx.NullString(c.Periodicity), c.InstallmentCount, dbx.NullString(c.Notes), dbx.NullString(c.IntermediaryID),
		dbx.NullString(c.Institution), dbx.NullString(c.Program), dbx.NullString(c.ProgramPeriod), c.PenaltyAmount, dbx.NullString(c.PenaltyType),
		dbx.NullString(c.PenaltyPeriod), dbx.NullString(c.PromissoryNote),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Credit, error) {
	c := &models.Credit{}
	var status string
	err := row.Scan(
		&c.CreditID, &c.ClientID, dbx.Text{S: &c.CoDebtorID}, dbx.Text{S: &c.LegalRepresentativeID}, dbx.Text{S: &c.CompanyKey},
		dbx.Text{S: &c.Source}, dbx.Text{S: &c.Classification}, dbx.Text{S: &c.DebtType}, dbx.Date{T: &c.CreatedOn}, dbx.Date{T: &c.FirstPaymentOn},
		&c.TotalAmount, dbx.Text{S: &c.Periodicity}, &c.InstallmentCount, dbx.Text{S: &c.Notes}, dbx.Text{S: &c.IntermediaryID},
		dbx.Text{S: &c.Institution}, dbx.Text{S: &c.Program}, dbx.Text{S: &c.ProgramPeriod}, &c.PenaltyAmount, dbx.Text{S: &c.PenaltyType},
		dbx.Text{S: &c.PenaltyPeriod}, dbx.Text{S: &c.PromissoryNote},
		&status, &c.Hash, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ExportStatus = models.ExportStatus(status)
	return c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, creditID string) (*models.Credit, error) {
	c, err := scan(r.db.QueryRowContext(ctx, selectQuery+` WHERE credit_id = $1`, creditID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError(err)
	}
	return c, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, creditID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM credits WHERE credit_id = $1)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, creditID).Scan(&ok); err != nil {
		return false, common.StorageError(err)
	}
	return ok, nil
}

func (r *PostgresRepository) Fingerprint(ctx context.Context, creditID string) (string, error) {
	query :=
		`SELECT fingerprint FROM credits
		 WHERE credit_id = $1`

	var fp string
	err := r.db.QueryRowContext(ctx, query, creditID).Scan(&fp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", common.StorageError(err)
	}
	return fp, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.Credit) error {
	if c.ExportStatus == "" {
		c.ExportStatus = models.StatusPending
	}
	c.Hash = c.Fingerprint()

	args := append(values(c), string(c.ExportStatus), c.Hash)
	if _, err := r.db.ExecContext(ctx, insertQuery, args...); err != nil {
		return common.StorageError(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Credit, resetExport bool) error {
	c.Hash = c.Fingerprint()

	args := append(values(c), c.Hash, resetExport)
	res, err := r.db.ExecContext(ctx, updateQuery, args...)
	if err != nil {
		return common.StorageError(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) ListPending(ctx context.Context) ([]*models.Credit, error) {
	return r.list(ctx, selectQuery+` WHERE export_status = 'pending' ORDER BY credit_id`)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Credit, error) {
	return r.list(ctx, selectQuery+` ORDER BY credit_id`)
}

func (r *PostgresRepository) ListBySource(ctx context.Context, source string) ([]*models.Credit, error) {
	return r.list(ctx, selectQuery+` WHERE source = $1 ORDER BY credit_id`, source)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Credit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.StorageError(err)
	}
	defer rows.Close()

	var out []*models.Credit
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, common.StorageError(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError(err)
	}
	return out, nil
}

func (r *PostgresRepository) CompanyKeys(ctx context.Context) ([]models.ClientCompany, error) {
	query :=
		`SELECT DISTINCT client_id, company_key FROM credits
		 WHERE company_key IS NOT NULL AND company_key <> ''
		 ORDER BY client_id, company_key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StorageError(err)
	}
	defer rows.Close()

	var out []models.ClientCompany
	for rows.Next() {
		var cc models.ClientCompany
		if err := rows.Scan(&cc.ClientID, &cc.CompanyKey); err != nil {
			return nil, common.StorageError(err)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError(err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkExported(ctx context.Context, creditID string) error {
	return r.setStatus(ctx, creditID, models.StatusExported)
}

func (r *PostgresRepository) MarkPending(ctx context.Context, creditID string) error {
	return r.setStatus(ctx, creditID, models.StatusPending)
}

func (r *PostgresRepository) setStatus(ctx context.Context, creditID string, status models.ExportStatus) error {
	query :=
		`UPDATE credits SET export_status = $2, updated_at = now()
		 WHERE credit_id = $1`

	res, err := r.db.ExecContext(ctx, query, creditID, string(status))
	if err != nil {
		return common.StorageError(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, creditID string) error {
	query :=
		`DELETE FROM credits WHERE credit_id = $1`

	res, err := r.db.ExecContext(ctx, query, creditID)
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

package clients

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

// mapped columns, in the order used by values and scan
var columns = []string{
	"client_id", "first_name", "second_name", "first_surname", "second_surname",
	"document_type", "phone", "mobile", "email", "birth_date", "document_issue_date",
	"document_issue_place", "marital_status", "gender", "education_level",
	"residence_city", "residence_department", "residence_address",
	"job_title", "work_city", "work_department", "work_address", "work_phone",
	"profession", "contract_type", "social_stratum", "housing_type", "dependents",
	"monthly_income", "monthly_expenses", "promissory_note_number", "promissory_note_type",
}

var (
	selectQuery = `SELECT ` + strings.Join(columns, ", ") + `, export_status, fingerprint, created_at, updated_at
		 FROM clients`

	insertQuery = `INSERT INTO clients (` + strings.Join(columns, ", ") + `, export_status, fingerprint)
		 VALUES (` + dbx.Placeholders(1, len(columns)+2) + `)`

	updateQuery = `UPDATE clients SET ` + dbx.SetClause(columns[1:], 2) + `,
		 fingerprint = $` + strconv.Itoa(len(columns)+1) + `,
		 export_status = CASE WHEN $` + strconv.Itoa(len(columns)+2) + `::boolean THEN 'pending' ELSE export_status END,
		 updated_at = now()
		 WHERE client_id = $1`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func values(c *models.Client) []any {
	return []any{
		c.ClientID, c.FirstName, dbx.NullString(c.SecondName), c.FirstSurname, dbx.NullString(c.SecondSurname),
		dbx.NullString(c.DocumentType), dbx.NullString(c.Phone), dbx.NullString(c.Mobile), dbx.NullString(c.Email),
		dbx.NullTime(c.BirthDate), dbx.NullTime(c.DocumentIssueDate),
		dbx.NullString(c.DocumentIssuePlace), dbx.NullString(c.MaritalStatus), dbx.NullString(c.Gender), dbx.NullString(c.EducationLevel),
		dbx.NullString(c.ResidenceCity), dbx.NullString(c.ResidenceDepartment), dbx.NullString(c.ResidenceAddress),
		dbx.NullString(c.JobTitle), dbx.NullString(c.WorkCity), dbx.NullString(c.WorkDepartment), dbx.NullString(c.WorkAddress), dbx.NullString(c.WorkPhone),
		dbx.NullString(c.Profession), dbx.NullString(c.ContractType), dbx.NullString(c.SocialStratum), dbx.NullString(c.HousingType), c.Dependents,
		c.MonthlyIncome, c.MonthlyExpenses, dbx.NullString(c.PromissoryNoteNumber), dbx.NullString(c.PromissoryNoteType),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Client, error) {
	c := &models.Client{}
	var status string
	err := row.Scan(
		&c.ClientID, &c.FirstName, dbx.Text{S: &c.SecondName}, &c.FirstSurname, dbx.Text{S: &c.SecondSurname},
		dbx.Text{S: &c.DocumentType}, dbx.Text{S: &c.Phone}, dbx.Text{S: &c.Mobile}, dbx.Text{S: &c.Email},
		dbx.Date{T: &c.BirthDate}, dbx.Date{T: &c.DocumentIssueDate},
		dbx.Text{S: &c.DocumentIssuePlace}, dbx.Text{S: &c.MaritalStatus}, dbx.Text{S: &c.Gender}, dbx.Text{S: &c.EducationLevel},
		dbx.Text{S: &c.ResidenceCity}, dbx.Text{S: &c.ResidenceDepartment}, dbx.Text{S: &c.ResidenceAddress},
		dbx.Text{S: &c.JobTitle}, dbx.Text{S: &c.WorkCity}, dbx.Text{S: &c.WorkDepartment}, dbx.Text{S: &c.WorkAddress}, dbx.Text{S: &c.WorkPhone},
		dbx.Text{S: &c.Profession}, dbx.Text{S: &c.ContractType}, dbx.Text{S: &c.SocialStratum}, dbx.Text{S: &c.HousingType}, &c.Dependents,
		&c.MonthlyIncome, &c.MonthlyExpenses, dbx.Text{S: &c.PromissoryNoteNumber}, dbx.Text{S: &c.PromissoryNoteType},
		&status, &c.Hash, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ExportStatus = models.ExportStatus(status)
	return c, nil
}

func (r *PostgresRepository) Get(ctx context.Context, clientID string) (*models.Client, error) {
	c, err := scan(r.db.QueryRowContext(ctx, selectQuery+` WHERE client_id = $1`, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError(err)
	}
	return c, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, clientID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM clients WHERE client_id = $1)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, clientID).Scan(&ok); err != nil {
		return false, common.StorageError(err)
	}
	return ok, nil
}

func (r *PostgresRepository) Fingerprint(ctx context.Context, clientID string) (string, error) {
	query :=
		`SELECT fingerprint FROM clients
		 WHERE client_id = $1`

	var fp string
	err := r.db.QueryRowContext(ctx, query, clientID).Scan(&fp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", common.StorageError(err)
	}
	return fp, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.Client) error {
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

func (r *PostgresRepository) Update(ctx context.Context, c *models.Client, resetExport bool) error {
	c.Hash = c.Fingerprint()

	args := append(values(c), c.Hash, resetExport)
	res, err := r.db.ExecContext(ctx, updateQuery, args...)
	if err != nil {
		return common.StorageError(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) ListPending(ctx context.Context) ([]*models.Client, error) {
	return r.list(ctx, selectQuery+` WHERE export_status = 'pending' ORDER BY client_id`)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Client, error) {
	return r.list(ctx, selectQuery+` ORDER BY client_id`)
}

func (r *PostgresRepository) list(ctx context.Context, query string) ([]*models.Client, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.StorageError(err)
	}
	defer rows.Close()

	var out []*models.Client
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

func (r *PostgresRepository) MarkExported(ctx context.Context, clientID string) error {
	return r.setStatus(ctx, clientID, models.StatusExported)
}

func (r *PostgresRepository) MarkPending(ctx context.Context, clientID string) error {
	return r.setStatus(ctx, clientID, models.StatusPending)
}

func (r *PostgresRepository) setStatus(ctx context.Context, clientID string, status models.ExportStatus) error {
	query :=
		`UPDATE clients SET export_status = $2, updated_at = now()
		 WHERE client_id = $1`

	res, err := r.db.ExecContext(ctx, query, clientID, string(status))
	if err != nil {
		return common.StorageError(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, clientID string) error {
	query :=
		`DELETE FROM clients WHERE client_id = $1`

	res, err := r.db.ExecContext(ctx, query, clientID)
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

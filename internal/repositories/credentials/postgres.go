// Package credentials provides a PostgreSQL-backed store for the encrypted
// secrets used to reach remote systems.
package credentials

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/models"
)

// PostgresRepository works over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns common.ErrorNotFound when no record exists for serviceName.
func (r *PostgresRepository) Get(ctx context.Context, serviceName string) (*models.CredentialRecord, error) {
	query := `
		SELECT id, service_name, username_enc, password_enc, token_enc, expires_at, metadata, created_at, updated_at
		FROM credentials
		WHERE service_name = $1
	`
	rec := &models.CredentialRecord{}
	var expires sql.NullTime
	err := r.db.QueryRowContext(ctx, query, serviceName).Scan(&rec.ID, &rec.ServiceName, &rec.UsernameEnc,
		&rec.PasswordEnc, &rec.TokenEnc, &expires, &rec.Metadata, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError(err)
	}
	rec.ExpiresAt = dbx.TimePtr(expires)
	return rec, nil
}

// Create fails with a storage error if the service already has a record.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.CredentialRecord) error {
	query := `
		INSERT INTO credentials (service_name, username_enc, password_enc, token_enc, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, rec.ServiceName, rec.UsernameEnc, rec.PasswordEnc, rec.TokenEnc,
		dbx.NullTime(rec.ExpiresAt), metadata(rec.Metadata)).Scan(&rec.ID)
	if err != nil {
		return common.StorageError(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.CredentialRecord) error {
	query := `
		UPDATE credentials
		SET username_enc = $2, password_enc = $3, token_enc = $4, expires_at = $5, metadata = $6, updated_at = now()
		WHERE service_name = $1
	`
	res, err := r.db.ExecContext(ctx, query, rec.ServiceName, rec.UsernameEnc, rec.PasswordEnc, rec.TokenEnc,
		dbx.NullTime(rec.ExpiresAt), metadata(rec.Metadata))
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

func metadata(b []byte) string {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}

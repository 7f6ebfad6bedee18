// Package credits stores Credit rows and answers the client/company
// associations used for export fan-out.
package credits

import (
	"context"

	"github.com/fincoval/creditsync/internal/models"
)

type Repository interface {
	Get(ctx context.Context, creditID string) (*models.Credit, error)
	Exists(ctx context.Context, creditID string) (bool, error)
	Fingerprint(ctx context.Context, creditID string) (string, error)
	Insert(ctx context.Context, c *models.Credit) error
	Update(ctx context.Context, c *models.Credit, resetExport bool) error
	ListPending(ctx context.Context) ([]*models.Credit, error)
	ListAll(ctx context.Context) ([]*models.Credit, error)
	ListBySource(ctx context.Context, source string) ([]*models.Credit, error)
	// CompanyKeys returns every distinct non-empty (client, company key) pair.
	CompanyKeys(ctx context.Context) ([]models.ClientCompany, error)
	MarkExported(ctx context.Context, creditID string) error
	MarkPending(ctx context.Context, creditID string) error
	Delete(ctx context.Context, creditID string) error
}

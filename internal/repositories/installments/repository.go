package installments

import (
	"context"

	"github.com/fincoval/creditsync/internal/models"
)

// Repository keeps one snapshot row per credit. GetForUpdate is meant to
// run inside a transaction so concurrent upserts of the same credit serialize.
type Repository interface {
	Get(ctx context.Context, creditID string) (*models.Installment, error)
	GetForUpdate(ctx context.Context, creditID string) (*models.Installment, error)
	Insert(ctx context.Context, i *models.Installment) error
	Update(ctx context.Context, i *models.Installment) error
	ListPendingSource(ctx context.Context) ([]*models.Installment, error)
	ListAll(ctx context.Context) ([]*models.Installment, error)
	MarkSourceExported(ctx context.Context, creditID string) error
}

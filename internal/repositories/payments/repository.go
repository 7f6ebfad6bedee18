package payments

import (
	"context"

	"github.com/fincoval/creditsync/internal/models"
)

type Repository interface {
	Get(ctx context.Context, paymentID string) (*models.Payment, error)
	Fingerprint(ctx context.Context, paymentID string) (string, error)
	Insert(ctx context.Context, p *models.Payment) error
	Update(ctx context.Context, p *models.Payment, resetExport bool) error
	ListPending(ctx context.Context) ([]*models.Payment, error)
	ListAll(ctx context.Context) ([]*models.Payment, error)
	MarkExported(ctx context.Context, paymentID string) error
	MarkPending(ctx context.Context, paymentID string) error
	Delete(ctx context.Context, paymentID string) error
}

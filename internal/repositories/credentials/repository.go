package credentials

import (
	"context"

	"github.com/fincoval/creditsync/internal/models"
)

// Repository stores encrypted credential records keyed by service name.
type Repository interface {
	Get(ctx context.Context, serviceName string) (*models.CredentialRecord, error)
	Create(ctx context.Context, rec *models.CredentialRecord) error
	Update(ctx context.Context, rec *models.CredentialRecord) error
}

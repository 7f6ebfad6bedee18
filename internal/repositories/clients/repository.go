// Package clients stores Client rows keyed by their external client id.
package clients

import (
	"context"

	"github.com/fincoval/creditsync/internal/models"
)

type Repository interface {
	Get(ctx context.Context, clientID string) (*models.Client, error)
	Exists(ctx context.Context, clientID string) (bool, error)
	Fingerprint(ctx context.Context, clientID string) (string, error)
	Insert(ctx context.Context, c *models.Client) error
	// Update overwrites every mapped field. resetExport puts the row back
	// to pending.
	Update(ctx context.Context, c *models.Client, resetExport bool) error
	ListPending(ctx context.Context) ([]*models.Client, error)
	ListAll(ctx context.Context) ([]*models.Client, error)
	MarkExported(ctx context.Context, clientID string) error
	MarkPending(ctx context.Context, clientID string) error
	Delete(ctx context.Context, clientID string) error
}

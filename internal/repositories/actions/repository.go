package actions

import (
	"context"

	"github.com/fincoval/creditsync/internal/models"
)

// Repository is insert-only. Existing actions are never updated.
type Repository interface {
	// InsertIfAbsent reports whether a new row was written.
	InsertIfAbsent(ctx context.Context, a *models.Action) (bool, error)
	ListPendingSource(ctx context.Context) ([]*models.Action, error)
	MarkSourceExported(ctx context.Context, actionID string) error
}

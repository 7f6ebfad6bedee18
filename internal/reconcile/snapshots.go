package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/models"
)

func creditID(_ int, c *models.Credit) string { return c.CreditID }

func (e *Engine) pullInstallments(ctx context.Context, s *Summary) error {
	credits, err := e.repos.Credits(e.db).ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list credits: %w", err)
	}

	return each(ctx, e, s, credits, creditID, func(ctx context.Context, c *models.Credit) (outcome, error) {
		key := e.routesFor(c.CompanyKey)[0]
		debtKey, err := e.target.DebtKey(ctx, key, c.CreditID)
		if err != nil {
			return settled, fmt.Errorf("debt key: %w", err)
		}
		snap, err := e.target.DebtSnapshot(ctx, key, debtKey)
		if err != nil {
			return settled, fmt.Errorf("debt snapshot: %w", err)
		}
		next, err := e.tr.InstallmentFromTarget(c.CreditID, snap)
		if err != nil {
			return settled, err
		}
		return e.storeInstallment(ctx, next)
	})
}

// storeInstallment upserts the snapshot of one credit in its own
// transaction, holding the row lock while comparing fingerprints.
func (e *Engine) storeInstallment(ctx context.Context, next *models.Installment) (outcome, error) {
	out := unchanged
	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := e.repos.Installments(tx)
		current, err := repo.GetForUpdate(ctx, next.CreditID)
		if errors.Is(err, common.ErrorNotFound) {
			out = inserted
			return repo.Insert(ctx, next)
		}
		if err != nil {
			return err
		}
		if current.Hash == next.Fingerprint() {
			return nil
		}
		out = updated
		return repo.Update(ctx, next)
	})
	if err != nil {
		return settled, err
	}
	return out, nil
}

func (e *Engine) pushInstallments(ctx context.Context, s *Summary) error {
	repo := e.repos.Installments(e.db)
	pending, err := repo.ListPendingSource(ctx)
	if err != nil {
		return fmt.Errorf("list pending installments: %w", err)
	}

	id := func(_ int, i *models.Installment) string { return i.CreditID }
	return each(ctx, e, s, pending, id, func(ctx context.Context, i *models.Installment) (outcome, error) {
		rec := e.tr.InstallmentToSource(i, e.opts.SourceCompanyKey)
		if _, err := e.source.Submit(ctx, gateway.Installments, rec); err != nil {
			return settled, err
		}
		if err := repo.MarkSourceExported(ctx, i.CreditID); err != nil {
			return settled, err
		}
		return exported, nil
	})
}

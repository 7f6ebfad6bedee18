package reconcile

import (
	"context"
	"fmt"

	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/models"
)

// pullActions records the remote collection events of every credit owned by
// the source tag. Each action is its own record in the summary; a failed
// fetch counts once against the credit.
func (e *Engine) pullActions(ctx context.Context, s *Summary) error {
	credits, err := e.repos.Credits(e.db).ListBySource(ctx, e.opts.SourceTag)
	if err != nil {
		return fmt.Errorf("list credits: %w", err)
	}
	repo := e.repos.Actions(e.db)

	return each(ctx, e, s, credits, creditID, func(ctx context.Context, c *models.Credit) (outcome, error) {
		remote, err := e.target.Actions(ctx, e.routesFor(c.CompanyKey)[0], c.CreditID, e.opts.ActionCutoff)
		if err != nil {
			return settled, fmt.Errorf("fetch actions: %w", err)
		}
		for i, r := range remote {
			recordID := r.ActionID.String()
			if recordID == "" {
				recordID = fmt.Sprintf("%s#%d", c.CreditID, i)
			}
			a, err := e.tr.ActionFromTarget(r)
			if err != nil {
				e.record(ctx, s, recordID, settled, err)
				continue
			}
			added, err := repo.InsertIfAbsent(ctx, a)
			switch {
			case err != nil:
				e.record(ctx, s, recordID, settled, err)
			case added:
				e.record(ctx, s, recordID, inserted, nil)
			default:
				e.record(ctx, s, recordID, unchanged, nil)
			}
		}
		return settled, nil
	})
}

func (e *Engine) pushActions(ctx context.Context, s *Summary) error {
	repo := e.repos.Actions(e.db)
	pending, err := repo.ListPendingSource(ctx)
	if err != nil {
		return fmt.Errorf("list pending actions: %w", err)
	}

	id := func(_ int, a *models.Action) string { return a.ActionID }
	return each(ctx, e, s, pending, id, func(ctx context.Context, a *models.Action) (outcome, error) {
		rec := e.tr.ActionToSource(a, e.opts.SourceCompanyKey)
		if _, err := e.source.Submit(ctx, gateway.Actions, rec); err != nil {
			return settled, err
		}
		if err := repo.MarkSourceExported(ctx, a.ActionID); err != nil {
			return settled, err
		}
		return exported, nil
	})
}

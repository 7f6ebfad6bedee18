package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/repositories/routes"
)

// upsert decides between insert, update and unchanged by comparing the
// stored fingerprint with fp.
func upsert(ctx context.Context, id, fp string, stored func(context.Context, string) (string, error),
	insert func() error, update func() error) (outcome, error) {

	current, err := stored(ctx, id)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		if err := insert(); err != nil {
			return settled, err
		}
		return inserted, nil
	case err != nil:
		return settled, err
	case current == fp:
		return unchanged, nil
	}
	if err := update(); err != nil {
		return settled, err
	}
	return updated, nil
}

func (e *Engine) fetch(ctx context.Context, entity gateway.Entity) ([]json.RawMessage, error) {
	raws, err := e.source.FetchAll(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", entity, err)
	}
	return raws, nil
}

// clearRoutes forgets the fan-out ledger of a record that is about to be
// re-exported.
func (e *Engine) clearRoutes(ctx context.Context, entity, id string) error {
	if !e.opts.ReexportOnChange {
		return nil
	}
	return e.repos.Routes(e.db).Clear(ctx, entity, id)
}

func (e *Engine) pullClients(ctx context.Context, s *Summary) error {
	raws, err := e.fetch(ctx, gateway.Clients)
	if err != nil {
		return err
	}
	repo := e.repos.Clients(e.db)

	return each(ctx, e, s, raws, rawID("idcliente"), func(ctx context.Context, raw json.RawMessage) (outcome, error) {
		c, err := e.tr.ClientFromSource(raw)
		if err != nil {
			return settled, err
		}
		return upsert(ctx, c.ClientID, c.Fingerprint(), repo.Fingerprint,
			func() error { return repo.Insert(ctx, c) },
			func() error {
				if err := e.clearRoutes(ctx, routes.EntityClient, c.ClientID); err != nil {
					return err
				}
				return repo.Update(ctx, c, e.opts.ReexportOnChange)
			})
	})
}

func (e *Engine) pullCredits(ctx context.Context, s *Summary) error {
	raws, err := e.fetch(ctx, gateway.Credits)
	if err != nil {
		return err
	}
	repo := e.repos.Credits(e.db)
	clients := e.repos.Clients(e.db)

	return each(ctx, e, s, raws, rawID("idcredito"), func(ctx context.Context, raw json.RawMessage) (outcome, error) {
		c, err := e.tr.CreditFromSource(raw)
		if err != nil {
			return settled, err
		}
		ok, err := clients.Exists(ctx, c.ClientID)
		if err != nil {
			return settled, err
		}
		if !ok {
			return settled, fmt.Errorf("%w: client %s", common.ErrMissingDependency, c.ClientID)
		}
		return upsert(ctx, c.CreditID, c.Fingerprint(), repo.Fingerprint,
			func() error { return repo.Insert(ctx, c) },
			func() error {
				if err := e.clearRoutes(ctx, routes.EntityCredit, c.CreditID); err != nil {
					return err
				}
				return repo.Update(ctx, c, e.opts.ReexportOnChange)
			})
	})
}

func (e *Engine) pullPayments(ctx context.Context, s *Summary) error {
	raws, err := e.fetch(ctx, gateway.Payments)
	if err != nil {
		return err
	}
	repo := e.repos.Payments(e.db)
	credits := e.repos.Credits(e.db)

	return each(ctx, e, s, raws, rawID("idtransaccion"), func(ctx context.Context, raw json.RawMessage) (outcome, error) {
		p, err := e.tr.PaymentFromSource(raw)
		if err != nil {
			return settled, err
		}
		ok, err := credits.Exists(ctx, p.CreditID)
		if err != nil {
			return settled, err
		}
		if !ok {
			return settled, fmt.Errorf("%w: credit %s", common.ErrMissingDependency, p.CreditID)
		}
		return upsert(ctx, p.PaymentID, p.Fingerprint(), repo.Fingerprint,
			func() error { return repo.Insert(ctx, p) },
			func() error { return repo.Update(ctx, p, e.opts.ReexportOnChange) })
	})
}

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/fincoval/creditsync/internal/repositories/routes"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
)

var errClientNotVisible = errors.New("client not visible yet")

// companyKeys maps every client to the sorted company keys of its credits.
func (e *Engine) companyKeys(ctx context.Context) (map[string][]string, error) {
	pairs, err := e.repos.Credits(e.db).CompanyKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("company keys: %w", err)
	}
	keys := make(map[string][]string)
	for _, p := range pairs {
		keys[p.ClientID] = append(keys[p.ClientID], p.CompanyKey)
	}
	return keys, nil
}

// routesFor returns the distinct routing keys for a record, or the default
// routing key when there are none.
func (e *Engine) routesFor(keys ...string) []string {
	seen := make(map[string]struct{}, len(keys))
	var out []string
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return []string{e.opts.DefaultRoutingKey}
	}
	sort.Strings(out)
	return out
}

// fanOut submits one copy of a record per routing key not yet in the
// ledger. The record is marked exported once every key is. Failures of
// single keys are joined; dependency failures only count as such when no
// key failed for another reason.
func (e *Engine) fanOut(ctx context.Context, entity, id string, keys []string,
	submit func(ctx context.Context, key string) error, markExported func(context.Context, string) error) (outcome, error) {

	ledger := e.repos.Routes(e.db)

	var deps, errs []error
	for _, key := range keys {
		done, err := ledger.Exported(ctx, entity, id, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if done {
			continue
		}
		if err := submit(ctx, key); err != nil {
			err = fmt.Errorf("routing key %s: %w", key, err)
			if errors.Is(err, common.ErrMissingDependency) {
				deps = append(deps, err)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		if err := ledger.Mark(ctx, entity, id, key); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return settled, errors.Join(errs...)
	}
	if len(deps) > 0 {
		return settled, errors.Join(deps...)
	}
	if err := markExported(ctx, id); err != nil {
		return settled, err
	}
	return exported, nil
}

func (e *Engine) pushClients(ctx context.Context, s *Summary) error {
	keys, err := e.companyKeys(ctx)
	if err != nil {
		return err
	}
	repo := e.repos.Clients(e.db)
	pending, err := repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending clients: %w", err)
	}

	id := func(_ int, c *models.Client) string { return c.ClientID }
	return each(ctx, e, s, pending, id, func(ctx context.Context, c *models.Client) (outcome, error) {
		payload, warnings, err := e.tr.ClientToTarget(c)
		if err != nil {
			return settled, err
		}
		for _, w := range warnings {
			e.logger.Warn(ctx, "client mapped with gaps", "pass", s.Pass, "record_id", c.ClientID, "warning", w)
		}
		submit := func(ctx context.Context, key string) error {
			_, err := e.target.Submit(ctx, gateway.Clients, payload, key)
			return err
		}
		return e.fanOut(ctx, routes.EntityClient, c.ClientID, e.routesFor(keys[c.ClientID]...), submit, repo.MarkExported)
	})
}

func (e *Engine) pushCredits(ctx context.Context, s *Summary) error {
	keys, err := e.companyKeys(ctx)
	if err != nil {
		return err
	}
	repo := e.repos.Credits(e.db)
	clients := e.repos.Clients(e.db)
	pending, err := repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending credits: %w", err)
	}

	// Credits of one client share the ensure step per routing key.
	var ensured singleflight.Group

	id := func(_ int, c *models.Credit) string { return c.CreditID }
	return each(ctx, e, s, pending, id, func(ctx context.Context, c *models.Credit) (outcome, error) {
		client, err := clients.Get(ctx, c.ClientID)
		if errors.Is(err, common.ErrorNotFound) {
			return settled, fmt.Errorf("%w: client %s", common.ErrMissingDependency, c.ClientID)
		}
		if err != nil {
			return settled, err
		}

		submit := func(ctx context.Context, key string) error {
			_, err, _ := ensured.Do(client.ClientID+"\x00"+key, func() (any, error) {
				return nil, e.ensureClient(ctx, client, key)
			})
			if err != nil {
				return err
			}
			payload, err := e.tr.CreditToTarget(c, key)
			if err != nil {
				return err
			}
			_, err = e.target.Submit(ctx, gateway.Credits, payload, key)
			return err
		}
		return e.fanOut(ctx, routes.EntityCredit, c.CreditID,
			e.routesFor(append([]string{c.CompanyKey}, keys[c.ClientID]...)...), submit, repo.MarkExported)
	})
}

// ensureClient makes sure the Target knows the client under key before a
// credit referencing it is submitted. A client the Target does not have is
// submitted and then polled until it becomes visible.
func (e *Engine) ensureClient(ctx context.Context, c *models.Client, key string) error {
	ledger := e.repos.Routes(e.db)
	done, err := ledger.Exported(ctx, routes.EntityClient, c.ClientID, key)
	if err != nil || done {
		return err
	}

	exists, err := e.target.ClientExists(ctx, key, c.ClientID)
	if err != nil {
		return err
	}
	if !exists {
		payload, warnings, err := e.tr.ClientToTarget(c)
		if err != nil {
			return fmt.Errorf("%w: client %s: %w", common.ErrMissingDependency, c.ClientID, err)
		}
		for _, w := range warnings {
			e.logger.Warn(ctx, "client mapped with gaps", "record_id", c.ClientID, "routing_key", key, "warning", w)
		}
		if _, err := e.target.Submit(ctx, gateway.Clients, payload, key); err != nil {
			return fmt.Errorf("%w: client %s: %w", common.ErrMissingDependency, c.ClientID, err)
		}

		backoff := retry.WithMaxRetries(uint64(e.opts.EnsureAttempts-1), retry.NewConstant(e.opts.EnsureInterval))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			ok, err := e.target.ClientExists(ctx, key, c.ClientID)
			if err != nil {
				return retry.RetryableError(err)
			}
			if !ok {
				return retry.RetryableError(errClientNotVisible)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: client %s: %w", common.ErrMissingDependency, c.ClientID, err)
		}
	}
	return ledger.Mark(ctx, routes.EntityClient, c.ClientID, key)
}

func (e *Engine) pushPayments(ctx context.Context, s *Summary) error {
	repo := e.repos.Payments(e.db)
	credits := e.repos.Credits(e.db)
	pending, err := repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	id := func(_ int, p *models.Payment) string { return p.PaymentID }
	return each(ctx, e, s, pending, id, func(ctx context.Context, p *models.Payment) (outcome, error) {
		credit, err := credits.Get(ctx, p.CreditID)
		if errors.Is(err, common.ErrorNotFound) {
			return settled, fmt.Errorf("%w: credit %s", common.ErrMissingDependency, p.CreditID)
		}
		if err != nil {
			return settled, err
		}
		payload, err := e.tr.PaymentToTarget(p)
		if err != nil {
			return settled, err
		}
		if _, err := e.target.Submit(ctx, gateway.Payments, payload, e.routesFor(credit.CompanyKey)[0]); err != nil {
			return settled, err
		}
		if err := repo.MarkExported(ctx, p.PaymentID); err != nil {
			return settled, err
		}
		return exported, nil
	})
}

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/fincoval/creditsync/internal/repositories/routes"
)

var (
	ErrNotReexportable = errors.New("entity cannot be re-exported")
	ErrNotAddressable  = errors.New("entity has no record endpoint")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrRecordExists    = errors.New("record already exists")
)

// Reexport puts a record back to pending and forgets its fan-out routes so
// that the next push submits it again to every routing key.
func (e *Engine) Reexport(ctx context.Context, entity gateway.Entity, id string) error {
	switch entity {
	case gateway.Clients:
		if err := e.repos.Clients(e.db).MarkPending(ctx, id); err != nil {
			return err
		}
		return e.repos.Routes(e.db).Clear(ctx, routes.EntityClient, id)
	case gateway.Credits:
		if err := e.repos.Credits(e.db).MarkPending(ctx, id); err != nil {
			return err
		}
		return e.repos.Routes(e.db).Clear(ctx, routes.EntityCredit, id)
	case gateway.Payments:
		return e.repos.Payments(e.db).MarkPending(ctx, id)
	}
	return fmt.Errorf("%w: %s", ErrNotReexportable, entity)
}

// Lookup returns the locally stored client, credit, payment or installment
// snapshot. Installments are keyed by credit id.
func (e *Engine) Lookup(ctx context.Context, entity gateway.Entity, id string) (any, error) {
	switch entity {
	case gateway.Clients:
		return e.repos.Clients(e.db).Get(ctx, id)
	case gateway.Credits:
		return e.repos.Credits(e.db).Get(ctx, id)
	case gateway.Payments:
		return e.repos.Payments(e.db).Get(ctx, id)
	case gateway.Installments:
		return e.repos.Installments(e.db).Get(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotAddressable, entity)
}

// List returns every local record of entity ordered by id.
func (e *Engine) List(ctx context.Context, entity gateway.Entity) (any, error) {
	switch entity {
	case gateway.Clients:
		return e.repos.Clients(e.db).ListAll(ctx)
	case gateway.Credits:
		return e.repos.Credits(e.db).ListAll(ctx)
	case gateway.Payments:
		return e.repos.Payments(e.db).ListAll(ctx)
	case gateway.Installments:
		return e.repos.Installments(e.db).ListAll(ctx)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotAddressable, entity)
}

// Create stores an operator-entered client, credit or payment as pending.
// Credits need their client and payments their credit to exist locally.
func (e *Engine) Create(ctx context.Context, rec any) (any, error) {
	switch r := rec.(type) {
	case *models.Client:
		if err := validClient(r); err != nil {
			return nil, err
		}
		repo := e.repos.Clients(e.db)
		if err := absent(ctx, r.ClientID, repo.Fingerprint); err != nil {
			return nil, err
		}
		r.ExportStatus = models.StatusPending
		if err := repo.Insert(ctx, r); err != nil {
			return nil, err
		}
		return e.created(ctx, gateway.Clients, r.ClientID, func() (any, error) { return repo.Get(ctx, r.ClientID) })
	case *models.Credit:
		if err := e.validCredit(ctx, r); err != nil {
			return nil, err
		}
		repo := e.repos.Credits(e.db)
		if err := absent(ctx, r.CreditID, repo.Fingerprint); err != nil {
			return nil, err
		}
		r.ExportStatus = models.StatusPending
		if err := repo.Insert(ctx, r); err != nil {
			return nil, err
		}
		return e.created(ctx, gateway.Credits, r.CreditID, func() (any, error) { return repo.Get(ctx, r.CreditID) })
	case *models.Payment:
		if err := e.validPayment(ctx, r); err != nil {
			return nil, err
		}
		repo := e.repos.Payments(e.db)
		if err := absent(ctx, r.PaymentID, repo.Fingerprint); err != nil {
			return nil, err
		}
		r.ExportStatus = models.StatusPending
		if err := repo.Insert(ctx, r); err != nil {
			return nil, err
		}
		return e.created(ctx, gateway.Payments, r.PaymentID, func() (any, error) { return repo.Get(ctx, r.PaymentID) })
	}
	return nil, fmt.Errorf("%w: %T", ErrNotAddressable, rec)
}

// Update replaces the stored record id with rec. An unchanged record is not
// written. A changed one keeps its export status unless re-export on change
// is enabled, in which case it goes back to pending and its routes are
// forgotten, as an inbound update would.
func (e *Engine) Update(ctx context.Context, id string, rec any) (any, error) {
	switch r := rec.(type) {
	case *models.Client:
		if err := sameID(id, &r.ClientID); err != nil {
			return nil, err
		}
		if err := validClient(r); err != nil {
			return nil, err
		}
		repo := e.repos.Clients(e.db)
		return e.edit(ctx, gateway.Clients, routes.EntityClient, id, r.Fingerprint(), repo.Fingerprint,
			func() error { return repo.Update(ctx, r, e.opts.ReexportOnChange) },
			func() (any, error) { return repo.Get(ctx, id) })
	case *models.Credit:
		if err := sameID(id, &r.CreditID); err != nil {
			return nil, err
		}
		if err := e.validCredit(ctx, r); err != nil {
			return nil, err
		}
		repo := e.repos.Credits(e.db)
		return e.edit(ctx, gateway.Credits, routes.EntityCredit, id, r.Fingerprint(), repo.Fingerprint,
			func() error { return repo.Update(ctx, r, e.opts.ReexportOnChange) },
			func() (any, error) { return repo.Get(ctx, id) })
	case *models.Payment:
		if err := sameID(id, &r.PaymentID); err != nil {
			return nil, err
		}
		if err := e.validPayment(ctx, r); err != nil {
			return nil, err
		}
		repo := e.repos.Payments(e.db)
		return e.edit(ctx, gateway.Payments, "", id, r.Fingerprint(), repo.Fingerprint,
			func() error { return repo.Update(ctx, r, e.opts.ReexportOnChange) },
			func() (any, error) { return repo.Get(ctx, id) })
	}
	return nil, fmt.Errorf("%w: %T", ErrNotAddressable, rec)
}

func (e *Engine) created(ctx context.Context, entity gateway.Entity, id string, get func() (any, error)) (any, error) {
	e.logger.Info(ctx, "record created", "entity", string(entity), "record_id", id)
	return get()
}

func (e *Engine) edit(ctx context.Context, entity gateway.Entity, ledger, id, fp string,
	current func(context.Context, string) (string, error), update func() error, get func() (any, error)) (any, error) {
	stored, err := current(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == fp {
		return get()
	}
	if ledger != "" {
		if err := e.clearRoutes(ctx, ledger, id); err != nil {
			return nil, err
		}
	}
	if err := update(); err != nil {
		return nil, err
	}
	e.logger.Info(ctx, "record updated", "entity", string(entity), "record_id", id,
		"reexport", e.opts.ReexportOnChange)
	return get()
}

func (e *Engine) validCredit(ctx context.Context, c *models.Credit) error {
	if err := required("credit_id", c.CreditID, "client_id", c.ClientID); err != nil {
		return err
	}
	ok, err := e.repos.Clients(e.db).Exists(ctx, c.ClientID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: client %s", common.ErrMissingDependency, c.ClientID)
	}
	return nil
}

func (e *Engine) validPayment(ctx context.Context, p *models.Payment) error {
	if err := required("payment_id", p.PaymentID, "credit_id", p.CreditID); err != nil {
		return err
	}
	ok, err := e.repos.Credits(e.db).Exists(ctx, p.CreditID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: credit %s", common.ErrMissingDependency, p.CreditID)
	}
	return nil
}

func validClient(c *models.Client) error {
	return required("client_id", c.ClientID, "first_name", c.FirstName, "first_surname", c.FirstSurname)
}

// required takes name, value pairs.
func required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRecord, strings.Join(missing, ", "))
	}
	return nil
}

// sameID fills an empty body id from the path and rejects a mismatch.
func sameID(id string, body *string) error {
	if *body == "" {
		*body = id
	}
	if *body != id {
		return fmt.Errorf("%w: body id %q does not match %q", ErrInvalidRecord, *body, id)
	}
	return nil
}

func absent(ctx context.Context, id string, current func(context.Context, string) (string, error)) error {
	_, err := current(ctx, id)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrRecordExists, id)
	case errors.Is(err, common.ErrorNotFound):
		return nil
	}
	return err
}

// Delete removes a local record and its route ledger. Nothing is removed
// remotely; a record still present in the Source comes back on the next
// pull.
func (e *Engine) Delete(ctx context.Context, entity gateway.Entity, id string) error {
	var ledger string
	switch entity {
	case gateway.Clients:
		if err := e.repos.Clients(e.db).Delete(ctx, id); err != nil {
			return err
		}
		ledger = routes.EntityClient
	case gateway.Credits:
		if err := e.repos.Credits(e.db).Delete(ctx, id); err != nil {
			return err
		}
		ledger = routes.EntityCredit
	case gateway.Payments:
		return e.repos.Payments(e.db).Delete(ctx, id)
	default:
		return fmt.Errorf("%w: %s", ErrNotAddressable, entity)
	}
	e.logger.Info(ctx, "record deleted", "entity", string(entity), "record_id", id)
	return e.repos.Routes(e.db).Clear(ctx, ledger, id)
}

// Package reconcile implements the reconciliation passes between the Source
// System, the local store and the Target System.
package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/gateway/target"
	"github.com/fincoval/creditsync/internal/jsonx"
	"github.com/fincoval/creditsync/internal/logging"
	"github.com/fincoval/creditsync/internal/repositories/repomanager"
	"github.com/fincoval/creditsync/internal/transform"
	"github.com/fincoval/creditsync/internal/workpool"
	"github.com/google/uuid"
)

var ErrUnknownPass = errors.New("unknown pass")

// SourceGateway is the part of the Source System client the engine uses.
type SourceGateway interface {
	FetchAll(ctx context.Context, entity gateway.Entity) ([]json.RawMessage, error)
	Submit(ctx context.Context, entity gateway.Entity, record any) (*gateway.Ack, error)
}

// TargetGateway is the part of the Target System client the engine uses.
type TargetGateway interface {
	Submit(ctx context.Context, entity gateway.Entity, record any, routingKey string) (*gateway.Ack, error)
	ClientExists(ctx context.Context, routingKey, clientID string) (bool, error)
	DebtKey(ctx context.Context, routingKey, creditID string) (string, error)
	DebtSnapshot(ctx context.Context, routingKey, debtKey string) (*target.DebtSnapshot, error)
	Actions(ctx context.Context, routingKey, creditID string, since time.Time) ([]target.RemoteAction, error)
}

// Observer is told when a pass starts and finishes. The context returned by
// PassStarted is used for the rest of the pass.
type Observer interface {
	PassStarted(ctx context.Context, s *Summary) context.Context
	PassFinished(ctx context.Context, s *Summary)
}

// SummarySink receives every finished summary. Errors are logged only.
type SummarySink interface {
	Publish(ctx context.Context, s *Summary) error
}

type Options struct {
	Concurrency int
	// SourceTag marks credits that originate in the Source System.
	SourceTag string
	// DefaultRoutingKey is used for clients without credits and credits
	// without a company key.
	DefaultRoutingKey string
	// SourceCompanyKey tags records pushed back to the Source System.
	SourceCompanyKey string
	ActionCutoff     time.Time
	EnsureAttempts   int
	EnsureInterval   time.Duration
	ReexportOnChange bool
}

type Engine struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	source   SourceGateway
	target   TargetGateway
	tr       *transform.Transformer
	opts     Options
	logger   logging.Logger
	observer Observer
	sinks    []SummarySink
	now      func() time.Time
}

func New(db *sql.DB, repos repomanager.RepositoryManager, source SourceGateway, target TargetGateway,
	tr *transform.Transformer, opts Options, logger logging.Logger) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = workpool.DefaultSize
	}
	if opts.EnsureAttempts < 1 {
		opts.EnsureAttempts = 1
	}
	return &Engine{
		db:       db,
		repos:    repos,
		source:   source,
		target:   target,
		tr:       tr,
		opts:     opts,
		logger:   logger.With("module", "reconcile"),
		observer: nopObserver{},
		now:      time.Now,
	}
}

func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

func (e *Engine) AddSink(s SummarySink) {
	e.sinks = append(e.sinks, s)
}

func (e *Engine) handler(p Pass) func(context.Context, *Summary) error {
	switch p {
	case ClientsPull:
		return e.pullClients
	case CreditsPull:
		return e.pullCredits
	case PaymentsPull:
		return e.pullPayments
	case ClientsPush:
		return e.pushClients
	case CreditsPush:
		return e.pushCredits
	case PaymentsPush:
		return e.pushPayments
	case InstallmentsPull:
		return e.pullInstallments
	case InstallmentsPush:
		return e.pushInstallments
	case ActionsPull:
		return e.pullActions
	case ActionsPush:
		return e.pushActions
	}
	return nil
}

// Run executes one pass to completion. A failure of the pass as a whole is
// reported in Summary.Failure; the error is only set for an unknown pass.
func (e *Engine) Run(ctx context.Context, p Pass) (*Summary, error) {
	fn := e.handler(p)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPass, p)
	}

	s := newSummary(p, uuid.NewString(), e.now())
	ctx = e.observer.PassStarted(ctx, s)
	e.logger.Debug(ctx, "pass started", "pass", p, "run_id", s.RunID)

	if err := fn(ctx, s); err != nil {
		s.fail(err)
		e.logger.Error(ctx, "pass failed", "pass", p, "run_id", s.RunID, "error", err)
	}
	s.FinishedAt = e.now()

	e.observer.PassFinished(ctx, s)
	e.logger.Info(ctx, "pass finished", "summary", s)
	for _, sink := range e.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			e.logger.Warn(ctx, "summary sink failed", "pass", p, "run_id", s.RunID, "error", err)
		}
	}
	return s, nil
}

func (e *Engine) PullClients(ctx context.Context) (*Summary, error)  { return e.Run(ctx, ClientsPull) }
func (e *Engine) PullCredits(ctx context.Context) (*Summary, error)  { return e.Run(ctx, CreditsPull) }
func (e *Engine) PullPayments(ctx context.Context) (*Summary, error) { return e.Run(ctx, PaymentsPull) }
func (e *Engine) PushClients(ctx context.Context) (*Summary, error)  { return e.Run(ctx, ClientsPush) }
func (e *Engine) PushCredits(ctx context.Context) (*Summary, error)  { return e.Run(ctx, CreditsPush) }
func (e *Engine) PushPayments(ctx context.Context) (*Summary, error) { return e.Run(ctx, PaymentsPush) }
func (e *Engine) PullInstallments(ctx context.Context) (*Summary, error) {
	return e.Run(ctx, InstallmentsPull)
}
func (e *Engine) PushInstallments(ctx context.Context) (*Summary, error) {
	return e.Run(ctx, InstallmentsPush)
}
func (e *Engine) PullActions(ctx context.Context) (*Summary, error) { return e.Run(ctx, ActionsPull) }
func (e *Engine) PushActions(ctx context.Context) (*Summary, error) { return e.Run(ctx, ActionsPush) }

// each runs fn for every item under a fresh limiter. Admission stops when
// ctx ends; records already admitted run to completion on a context that is
// not cancelled with it.
func each[T any](ctx context.Context, e *Engine, s *Summary, items []T,
	id func(int, T) string, fn func(context.Context, T) (outcome, error)) error {

	pool := workpool.New(e.opts.Concurrency)
	work := context.WithoutCancel(ctx)

	var admitErr error
	for i, it := range items {
		recordID := id(i, it)
		err := pool.Go(ctx, func() {
			defer func() {
				if r := recover(); r != nil {
					e.record(work, s, recordID, settled, fmt.Errorf("panic: %v", r))
				}
			}()
			out, err := fn(work, it)
			if err == nil && out == settled {
				return
			}
			e.record(work, s, recordID, out, err)
		})
		if err != nil {
			admitErr = fmt.Errorf("interrupted after %d of %d records: %w", i, len(items), err)
			break
		}
	}
	pool.Wait()

	s.mu.Lock()
	if peak := pool.Peak(); peak > s.PeakInFlight {
		s.PeakInFlight = peak
	}
	s.mu.Unlock()
	return admitErr
}

func (e *Engine) record(ctx context.Context, s *Summary, recordID string, out outcome, err error) {
	class := s.settle(recordID, out, err)
	if err != nil {
		e.logger.Warn(ctx, "record not reconciled",
			"pass", s.Pass, "record_id", recordID, "class", class, "kind", common.Kind(err), "error", err)
	}
}

// rawID reads the natural key of a raw remote record, falling back to its
// position in the batch.
func rawID(key string) func(int, json.RawMessage) string {
	return func(i int, raw json.RawMessage) string {
		var peek map[string]json.RawMessage
		if json.Unmarshal(raw, &peek) == nil {
			if v, ok := peek[key]; ok {
				var t jsonx.Text
				if json.Unmarshal(v, &t) == nil && t != "" {
					return t.String()
				}
			}
		}
		return "#" + strconv.Itoa(i)
	}
}

type nopObserver struct{}

func (nopObserver) PassStarted(ctx context.Context, _ *Summary) context.Context { return ctx }
func (nopObserver) PassFinished(context.Context, *Summary)                     {}

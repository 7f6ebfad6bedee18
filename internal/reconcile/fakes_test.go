package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/gateway/target"
	"github.com/fincoval/creditsync/internal/logging"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/fincoval/creditsync/internal/repositories/actions"
	"github.com/fincoval/creditsync/internal/repositories/clients"
	"github.com/fincoval/creditsync/internal/repositories/credits"
	"github.com/fincoval/creditsync/internal/repositories/installments"
	"github.com/fincoval/creditsync/internal/repositories/payments"
	"github.com/fincoval/creditsync/internal/repositories/repomanager"
	"github.com/fincoval/creditsync/internal/repositories/routes"
)

// -------- in-memory store --------

type memStore struct {
	mu           sync.Mutex
	clients      map[string]models.Client
	credits      map[string]models.Credit
	payments     map[string]models.Payment
	installments map[string]models.Installment
	actions      map[string]models.Action
	routes       map[string]bool
	writes       int
}

func newMemStore() *memStore {
	return &memStore{
		clients:      map[string]models.Client{},
		credits:      map[string]models.Credit{},
		payments:     map[string]models.Payment{},
		installments: map[string]models.Installment{},
		actions:      map[string]models.Action{},
		routes:       map[string]bool{},
	}
}

func routeKey(entity, id, key string) string { return entity + "|" + id + "|" + key }

type fakeRepoManager struct {
	repomanager.RepositoryManager
	s *memStore
}

func (m *fakeRepoManager) Clients(dbx.DBTX) clients.Repository           { return &memClients{s: m.s} }
func (m *fakeRepoManager) Credits(dbx.DBTX) credits.Repository           { return &memCredits{s: m.s} }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository         { return &memPayments{s: m.s} }
func (m *fakeRepoManager) Installments(dbx.DBTX) installments.Repository { return &memInstallments{s: m.s} }
func (m *fakeRepoManager) Actions(dbx.DBTX) actions.Repository           { return &memActions{s: m.s} }
func (m *fakeRepoManager) Routes(dbx.DBTX) routes.Repository             { return &memRoutes{s: m.s} }

type memClients struct {
	clients.Repository
	s *memStore
}

func (r *memClients) Get(_ context.Context, id string) (*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *memClients) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.clients[id]
	return ok, nil
}

func (r *memClients) Fingerprint(_ context.Context, id string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	return c.Hash, nil
}

func (r *memClients) Insert(_ context.Context, c *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ExportStatus == "" {
		c.ExportStatus = models.StatusPending
	}
	c.Hash = c.Fingerprint()
	r.s.clients[c.ClientID] = *c
	r.s.writes++
	return nil
}

func (r *memClients) Update(_ context.Context, c *models.Client, reset bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.clients[c.ClientID]
	if !ok {
		return common.ErrorNotFound
	}
	c.ExportStatus = old.ExportStatus
	if reset {
		c.ExportStatus = models.StatusPending
	}
	c.Hash = c.Fingerprint()
	r.s.clients[c.ClientID] = *c
	r.s.writes++
	return nil
}

func (r *memClients) ListPending(context.Context) ([]*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Client
	for _, c := range r.s.clients {
		if c.ExportStatus == models.StatusPending {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

func (r *memClients) ListAll(context.Context) ([]*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

func (r *memClients) setStatus(id string, st models.ExportStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.ExportStatus = st
	r.s.clients[id] = c
	return nil
}

func (r *memClients) MarkExported(_ context.Context, id string) error {
	return r.setStatus(id, models.StatusExported)
}

func (r *memClients) MarkPending(_ context.Context, id string) error {
	return r.setStatus(id, models.StatusPending)
}

type memCredits struct {
	credits.Repository
	s *memStore
}

func (r *memCredits) Get(_ context.Context, id string) (*models.Credit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credits[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *memCredits) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.credits[id]
	return ok, nil
}

func (r *memCredits) Fingerprint(_ context.Context, id string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credits[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	return c.Hash, nil
}

func (r *memCredits) Insert(_ context.Context, c *models.Credit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ExportStatus == "" {
		c.ExportStatus = models.StatusPending
	}
	c.Hash = c.Fingerprint()
	r.s.credits[c.CreditID] = *c
	r.s.writes++
	return nil
}

func (r *memCredits) Update(_ context.Context, c *models.Credit, reset bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.credits[c.CreditID]
	if !ok {
		return common.ErrorNotFound
	}
	c.ExportStatus = old.ExportStatus
	if reset {
		c.ExportStatus = models.StatusPending
	}
	c.Hash = c.Fingerprint()
	r.s.credits[c.CreditID] = *c
	r.s.writes++
	return nil
}

func (r *memCredits) list(keep func(models.Credit) bool) []*models.Credit {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Credit
	for _, c := range r.s.credits {
		if keep(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreditID < out[j].CreditID })
	return out
}

func (r *memCredits) ListPending(context.Context) ([]*models.Credit, error) {
	return r.list(func(c models.Credit) bool { return c.ExportStatus == models.StatusPending }), nil
}

func (r *memCredits) ListAll(context.Context) ([]*models.Credit, error) {
	return r.list(func(models.Credit) bool { return true }), nil
}

func (r *memCredits) ListBySource(_ context.Context, source string) ([]*models.Credit, error) {
	return r.list(func(c models.Credit) bool { return c.Source == source }), nil
}

func (r *memCredits) CompanyKeys(context.Context) ([]models.ClientCompany, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[models.ClientCompany]bool{}
	var out []models.ClientCompany
	for _, c := range r.s.credits {
		p := models.ClientCompany{ClientID: c.ClientID, CompanyKey: c.CompanyKey}
		if p.CompanyKey == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].CompanyKey < out[j].CompanyKey
	})
	return out, nil
}

func (r *memCredits) setStatus(id string, st models.ExportStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credits[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.ExportStatus = st
	r.s.credits[id] = c
	return nil
}

func (r *memCredits) MarkExported(_ context.Context, id string) error {
	return r.setStatus(id, models.StatusExported)
}

func (r *memCredits) MarkPending(_ context.Context, id string) error {
	return r.setStatus(id, models.StatusPending)
}

type memPayments struct {
	payments.Repository
	s *memStore
}

func (r *memPayments) Fingerprint(_ context.Context, id string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	return p.Hash, nil
}

func (r *memPayments) Insert(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ExportStatus == "" {
		p.ExportStatus = models.StatusPending
	}
	p.Hash = p.Fingerprint()
	r.s.payments[p.PaymentID] = *p
	r.s.writes++
	return nil
}

func (r *memPayments) Update(_ context.Context, p *models.Payment, reset bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.payments[p.PaymentID]
	if !ok {
		return common.ErrorNotFound
	}
	p.ExportStatus = old.ExportStatus
	if reset {
		p.ExportStatus = models.StatusPending
	}
	p.Hash = p.Fingerprint()
	r.s.payments[p.PaymentID] = *p
	r.s.writes++
	return nil
}

func (r *memPayments) ListPending(context.Context) ([]*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.s.payments {
		if p.ExportStatus == models.StatusPending {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentID < out[j].PaymentID })
	return out, nil
}

func (r *memPayments) ListAll(context.Context) ([]*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Payment, 0, len(r.s.payments))
	for _, p := range r.s.payments {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentID < out[j].PaymentID })
	return out, nil
}

func (r *memPayments) setStatus(id string, st models.ExportStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.ExportStatus = st
	r.s.payments[id] = p
	return nil
}

func (r *memPayments) MarkExported(_ context.Context, id string) error {
	return r.setStatus(id, models.StatusExported)
}

func (r *memPayments) MarkPending(_ context.Context, id string) error {
	return r.setStatus(id, models.StatusPending)
}

func (r *memPayments) Get(_ context.Context, id string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *memPayments) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.payments, id)
	return nil
}

func (r *memClients) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.clients, id)
	return nil
}

func (r *memCredits) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.credits[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.credits, id)
	return nil
}

type memInstallments struct {
	installments.Repository
	s *memStore
}

func (r *memInstallments) Get(ctx context.Context, id string) (*models.Installment, error) {
	return r.GetForUpdate(ctx, id)
}

func (r *memInstallments) ListAll(context.Context) ([]*models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Installment, 0, len(r.s.installments))
	for _, i := range r.s.installments {
		i := i
		out = append(out, &i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreditID < out[b].CreditID })
	return out, nil
}

func (r *memInstallments) GetForUpdate(_ context.Context, id string) (*models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.installments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &i, nil
}

func (r *memInstallments) Insert(_ context.Context, i *models.Installment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i.SourceStatus = models.StatusPending
	i.Hash = i.Fingerprint()
	r.s.installments[i.CreditID] = *i
	r.s.writes++
	return nil
}

func (r *memInstallments) Update(_ context.Context, i *models.Installment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.installments[i.CreditID]; !ok {
		return common.ErrorNotFound
	}
	i.SourceStatus = models.StatusPending
	i.Hash = i.Fingerprint()
	r.s.installments[i.CreditID] = *i
	r.s.writes++
	return nil
}

func (r *memInstallments) ListPendingSource(context.Context) ([]*models.Installment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Installment
	for _, i := range r.s.installments {
		if i.SourceStatus == models.StatusPending {
			i := i
			out = append(out, &i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreditID < out[b].CreditID })
	return out, nil
}

func (r *memInstallments) MarkSourceExported(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.installments[id]
	if !ok {
		return common.ErrorNotFound
	}
	i.SourceStatus = models.StatusExported
	r.s.installments[id] = i
	return nil
}

type memActions struct {
	actions.Repository
	s *memStore
}

func (r *memActions) InsertIfAbsent(_ context.Context, a *models.Action) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.actions[a.ActionID]; ok {
		return false, nil
	}
	cp := *a
	cp.SourceStatus = models.StatusPending
	r.s.actions[a.ActionID] = cp
	r.s.writes++
	return true, nil
}

func (r *memActions) ListPendingSource(context.Context) ([]*models.Action, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Action
	for _, a := range r.s.actions {
		if a.SourceStatus == models.StatusPending {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionID < out[j].ActionID })
	return out, nil
}

func (r *memActions) MarkSourceExported(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.actions[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.SourceStatus = models.StatusExported
	r.s.actions[id] = a
	return nil
}

type memRoutes struct {
	routes.Repository
	s *memStore
}

func (r *memRoutes) Exported(_ context.Context, entity, id, key string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.routes[routeKey(entity, id, key)], nil
}

func (r *memRoutes) Mark(_ context.Context, entity, id, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.routes[routeKey(entity, id, key)] = true
	return nil
}

func (r *memRoutes) Clear(_ context.Context, entity, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prefix := entity + "|" + id + "|"
	for k := range r.s.routes {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(r.s.routes, k)
		}
	}
	return nil
}

// -------- gateways --------

type fakeSource struct {
	mu        sync.Mutex
	records   map[gateway.Entity][]json.RawMessage
	fetchErr  error
	submitErr error
	submitted map[gateway.Entity][]any
}

func newFakeSource() *fakeSource {
	return &fakeSource{records: map[gateway.Entity][]json.RawMessage{}, submitted: map[gateway.Entity][]any{}}
}

func (f *fakeSource) FetchAll(_ context.Context, entity gateway.Entity) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records[entity], nil
}

func (f *fakeSource) Submit(_ context.Context, entity gateway.Entity, record any) (*gateway.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return &gateway.Ack{Code: 500}, f.submitErr
	}
	f.submitted[entity] = append(f.submitted[entity], record)
	return &gateway.Ack{Accepted: true, Code: 200, Message: "OK"}, nil
}

type submission struct {
	Entity gateway.Entity
	Key    string
	ID     string
}

type fakeTarget struct {
	mu          sync.Mutex
	submissions []submission
	// reject, when set, decides the verdict for a submission.
	reject       func(sub submission) error
	known        map[string]bool
	hideClients  bool
	existsCalls  int
	debtKeys     map[string]string
	snapshots    map[string]*target.DebtSnapshot
	actions      map[string][]target.RemoteAction
	actionsSince time.Time
	delay        time.Duration

	inFlight atomic.Int64
	peak     atomic.Int64
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		known:     map[string]bool{},
		debtKeys:  map[string]string{},
		snapshots: map[string]*target.DebtSnapshot{},
		actions:   map[string][]target.RemoteAction{},
	}
}

func recordID(record any) string {
	b, _ := json.Marshal(record)
	var peek struct {
		Code   string `json:"codigo"`
		Credit struct {
			Number string `json:"consecutivo"`
		} `json:"credito"`
		Payments []struct {
			Transaction string `json:"transaccion"`
		} `json:"abonos"`
	}
	_ = json.Unmarshal(b, &peek)
	switch {
	case peek.Code != "":
		return peek.Code
	case peek.Credit.Number != "":
		return peek.Credit.Number
	case len(peek.Payments) > 0:
		return peek.Payments[0].Transaction
	}
	return ""
}

func (f *fakeTarget) enter() func() {
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeTarget) Submit(_ context.Context, entity gateway.Entity, record any, key string) (*gateway.Ack, error) {
	defer f.enter()()

	sub := submission{Entity: entity, Key: key, ID: recordID(record)}
	f.mu.Lock()
	f.submissions = append(f.submissions, sub)
	reject := f.reject
	f.mu.Unlock()

	if reject != nil {
		if err := reject(sub); err != nil {
			return &gateway.Ack{Code: 200, Message: err.Error()}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if entity == gateway.Clients && !f.hideClients {
		f.known[key+"|"+sub.ID] = true
	}
	return &gateway.Ack{Accepted: true, Code: 200, Message: "OK"}, nil
}

func (f *fakeTarget) ClientExists(_ context.Context, key, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	return f.known[key+"|"+id], nil
}

func (f *fakeTarget) DebtKey(_ context.Context, _ string, creditID string) (string, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.debtKeys[creditID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return k, nil
}

func (f *fakeTarget) DebtSnapshot(_ context.Context, _ string, debtKey string) (*target.DebtSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snapshots[debtKey]
	if !ok {
		return nil, &common.RemoteError{Kind: common.ErrRemoteRejected, Status: 200, Message: "no cierre"}
	}
	return s, nil
}

func (f *fakeTarget) Actions(_ context.Context, _ string, creditID string, since time.Time) ([]target.RemoteAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionsSince = since
	return f.actions[creditID], nil
}

func (f *fakeTarget) submitted(entity gateway.Entity) []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submission
	for _, s := range f.submissions {
		if s.Entity == entity {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeTarget) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = nil
}

type recordingSink struct {
	mu   sync.Mutex
	got  []*Summary
	fail error
}

func (r *recordingSink) Publish(_ context.Context, s *Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
	return r.fail
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(_ context.Context, msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(_ context.Context, msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(_ context.Context, msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(_ context.Context, msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) With(...any) logging.Logger                      { return l }

func (l *recordingLogger) warnings(msg string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == "warn" && e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

// -------- raw records --------

func clientRaw(id, first, surname string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"idcliente":%q,"primernombre":%q,"primerapellido":%q,"ciudadresidencia":"Bogotá"}`, id, first, surname))
}

func creditRaw(id, clientID, company string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"idcredito":%q,"idcliente":%q,"idempresa":%q,"valortotal":"1500000","numcuotas":12}`, id, clientID, company))
}

func paymentRaw(id, creditID, paidOn string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"idtransaccion":%q,"idcredito":%q,"fechapago":%q,"valor":"250000"}`, id, creditID, paidOn))
}

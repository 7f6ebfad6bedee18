package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/logging"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/fincoval/creditsync/internal/reconcile"
	"github.com/fincoval/creditsync/internal/scheduler"
)

type call struct {
	op     string
	entity gateway.Entity
	id     string
}

type fakeEngine struct {
	calls   []call
	records map[string]any
	runErr  error
}

func (f *fakeEngine) Run(_ context.Context, p reconcile.Pass) (*reconcile.Summary, error) {
	f.calls = append(f.calls, call{op: "run", id: string(p)})
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", reconcile.ErrUnknownPass, p)
	}
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &reconcile.Summary{Pass: p, RunID: "r1", Inserted: 2, Errors: []reconcile.RecordError{}}, nil
}

func (f *fakeEngine) Lookup(_ context.Context, entity gateway.Entity, id string) (any, error) {
	f.calls = append(f.calls, call{"lookup", entity, id})
	rec, ok := f.records[string(entity)+"/"+id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

func (f *fakeEngine) List(_ context.Context, entity gateway.Entity) (any, error) {
	f.calls = append(f.calls, call{op: "list", entity: entity})
	out := []any{}
	for key, rec := range f.records {
		if strings.HasPrefix(key, string(entity)+"/") {
			out = append(out, rec)
		}
	}
	return out, nil
}

func recordKey(rec any) (string, error) {
	switch r := rec.(type) {
	case *models.Client:
		return "clients/" + r.ClientID, nil
	case *models.Credit:
		return "credits/" + r.CreditID, nil
	case *models.Payment:
		return "payments/" + r.PaymentID, nil
	}
	return "", reconcile.ErrNotAddressable
}

func (f *fakeEngine) Create(_ context.Context, rec any) (any, error) {
	key, err := recordKey(rec)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, call{op: "create", id: key})
	if _, ok := f.records[key]; ok {
		return nil, fmt.Errorf("%w: %s", reconcile.ErrRecordExists, key)
	}
	if p, ok := rec.(*models.Payment); ok {
		if _, ok := f.records["credits/"+p.CreditID]; !ok {
			return nil, fmt.Errorf("%w: credit %s", common.ErrMissingDependency, p.CreditID)
		}
	}
	f.records[key] = rec
	return rec, nil
}

func (f *fakeEngine) Update(_ context.Context, id string, rec any) (any, error) {
	if c, ok := rec.(*models.Client); ok && c.ClientID == "" {
		c.ClientID = id
	}
	key, err := recordKey(rec)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, call{op: "update", id: key})
	if _, ok := f.records[key]; !ok {
		return nil, common.ErrorNotFound
	}
	f.records[key] = rec
	return rec, nil
}

func (f *fakeEngine) Delete(_ context.Context, entity gateway.Entity, id string) error {
	f.calls = append(f.calls, call{"delete", entity, id})
	if _, ok := f.records[string(entity)+"/"+id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.records, string(entity)+"/"+id)
	return nil
}

func (f *fakeEngine) Reexport(_ context.Context, entity gateway.Entity, id string) error {
	f.calls = append(f.calls, call{"reexport", entity, id})
	if _, ok := f.records[string(entity)+"/"+id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

type fakeJobs struct {
	running map[scheduler.JobClass]bool
	fired   []scheduler.JobClass
}

func (f *fakeJobs) States() map[scheduler.JobClass]scheduler.JobState {
	return map[scheduler.JobClass]scheduler.JobState{
		scheduler.InboundSync: {Running: f.running[scheduler.InboundSync], Runs: 3},
	}
}

func (f *fakeJobs) Trigger(class scheduler.JobClass) error {
	switch {
	case class != scheduler.InboundSync && class != scheduler.OutboundExport:
		return fmt.Errorf("%w: %q", scheduler.ErrUnknownJob, class)
	case f.running[class]:
		return fmt.Errorf("%w: %s", scheduler.ErrJobRunning, class)
	}
	f.fired = append(f.fired, class)
	return nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func setupTestRouter(t *testing.T) (*gin.Engine, *fakeEngine, *fakeJobs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng := &fakeEngine{records: map[string]any{
		"clients/C1": &models.Client{ClientID: "C1", FirstName: "Ana"},
		"credits/K1": &models.Credit{CreditID: "K1", ClientID: "C1"},
		"installments/K1": &models.Installment{CreditID: "K1"},
	}}
	jobs := &fakeJobs{running: map[scheduler.JobClass]bool{scheduler.OutboundExport: true}}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("creditsync_up 1\n"))
	})

	return NewRouter(eng, jobs, fakePinger{}, metrics, logging.Nop()), eng, jobs
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	r, _, _ := setupTestRouter(t)

	w := do(r, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	down := NewRouter(&fakeEngine{}, &fakeJobs{}, fakePinger{err: errors.New("conn refused")},
		http.NotFoundHandler(), logging.Nop())
	w = do(down, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "conn refused", decode(t, w)["error"])
}

func TestMetrics(t *testing.T) {
	r, _, _ := setupTestRouter(t)

	w := do(r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "creditsync_up 1")
}

func TestJobs(t *testing.T) {
	r, _, jobs := setupTestRouter(t)

	w := do(r, http.MethodGet, "/jobs")
	require.Equal(t, http.StatusOK, w.Code)
	state := decode(t, w)["inbound-sync"].(map[string]any)
	assert.EqualValues(t, 3, state["runs"])

	tests := []struct {
		class string
		code  int
	}{
		{"inbound-sync", http.StatusAccepted},
		{"outbound-export", http.StatusConflict},
		{"nightly", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			w := do(r, http.MethodPost, "/jobs/"+tt.class+"/run")
			assert.Equal(t, tt.code, w.Code)
		})
	}
	assert.Equal(t, []scheduler.JobClass{scheduler.InboundSync}, jobs.fired)
}

func TestRunPass(t *testing.T) {
	r, eng, _ := setupTestRouter(t)

	w := do(r, http.MethodPost, "/passes/clients.pull/run")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "clients.pull", body["pass"])
	assert.EqualValues(t, 2, body["inserted"])

	w = do(r, http.MethodPost, "/passes/clients.sideways/run")
	assert.Equal(t, http.StatusNotFound, w.Code)

	eng.runErr = common.StorageError(errors.New("db down"))
	w = do(r, http.MethodPost, "/passes/clients.pull/run")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "storage_failure", decode(t, w)["kind"])
}

func TestRecords(t *testing.T) {
	r, eng, _ := setupTestRouter(t)

	w := do(r, http.MethodGet, "/clients/C1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana", decode(t, w)["first_name"])

	w = do(r, http.MethodGet, "/payments/P9")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["kind"])

	w = do(r, http.MethodPost, "/credits/K1/reexport")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/credits/K1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, "/credits/K1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/installments/K1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "K1", decode(t, w)["credit_id"])
	w = do(r, http.MethodDelete, "/installments/K1")
	assert.Equal(t, http.StatusNotFound, w.Code, "snapshots are read-only")

	assert.Contains(t, eng.calls, call{"reexport", gateway.Credits, "K1"})
	assert.Contains(t, eng.calls, call{"delete", gateway.Credits, "K1"})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: actions", reconcile.ErrNotReexportable)))
	assert.Equal(t, http.StatusBadRequest, statusFor(reconcile.ErrNotAddressable))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: empty", reconcile.ErrInvalidRecord)))
	assert.Equal(t, http.StatusConflict, statusFor(reconcile.ErrRecordExists))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(common.ErrMissingDependency))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestRecordCollections(t *testing.T) {
	r, eng, _ := setupTestRouter(t)

	w := do(r, http.MethodGet, "/clients")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "C1", list[0]["client_id"])

	w = do(r, http.MethodGet, "/installments")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, eng.calls, call{op: "list", entity: gateway.Installments})

	w = doJSON(r, http.MethodPost, "/installments", `{"credit_id":"K2"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAndUpdateRecords(t *testing.T) {
	r, eng, _ := setupTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
		kind   string
	}{
		{"create client", http.MethodPost, "/clients", `{"client_id":"C2","first_name":"Luis","first_surname":"Mora"}`, http.StatusCreated, ""},
		{"duplicate client", http.MethodPost, "/clients", `{"client_id":"C1","first_name":"Ana","first_surname":"Rojas"}`, http.StatusConflict, "record_exists"},
		{"malformed body", http.MethodPost, "/credits", `{"credit_id":`, http.StatusBadRequest, "invalid_record"},
		{"wrong field type", http.MethodPost, "/credits", `{"credit_id":"K2","installment_count":"twelve"}`, http.StatusBadRequest, "invalid_record"},
		{"payment without credit", http.MethodPost, "/payments", `{"payment_id":"P1","credit_id":"K404","amount":"10"}`, http.StatusUnprocessableEntity, "missing_dependency"},
		{"create payment", http.MethodPost, "/payments", `{"payment_id":"P1","credit_id":"K1","amount":"10"}`, http.StatusCreated, ""},
		{"update client", http.MethodPut, "/clients/C1", `{"first_name":"Ana","first_surname":"Rojas","email":"ana@example.com"}`, http.StatusOK, ""},
		{"update missing", http.MethodPut, "/credits/K9", `{"credit_id":"K9","client_id":"C1"}`, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, tt.method, tt.path, tt.body)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.kind != "" {
				assert.Equal(t, tt.kind, decode(t, w)["kind"])
			}
		})
	}

	assert.Contains(t, eng.records, "clients/C2")
	assert.Contains(t, eng.records, "payments/P1")
	assert.Equal(t, "ana@example.com", eng.records["clients/C1"].(*models.Client).Email)
}

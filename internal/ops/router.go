// Package ops exposes the operator surfaces of the service: an HTTP API to
// inspect and trigger jobs, run passes and manage local records, and a
// gRPC health service reporting per-job health.
package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/gateway"
	"github.com/fincoval/creditsync/internal/logging"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/fincoval/creditsync/internal/reconcile"
	"github.com/fincoval/creditsync/internal/scheduler"
)

// Engine is the part of the reconciliation engine the API drives.
type Engine interface {
	Run(ctx context.Context, p reconcile.Pass) (*reconcile.Summary, error)
	Lookup(ctx context.Context, entity gateway.Entity, id string) (any, error)
	List(ctx context.Context, entity gateway.Entity) (any, error)
	Create(ctx context.Context, rec any) (any, error)
	Update(ctx context.Context, id string, rec any) (any, error)
	Delete(ctx context.Context, entity gateway.Entity, id string) error
	Reexport(ctx context.Context, entity gateway.Entity, id string) error
}

type Jobs interface {
	States() map[scheduler.JobClass]scheduler.JobState
	Trigger(class scheduler.JobClass) error
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

var recordEntities = []gateway.Entity{gateway.Clients, gateway.Credits, gateway.Payments}

type handler struct {
	engine Engine
	jobs   Jobs
	db     Pinger
	logger logging.Logger
}

// NewRouter builds the ops HTTP routes. metrics serves GET /metrics.
func NewRouter(engine Engine, jobs Jobs, db Pinger, metrics http.Handler, logger logging.Logger) *gin.Engine {
	h := &handler{engine: engine, jobs: jobs, db: db, logger: logger.With("module", "ops")}

	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog)

	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(metrics))

	r.GET("/jobs", h.listJobs)
	r.POST("/jobs/:class/run", h.triggerJob)
	r.POST("/passes/:pass/run", h.runPass)

	for _, entity := range recordEntities {
		coll := "/" + string(entity)
		base := coll + "/:id"
		r.GET(coll, h.listRecords(entity))
		r.POST(coll, h.createRecord(entity))
		r.GET(base, h.getRecord(entity))
		r.PUT(base, h.updateRecord(entity))
		r.DELETE(base, h.deleteRecord(entity))
		r.POST(base+"/reexport", h.reexport(entity))
	}

	// installment snapshots are written by sync only
	r.GET("/installments", h.listRecords(gateway.Installments))
	r.GET("/installments/:id", h.getRecord(gateway.Installments))

	return r
}

func (h *handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.logger.Debug(c.Request.Context(), "ops request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"elapsed", time.Since(start),
	)
}

func (h *handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobs.States())
}

func (h *handler) triggerJob(c *gin.Context) {
	class := scheduler.JobClass(c.Param("class"))
	if err := h.jobs.Trigger(class); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "triggered", "job": class})
}

func (h *handler) runPass(c *gin.Context) {
	s, err := h.engine.Run(c.Request.Context(), reconcile.Pass(c.Param("pass")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handler) getRecord(entity gateway.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := h.engine.Lookup(c.Request.Context(), entity, c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (h *handler) listRecords(entity gateway.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := h.engine.List(c.Request.Context(), entity)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

func (h *handler) createRecord(entity gateway.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := bindRecord(c, entity)
		if err != nil {
			h.fail(c, err)
			return
		}
		out, err := h.engine.Create(c.Request.Context(), rec)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

func (h *handler) updateRecord(entity gateway.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := bindRecord(c, entity)
		if err != nil {
			h.fail(c, err)
			return
		}
		out, err := h.engine.Update(c.Request.Context(), c.Param("id"), rec)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func bindRecord(c *gin.Context, entity gateway.Entity) (any, error) {
	var rec any
	switch entity {
	case gateway.Clients:
		rec = &models.Client{}
	case gateway.Credits:
		rec = &models.Credit{}
	case gateway.Payments:
		rec = &models.Payment{}
	default:
		return nil, fmt.Errorf("%w: %s", reconcile.ErrNotAddressable, entity)
	}
	if err := c.ShouldBindJSON(rec); err != nil {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrInvalidRecord, err)
	}
	return rec, nil
}

func (h *handler) deleteRecord(entity gateway.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.engine.Delete(c.Request.Context(), entity, c.Param("id")); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *handler) reexport(entity gateway.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := h.engine.Reexport(c.Request.Context(), entity, id); err != nil {
			h.fail(c, err)
			return
		}
		h.logger.Info(c.Request.Context(), "record queued for re-export", "entity", string(entity), "record_id", id)
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
	}
}

func (h *handler) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "ops request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(code, gin.H{"error": err.Error(), "kind": kindOf(err)})
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, reconcile.ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, reconcile.ErrRecordExists):
		return "record_exists"
	}
	return common.Kind(err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, reconcile.ErrUnknownPass),
		errors.Is(err, scheduler.ErrUnknownJob):
		return http.StatusNotFound
	case errors.Is(err, scheduler.ErrJobRunning),
		errors.Is(err, reconcile.ErrRecordExists):
		return http.StatusConflict
	case errors.Is(err, reconcile.ErrNotReexportable),
		errors.Is(err, reconcile.ErrNotAddressable),
		errors.Is(err, reconcile.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrMissingDependency):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

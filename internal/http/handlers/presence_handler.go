// Presence HTTP handlers.
//
// This file exposes REST endpoints for the presence reconciliation API:
//   - GET  /presences   (current derived leave state per user)
//   - POST /reconcile   (trigger a full reconciliation pass)
//   - GET  /runs        (list past reconciliation runs, paginated)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/presencelab/go-presence-sync/internal/domain"
	"github.com/presencelab/go-presence-sync/internal/reconcile"
	"github.com/presencelab/go-presence-sync/internal/services"
	"github.com/presencelab/go-presence-sync/internal/utils"
)

//
// Service contracts (context-aware)
//

// PresenceService defines read operations over derived presence state.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PresenceService interface {
	// List returns the derived leave state for every enabled user.
	List(ctx context.Context) ([]services.Presence, error)
}

// SyncService defines reconciliation operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SyncService interface {
	// Trigger runs a full reconciliation pass and records it.
	Trigger(ctx context.Context, trigger string) (reconcile.Summary, error)
	// RunsPage returns a page of past runs and the total count.
	RunsPage(ctx context.Context, page, pageSize int) ([]domain.ReconcileRun, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for presences and reconciliation runs.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	presSvc PresenceService
	syncSvc SyncService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(presSvc PresenceService, syncSvc SyncService) *Handlers {
	return &Handlers{presSvc: presSvc, syncSvc: syncSvc}
}

//
// DTOs
//

// ReconcileResponse summarizes a completed reconciliation pass.
type ReconcileResponse struct {
	// Changed lists the tris whose stored leave data was updated.
	Changed []string `json:"changed"`
	Checked int      `json:"checked"`
	Errored int      `json:"errored"`
	Created int      `json:"created"`
	// DurationMS is the wall-clock duration of the pass in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRunsResponse wraps a page of reconciliation runs and pagination metadata.
type ListRunsResponse struct {
	Runs       []domain.ReconcileRun `json:"runs"`
	Pagination Pagination            `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// ListPresences godoc
// @ID          listPresences
// @Summary     List derived presence state
// @Description Returns the derived leave entries and recurring remote days for
// @Description every enabled user, sorted by tri. The response is indented for
// @Description readability.
// @Tags        Presences
// @Produce     json
//
// @Success     200  {array}   services.Presence
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /presences [get]
func (h *Handlers) ListPresences(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.presSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	okIndented(c, http.StatusOK, items)
}

// TriggerReconcile godoc
// @ID          triggerReconcile
// @Summary     Run a reconciliation pass
// @Description Fetches calendar data for every enabled user, derives leave
// @Description state, and writes back any records whose stored data differs.
// @Description The pass runs synchronously; the response reports its outcome.
// @Tags        Reconcile
// @Produce     json
//
// @Success     200  {object}  handlers.ReconcileResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /reconcile [post]
func (h *Handlers) TriggerReconcile(c *gin.Context) {
	ctx := c.Request.Context()

	sum, err := h.syncSvc.Trigger(ctx, "api")
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeReconcileFailed, err.Error())
		return
	}

	changed := sum.Changed
	if changed == nil {
		changed = []string{}
	}
	ok(c, http.StatusOK, ReconcileResponse{
		Changed:    changed,
		Checked:    sum.Checked,
		Errored:    sum.Errored,
		Created:    sum.Created,
		DurationMS: sum.FinishedAt.Sub(sum.StartedAt).Milliseconds(),
	})
}

// ListRuns godoc
// @ID          listRuns
// @Summary     List reconciliation runs
// @Description Returns a paginated history of reconciliation runs, most
// @Description recent first.
// @Tags        Reconcile
// @Produce     json
//
// @Param       page       query  int  false "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListRunsResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /runs [get]
func (h *Handlers) ListRuns(c *gin.Context) {
	ctx := c.Request.Context()

	page, pageSize := clampPagination(c)

	runs, total, err := h.syncSvc.RunsPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRunsResponse{
		Runs: runs,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

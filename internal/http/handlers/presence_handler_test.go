package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/presencelab/go-presence-sync/internal/domain"
	"github.com/presencelab/go-presence-sync/internal/reconcile"
	"github.com/presencelab/go-presence-sync/internal/services"
)

// ---------- flexible service stubs ----------

type stubPresSvc struct {
	list func(context.Context) ([]services.Presence, error)
}

func (s stubPresSvc) List(ctx context.Context) ([]services.Presence, error) {
	if s.list != nil {
		return s.list(ctx)
	}
	return nil, nil
}

type stubSyncSvc struct {
	trigger  func(context.Context, string) (reconcile.Summary, error)
	runsPage func(context.Context, int, int) ([]domain.ReconcileRun, int64, error)
}

func (s stubSyncSvc) Trigger(ctx context.Context, trigger string) (reconcile.Summary, error) {
	if s.trigger != nil {
		return s.trigger(ctx, trigger)
	}
	return reconcile.Summary{}, nil
}

func (s stubSyncSvc) RunsPage(ctx context.Context, page, pageSize int) ([]domain.ReconcileRun, int64, error) {
	if s.runsPage != nil {
		return s.runsPage(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/presences", h.ListPresences)
	r.POST("/reconcile", h.TriggerReconcile)
	r.GET("/runs", h.ListRuns)
	return r
}

// ---------- tests ----------

func TestListPresences_OK(t *testing.T) {
	h := New(stubPresSvc{
		list: func(context.Context) ([]services.Presence, error) {
			return []services.Presence{
				{Tri: "abc", Total: 5, TTO: []domain.LeaveEntry{{From: "2026-02-01T00:00:00Z", Days: 5}}, TTR: []int{2}},
				{Tri: "def", Total: 0, TTO: []domain.LeaveEntry{}, TTR: []int{}},
			}, nil
		},
	}, stubSyncSvc{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/presences", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	// IndentedJSON output must be multi-line.
	if !strings.Contains(w.Body.String(), "\n") {
		t.Fatalf("expected indented body, got %q", w.Body.String())
	}

	var got []services.Presence
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Tri != "abc" || got[1].Tri != "def" {
		t.Fatalf("unexpected presences: %+v", got)
	}
}

func TestListPresences_ServiceError(t *testing.T) {
	h := New(stubPresSvc{
		list: func(context.Context) ([]services.Presence, error) {
			return nil, errors.New("store unreachable")
		},
	}, stubSyncSvc{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/presences", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != ErrCodeListFailed {
		t.Fatalf("code = %q, want %q", resp.Code, ErrCodeListFailed)
	}
}

func TestTriggerReconcile_OK(t *testing.T) {
	started := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	var gotTrigger string
	h := New(stubPresSvc{}, stubSyncSvc{
		trigger: func(_ context.Context, trig string) (reconcile.Summary, error) {
			gotTrigger = trig
			return reconcile.Summary{
				Changed:    []string{"abc", "def"},
				Checked:    10,
				Errored:    1,
				Created:    2,
				StartedAt:  started,
				FinishedAt: started.Add(3 * time.Second),
			}, nil
		},
	})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reconcile", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotTrigger != "api" {
		t.Fatalf("trigger = %q, want %q", gotTrigger, "api")
	}

	var resp ReconcileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Changed) != 2 || resp.Checked != 10 || resp.Errored != 1 || resp.Created != 2 {
		t.Fatalf("unexpected summary: %+v", resp)
	}
	if resp.DurationMS != 3000 {
		t.Fatalf("duration_ms = %d, want 3000", resp.DurationMS)
	}
}

func TestTriggerReconcile_EmptyChangedIsArray(t *testing.T) {
	h := New(stubPresSvc{}, stubSyncSvc{
		trigger: func(context.Context, string) (reconcile.Summary, error) {
			return reconcile.Summary{}, nil
		},
	})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reconcile", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"changed":[]`) {
		t.Fatalf("changed must serialize as [], got %s", w.Body.String())
	}
}

func TestTriggerReconcile_Error(t *testing.T) {
	h := New(stubPresSvc{}, stubSyncSvc{
		trigger: func(context.Context, string) (reconcile.Summary, error) {
			return reconcile.Summary{}, errors.New("directory down")
		},
	})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/reconcile", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != ErrCodeReconcileFailed {
		t.Fatalf("code = %q, want %q", resp.Code, ErrCodeReconcileFailed)
	}
}

func TestListRuns_PaginationAndOrdering(t *testing.T) {
	var gotPage, gotSize int
	h := New(stubPresSvc{}, stubSyncSvc{
		runsPage: func(_ context.Context, page, pageSize int) ([]domain.ReconcileRun, int64, error) {
			gotPage, gotSize = page, pageSize
			return []domain.ReconcileRun{
				{ID: "r2", Trigger: "cron"},
				{ID: "r1", Trigger: "api"},
			}, 45, nil
		},
	})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs?page=2&page_size=10", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotPage != 2 || gotSize != 10 {
		t.Fatalf("service got page=%d size=%d", gotPage, gotSize)
	}

	var resp ListRunsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Pagination.Total != 45 || resp.Pagination.TotalPages != 5 {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
	if !resp.Pagination.HasNext {
		t.Fatalf("expected has_next = true on page 2 of 5")
	}
	if len(resp.Runs) != 2 || resp.Runs[0].ID != "r2" {
		t.Fatalf("unexpected runs: %+v", resp.Runs)
	}
}

func Test_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query    string
		page, ps int
	}{
		{"", 1, 20},
		{"page=0&page_size=0", 1, 1},
		{"page=-3&page_size=10000", 1, 100},
		{"page=abc&page_size=xyz", 1, 20},
		{"page=3&page_size=50", 3, 50},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/runs?"+tc.query, nil)
		p, ps := clampPagination(c)
		if p != tc.page || ps != tc.ps {
			t.Errorf("clampPagination(%q) = (%d,%d), want (%d,%d)", tc.query, p, ps, tc.page, tc.ps)
		}
	}
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

func newRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:runrepo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func sampleRun(started time.Time, changed string) *domain.ReconcileRun {
	return &domain.ReconcileRun{
		StartedAt:    started,
		FinishedAt:   started.Add(3 * time.Second),
		DurationMS:   3000,
		UsersChecked: 12,
		UsersChanged: 2,
		ChangedTris:  changed,
		Trigger:      "http",
	}
}

func TestCreateRun_AssignsID(t *testing.T) {
	db := newRunDB(t)
	run := sampleRun(time.Now().UTC(), `["abc"]`)
	if err := CreateRun(context.Background(), db, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected generated run ID")
	}

	got, err := GetRun(context.Background(), db, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.ChangedTris != `["abc"]` || got.Trigger != "http" {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestListRunsPage_MostRecentFirst(t *testing.T) {
	db := newRunDB(t)
	base := time.Date(2026, time.March, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := CreateRun(context.Background(), db, sampleRun(base.Add(time.Duration(i)*time.Hour), "[]")); err != nil {
			t.Fatalf("CreateRun #%d: %v", i, err)
		}
	}

	total, err := CountRuns(context.Background(), db)
	if err != nil || total != 5 {
		t.Fatalf("CountRuns: %d, %v", total, err)
	}

	page, err := ListRunsPage(context.Background(), db, 0, 2)
	if err != nil {
		t.Fatalf("ListRunsPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size: %d", len(page))
	}
	if !page[0].StartedAt.After(page[1].StartedAt) {
		t.Fatalf("ordering: %v before %v", page[0].StartedAt, page[1].StartedAt)
	}

	rest, err := ListRunsPage(context.Background(), db, 4, 2)
	if err != nil || len(rest) != 1 {
		t.Fatalf("last page: %d, %v", len(rest), err)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := newRunDB(t)
	_, err := GetRun(context.Background(), db, uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// Package repo implements the data persistence layer for the run
// history. This file provides repository functions for ReconcileRun.
//
// All functions are context-aware and accept a *gorm.DB handle. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRun persists one finished reconciliation run. The run ID is a
// randomly generated UUID.
func CreateRun(ctx context.Context, db *gorm.DB, run *domain.ReconcileRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(run).Error
}

// CountRuns returns the total number of recorded runs.
func CountRuns(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ReconcileRun{}).
		Count(&total).Error
	return total, err
}

// ListRunsPage returns a paginated slice of runs, most recent first.
// Use CountRuns to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListRunsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.ReconcileRun, error) {
	var out []domain.ReconcileRun
	err := db.WithContext(ctx).
		Order("started_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetRun fetches a single run by ID, or ErrNotFound if missing.
func GetRun(ctx context.Context, db *gorm.DB, id string) (*domain.ReconcileRun, error) {
	var run domain.ReconcileRun
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

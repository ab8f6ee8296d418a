package domain

import (
	"time"

	"gorm.io/gorm"
)

// ReconcileRun records one pass of the reconciliation loop for audit
// and the run-history endpoint. Rows are append-only; a run is written
// once, after the loop finishes.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - StartedAt / FinishedAt: UTC run boundaries.
//   - DurationMS: FinishedAt - StartedAt in milliseconds.
//   - UsersChecked: records that passed the enabled/exclude gate.
//   - UsersChanged: records actually written this run.
//   - UsersErrored: records whose calendar lookup failed upstream.
//   - UsersCreated: store rows created for uids new to the directory.
//   - ChangedTris: compact JSON array of the changed tri codes.
//   - Trigger: what started the run ("api" or "cron").
type ReconcileRun struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	StartedAt    time.Time      `json:"started_at"    gorm:"index"`
	FinishedAt   time.Time      `json:"finished_at"`
	DurationMS   int64          `json:"duration_ms"`
	UsersChecked int            `json:"users_checked"`
	UsersChanged int            `json:"users_changed"`
	UsersErrored int            `json:"users_errored"`
	UsersCreated int            `json:"users_created"`
	ChangedTris  string         `json:"changed_tris"  gorm:"type:text"`
	Trigger      string         `json:"trigger"       gorm:"type:varchar(16)"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for ReconcileRun.
func (ReconcileRun) TableName() string { return "reconcile_runs" }

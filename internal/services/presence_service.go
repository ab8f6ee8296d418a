// Package services defines the business logic sitting between the HTTP
// handlers and the capabilities: the presence listing view over the
// record store, and the reconciliation trigger with run-history
// persistence.
package services

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

// RecordLister is the slice of the record-store capability the listing
// needs.
type RecordLister interface {
	ListAll(ctx context.Context) ([]domain.UserRecord, error)
}

// Presence is the listing view of one enabled user: the stored tto/ttr
// serializations decoded back into structures for API consumers.
type Presence struct {
	Tri   string              `json:"tri"`
	Total float64             `json:"total"`
	TTO   []domain.LeaveEntry `json:"tto"`
	TTR   []int               `json:"ttr"`
}

// PresenceService exposes the read-only presence listing.
type PresenceService struct {
	Store RecordLister
}

// NewPresenceService constructs a PresenceService over the store.
func NewPresenceService(store RecordLister) *PresenceService {
	return &PresenceService{Store: store}
}

// List returns the enabled users' presence data, sorted by tri for a
// stable payload. Stored serializations that fail to decode yield
// empty slices rather than an error; the store owns those strings and
// a bad row should not break the listing.
func (s *PresenceService) List(ctx context.Context) ([]Presence, error) {
	records, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Presence, 0, len(records))
	for _, rec := range records {
		if !rec.Enabled {
			continue
		}
		p := Presence{Tri: rec.Tri, Total: rec.Total, TTO: []domain.LeaveEntry{}, TTR: []int{}}
		if rec.TTO != "" {
			_ = json.Unmarshal([]byte(rec.TTO), &p.TTO)
		}
		if rec.TTR != "" {
			_ = json.Unmarshal([]byte(rec.TTR), &p.TTR)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tri < out[j].Tri })
	return out, nil
}

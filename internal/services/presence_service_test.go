package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/presencelab/go-presence-sync/internal/domain"
)

type fakeLister struct {
	records []domain.UserRecord
	err     error
}

func (f *fakeLister) ListAll(ctx context.Context) ([]domain.UserRecord, error) {
	return f.records, f.err
}

func TestPresenceList_FiltersAndDecodes(t *testing.T) {
	lister := &fakeLister{records: []domain.UserRecord{
		{Tri: "zzz", Enabled: true, Total: 5,
			TTO: "[\n  {\n    \"from\": \"2026-02-01T00:00:00Z\",\n    \"days\": 5\n  }\n]",
			TTR: "[0,4]"},
		{Tri: "off", Enabled: false, TTO: "[]", TTR: "[]"},
		{Tri: "aaa", Enabled: true, TTO: "", TTR: ""},
	}}

	got, err := NewPresenceService(lister).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("disabled rows must be filtered: %+v", got)
	}
	// Sorted by tri.
	if got[0].Tri != "aaa" || got[1].Tri != "zzz" {
		t.Fatalf("ordering: %+v", got)
	}
	if !reflect.DeepEqual(got[1].TTR, []int{0, 4}) {
		t.Fatalf("ttr decode: %+v", got[1].TTR)
	}
	if len(got[1].TTO) != 1 || got[1].TTO[0].Days != 5 {
		t.Fatalf("tto decode: %+v", got[1].TTO)
	}
	// Empty serializations decode to empty, non-nil slices.
	if got[0].TTO == nil || got[0].TTR == nil {
		t.Fatalf("empty slices must be non-nil: %+v", got[0])
	}
}

func TestPresenceList_PropagatesStoreError(t *testing.T) {
	lister := &fakeLister{err: errors.New("store down")}
	if _, err := NewPresenceService(lister).List(context.Background()); err == nil {
		t.Fatal("expected store error")
	}
}

func TestPresenceList_MalformedSerializationYieldsEmpty(t *testing.T) {
	lister := &fakeLister{records: []domain.UserRecord{
		{Tri: "bad", Enabled: true, TTO: "{not json", TTR: "also bad"},
	}}
	got, err := NewPresenceService(lister).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || len(got[0].TTO) != 0 || len(got[0].TTR) != 0 {
		t.Fatalf("malformed rows decode to empty: %+v", got)
	}
}

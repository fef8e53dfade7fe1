package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mohammadpnp/place-ingest/internal/application/ingest"
	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestSearchSyncProjectsAndUpserts(t *testing.T) {
	t.Parallel()

	rating := 4.5
	lister := &fakeLister{businesses: []domain.Business{
		{
			ID:          1,
			PlaceID:     "ChIJ-abc_123",
			Name:        "Springfield Plumbing",
			Street:      "742 Evergreen Terrace",
			City:        "Springfield",
			State:       "IL",
			Latitude:    floatPtr(39.8),
			Longitude:   floatPtr(-89.6),
			Rating:      &rating,
			ReviewCount: intPtr(120),
		},
		{
			ID:      2,
			PlaceID: "p2",
			Name:    "Shelbyville Electric",
		},
	}}
	links := &fakeLinks{
		categories: map[int64][]domain.Category{
			1: {{ID: 7, Name: "Plumbers"}},
		},
		sites: map[int64][]int64{
			1: {5, 6},
			2: {5},
		},
	}

	jobs := &fakeJobStore{}
	index := &fakeIndex{}

	proc := ingest.NewSearchSyncProcessor(jobs, index, lister, links, testLogger())

	job := makeJob(domain.JobTypeSearchSync, domain.SearchSyncPayload{SiteID: 5})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if !index.ensureCalled {
		t.Fatal("collection was not ensured")
	}
	if index.dropCalled {
		t.Fatal("drop not expected without full_resync")
	}

	if len(index.batches) != 1 || len(index.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 documents, got %+v", index.batches)
	}

	doc := index.batches[0][0]
	if doc.ID != "ChIJabc123" {
		t.Fatalf("expected sanitized id ChIJabc123, got %q", doc.ID)
	}
	if doc.Location == nil || (*doc.Location)[0] != 39.8 || (*doc.Location)[1] != -89.6 {
		t.Fatalf("unexpected location %v", doc.Location)
	}
	if doc.Rating != 4.5 || doc.ReviewCount != 120 {
		t.Fatalf("unexpected rating %v / count %d", doc.Rating, doc.ReviewCount)
	}
	if len(doc.Categories) != 1 || doc.Categories[0] != "Plumbers" {
		t.Fatalf("unexpected categories %v", doc.Categories)
	}
	if len(doc.CategoryIDs) != 1 || doc.CategoryIDs[0] != "7" {
		t.Fatalf("unexpected category ids %v", doc.CategoryIDs)
	}
	if len(doc.SiteIDs) != 2 || doc.SiteIDs[0] != "5" || doc.SiteIDs[1] != "6" {
		t.Fatalf("unexpected site ids %v", doc.SiteIDs)
	}

	// No coordinates on the second business, so no geo field.
	if index.batches[0][1].Location != nil {
		t.Fatal("expected nil location when coordinates are missing")
	}

	var meta ingest.SearchSyncMeta
	json.Unmarshal(jobs.completeMeta, &meta)
	if meta.Total != 2 || meta.Synced != 2 || meta.FailedBatches != 0 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestSearchSyncFullResyncDropsCollection(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	index := &fakeIndex{}

	proc := ingest.NewSearchSyncProcessor(jobs, index, &fakeLister{}, &fakeLinks{}, testLogger())

	job := makeJob(domain.JobTypeSearchSync, domain.SearchSyncPayload{SiteID: 5, FullResync: true})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if !index.dropCalled {
		t.Fatal("full resync must drop the collection first")
	}
	if !index.ensureCalled {
		t.Fatal("collection must be recreated after the drop")
	}
}

func TestSearchSyncEnsureFailureFailsJob(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	index := &fakeIndex{ensureErr: errors.New("index unreachable")}

	proc := ingest.NewSearchSyncProcessor(jobs, index, &fakeLister{}, &fakeLinks{}, testLogger())

	job := makeJob(domain.JobTypeSearchSync, domain.SearchSyncPayload{SiteID: 5})

	if err := proc.Process(context.Background(), job); err == nil {
		t.Fatal("expected error when the collection cannot be ensured")
	}
	if jobs.completeCalled {
		t.Fatal("job must not complete when the index is unreachable")
	}
}

func TestSearchSyncNoBusinessesCompletesImmediately(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	index := &fakeIndex{}

	proc := ingest.NewSearchSyncProcessor(jobs, index, &fakeLister{}, &fakeLinks{}, testLogger())

	job := makeJob(domain.JobTypeSearchSync, domain.SearchSyncPayload{SiteID: 5})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	var meta ingest.SearchSyncMeta
	json.Unmarshal(jobs.completeMeta, &meta)
	if meta.Note != "no businesses to sync" {
		t.Fatalf("unexpected note %q", meta.Note)
	}
	if index.batchCalls != 0 {
		t.Fatal("no index writes expected without businesses")
	}
}

func TestSearchSyncSkipsFailedBatches(t *testing.T) {
	t.Parallel()

	businesses := make([]domain.Business, 120)
	for i := range businesses {
		businesses[i] = domain.Business{ID: int64(i + 1), PlaceID: "p", Name: "b"}
	}

	jobs := &fakeJobStore{}
	index := &fakeIndex{failOn: map[int]bool{0: true}}
	lister := &fakeLister{businesses: businesses}

	proc := ingest.NewSearchSyncProcessor(jobs, index, lister, &fakeLinks{}, testLogger())

	job := makeJob(domain.JobTypeSearchSync, domain.SearchSyncPayload{SiteID: 5})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if !jobs.completeCalled {
		t.Fatal("job should complete despite a failed batch")
	}

	// 120 businesses in batches of 50: 50, 50, 20; the first batch fails.
	var meta ingest.SearchSyncMeta
	json.Unmarshal(jobs.completeMeta, &meta)
	if meta.Total != 120 {
		t.Fatalf("expected total 120, got %d", meta.Total)
	}
	if meta.FailedBatches != 1 {
		t.Fatalf("expected 1 failed batch, got %d", meta.FailedBatches)
	}
	if meta.Synced != 70 {
		t.Fatalf("expected 70 synced, got %d", meta.Synced)
	}
	if got := jobs.progressWrites[len(jobs.progressWrites)-1].Progress; got != 100 {
		t.Fatalf("expected final progress 100, got %d", got)
	}
}

func TestSearchSyncRejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	proc := ingest.NewSearchSyncProcessor(&fakeJobStore{}, &fakeIndex{}, &fakeLister{}, &fakeLinks{}, testLogger())

	job := makeJob(domain.JobTypeSearchSync, domain.SearchSyncPayload{})
	if err := proc.Process(context.Background(), job); err == nil {
		t.Fatal("expected validation error for missing site_id")
	}
}

package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mohammadpnp/place-ingest/internal/application/ingest"
	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

func TestSearchIngestProcessesAllResults(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	placesAPI := &fakePlaces{searchIDs: []string{"p1", "p2", "p3", "p4", "p5"}}
	writer := &fakeWriter{}
	cities := &fakeCityLookup{ids: map[string]int64{"Springfield|IL": 7}}

	proc := ingest.NewSearchIngestProcessor(jobs, placesAPI, writer, cities, testLogger())

	job := makeJob(domain.JobTypeSearchIngest, domain.SearchIngestPayload{
		Query:      "plumbers in Springfield",
		CategoryID: 42,
	})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if !jobs.completeCalled {
		t.Fatal("job was not completed")
	}

	var meta ingest.SearchIngestMeta
	if err := json.Unmarshal(jobs.completeMeta, &meta); err != nil {
		t.Fatalf("decode final meta: %v", err)
	}
	if meta.TotalPlaces != 5 || meta.ProcessedPlaces != 5 {
		t.Fatalf("expected 5/5 places, got %d/%d", meta.ProcessedPlaces, meta.TotalPlaces)
	}
	if len(meta.ProcessedIDs) != 5 {
		t.Fatalf("expected 5 processed ids, got %d", len(meta.ProcessedIDs))
	}
	if len(meta.FailedIDs) != 0 {
		t.Fatalf("expected no failed ids, got %v", meta.FailedIDs)
	}

	if len(writer.upserts) != 5 {
		t.Fatalf("expected 5 business upserts, got %d", len(writer.upserts))
	}
	for _, up := range writer.upserts {
		if up.CityID == nil || *up.CityID != 7 {
			t.Fatalf("expected resolved city id 7, got %v", up.CityID)
		}
	}
	if len(writer.categoryLinks) != 5 {
		t.Fatalf("expected 5 category links, got %d", len(writer.categoryLinks))
	}
	for _, link := range writer.categoryLinks {
		if link[1] != 42 {
			t.Fatalf("expected category 42, got %d", link[1])
		}
	}

	// The candidate list is persisted before the first record.
	if len(jobs.metaWrites) != 1 {
		t.Fatalf("expected 1 initial meta write, got %d", len(jobs.metaWrites))
	}

	if len(jobs.progressWrites) != 5 {
		t.Fatalf("expected 5 progress writes, got %d", len(jobs.progressWrites))
	}
	last := 0
	for i, pw := range jobs.progressWrites {
		if pw.Progress < last {
			t.Fatalf("progress went backwards at write %d: %d -> %d", i, last, pw.Progress)
		}
		last = pw.Progress
	}
	if last != 100 {
		t.Fatalf("expected final progress 100, got %d", last)
	}
}

func TestSearchIngestNoResultsCompletesImmediately(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	placesAPI := &fakePlaces{}
	writer := &fakeWriter{}
	cities := &fakeCityLookup{}

	proc := ingest.NewSearchIngestProcessor(jobs, placesAPI, writer, cities, testLogger())

	job := makeJob(domain.JobTypeSearchIngest, domain.SearchIngestPayload{
		Query:      "nothing here",
		CategoryID: 1,
	})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if !jobs.completeCalled {
		t.Fatal("job was not completed")
	}

	var meta ingest.SearchIngestMeta
	json.Unmarshal(jobs.completeMeta, &meta)
	if meta.Note != "no places found for query" {
		t.Fatalf("unexpected note %q", meta.Note)
	}
	if len(writer.upserts) != 0 {
		t.Fatal("no upserts expected for an empty result")
	}
	if len(jobs.progressWrites) != 0 {
		t.Fatal("no progress writes expected for an empty result")
	}
}

func TestSearchIngestIsolatesRecordFailures(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	placesAPI := &fakePlaces{
		searchIDs:  []string{"p1", "p2", "p3"},
		detailErrs: map[string]error{"p2": errors.New("details unavailable")},
	}
	writer := &fakeWriter{}
	cities := &fakeCityLookup{}

	proc := ingest.NewSearchIngestProcessor(jobs, placesAPI, writer, cities, testLogger())

	job := makeJob(domain.JobTypeSearchIngest, domain.SearchIngestPayload{
		Query:      "plumbers",
		CategoryID: 1,
	})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if !jobs.completeCalled {
		t.Fatal("job should complete despite a failing record")
	}

	var meta ingest.SearchIngestMeta
	json.Unmarshal(jobs.completeMeta, &meta)
	if meta.ProcessedPlaces != 3 {
		t.Fatalf("expected all 3 places counted, got %d", meta.ProcessedPlaces)
	}
	if len(meta.FailedIDs) != 1 || meta.FailedIDs[0] != "p2" {
		t.Fatalf("expected failed ids [p2], got %v", meta.FailedIDs)
	}
	if len(writer.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(writer.upserts))
	}
}

func TestSearchIngestUpsertFailureCountsAsFailed(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	placesAPI := &fakePlaces{searchIDs: []string{"p1", "p2"}}
	writer := &fakeWriter{upsertErrs: map[string]error{"p1": errors.New("constraint violation")}}
	cities := &fakeCityLookup{}

	proc := ingest.NewSearchIngestProcessor(jobs, placesAPI, writer, cities, testLogger())

	job := makeJob(domain.JobTypeSearchIngest, domain.SearchIngestPayload{
		Query:      "plumbers",
		CategoryID: 1,
	})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	var meta ingest.SearchIngestMeta
	json.Unmarshal(jobs.completeMeta, &meta)
	if len(meta.FailedIDs) != 1 || meta.FailedIDs[0] != "p1" {
		t.Fatalf("expected failed ids [p1], got %v", meta.FailedIDs)
	}
	if len(writer.upserts) != 1 {
		t.Fatalf("expected 1 surviving upsert, got %d", len(writer.upserts))
	}
}

func TestSearchIngestSecondaryWriteFailureDoesNotFailRecord(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	placesAPI := &fakePlaces{searchIDs: []string{"p1"}}
	writer := &fakeWriter{categoryLinkErr: errors.New("link table locked")}
	cities := &fakeCityLookup{}

	proc := ingest.NewSearchIngestProcessor(jobs, placesAPI, writer, cities, testLogger())

	job := makeJob(domain.JobTypeSearchIngest, domain.SearchIngestPayload{
		Query:      "plumbers",
		CategoryID: 1,
	})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	var meta ingest.SearchIngestMeta
	json.Unmarshal(jobs.completeMeta, &meta)
	if len(meta.FailedIDs) != 0 {
		t.Fatalf("category link failure should not fail the record, got %v", meta.FailedIDs)
	}
}

func TestSearchIngestWritesSiteLink(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	placesAPI := &fakePlaces{searchIDs: []string{"p1"}}
	writer := &fakeWriter{}
	cities := &fakeCityLookup{}

	proc := ingest.NewSearchIngestProcessor(jobs, placesAPI, writer, cities, testLogger())

	siteID := int64(9)
	job := makeJob(domain.JobTypeSearchIngest, domain.SearchIngestPayload{
		Query:      "plumbers",
		CategoryID: 1,
		SiteID:     &siteID,
	})

	if err := proc.Process(context.Background(), job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(writer.siteLinks) != 1 || writer.siteLinks[0][1] != 9 {
		t.Fatalf("expected one site link to site 9, got %v", writer.siteLinks)
	}
}

func TestSearchIngestSearchErrorFailsJob(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobStore{}
	placesAPI := &fakePlaces{searchErr: errors.New("quota exhausted")}

	proc := ingest.NewSearchIngestProcessor(jobs, placesAPI, &fakeWriter{}, &fakeCityLookup{}, testLogger())

	job := makeJob(domain.JobTypeSearchIngest, domain.SearchIngestPayload{
		Query:      "plumbers",
		CategoryID: 1,
	})

	if err := proc.Process(context.Background(), job); err == nil {
		t.Fatal("expected error when the search itself fails")
	}
	if jobs.completeCalled {
		t.Fatal("job must not complete when the search fails")
	}
}

func TestSearchIngestRejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	proc := ingest.NewSearchIngestProcessor(&fakeJobStore{}, &fakePlaces{}, &fakeWriter{}, &fakeCityLookup{}, testLogger())

	tests := []struct {
		name    string
		payload domain.SearchIngestPayload
	}{
		{name: "missing query", payload: domain.SearchIngestPayload{CategoryID: 1}},
		{name: "missing category", payload: domain.SearchIngestPayload{Query: "plumbers"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job := makeJob(domain.JobTypeSearchIngest, tc.payload)
			if err := proc.Process(context.Background(), job); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

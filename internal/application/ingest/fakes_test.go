package ingest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/places"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type progressWrite struct {
	Progress int
	Meta     []byte
}

type fakeJobStore struct {
	mu sync.Mutex

	claimQueue []*domain.Job
	claimErr   error

	metaWrites     [][]byte
	progressWrites []progressWrite
	updateErr      error

	completeCalled bool
	completeMeta   []byte

	failCalled bool
	failReason string
}

func (f *fakeJobStore) ClaimNext(ctx context.Context, workerID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if len(f.claimQueue) == 0 {
		return nil, nil
	}
	job := f.claimQueue[0]
	f.claimQueue = f.claimQueue[1:]
	return job, nil
}

func (f *fakeJobStore) UpdateMeta(ctx context.Context, jobID string, meta any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	raw, _ := json.Marshal(meta)
	f.metaWrites = append(f.metaWrites, raw)
	return nil
}

func (f *fakeJobStore) UpdateProgress(ctx context.Context, jobID string, progress int, meta any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	raw, _ := json.Marshal(meta)
	f.progressWrites = append(f.progressWrites, progressWrite{Progress: progress, Meta: raw})
	return nil
}

func (f *fakeJobStore) Complete(ctx context.Context, jobID string, meta any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalled = true
	raw, _ := json.Marshal(meta)
	f.completeMeta = raw
	return nil
}

func (f *fakeJobStore) Fail(ctx context.Context, jobID string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCalled = true
	f.failReason = reason
	return nil
}

type fakePlaces struct {
	mu sync.Mutex

	searchIDs  []string
	searchErr  error
	details    map[string]*places.Place
	detailErrs map[string]error
	fetched    []string
}

func (f *fakePlaces) SearchAll(ctx context.Context, query string) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchIDs, nil
}

func (f *fakePlaces) FetchDetails(ctx context.Context, placeID string) (*places.Place, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, placeID)
	f.mu.Unlock()

	if err, ok := f.detailErrs[placeID]; ok {
		return nil, err
	}
	if place, ok := f.details[placeID]; ok {
		return place, nil
	}
	return makePlace(placeID, "Business "+placeID, "Springfield", "IL"), nil
}

func makePlace(id, name, city, state string) *places.Place {
	return &places.Place{
		ID:          id,
		DisplayName: places.LocalizedText{Text: name},
		AddressComponents: []places.AddressComponent{
			{LongText: city, Types: []string{"locality"}},
			{LongText: state, ShortText: state, Types: []string{"administrative_area_level_1"}},
		},
		Raw: json.RawMessage(fmt.Sprintf(`{"id":%q}`, id)),
	}
}

type fakeWriter struct {
	mu sync.Mutex

	upserts    []domain.BusinessUpsert
	upsertErrs map[string]error
	nextID     int64

	snapshots []domain.BusinessSnapshot

	categoryLinks   [][2]int64
	categoryLinkErr error
	siteLinks       [][2]int64

	bulkCalls   [][]int64
	bulkFailOn  map[int]bool
	bulkCallNum int

	reviewWrites []domain.Review
	summaries    []domain.ReviewSummary
	reviewErr    error
}

func (f *fakeWriter) UpsertBusiness(ctx context.Context, b domain.BusinessUpsert) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.upsertErrs[b.PlaceID]; ok {
		return 0, err
	}
	f.upserts = append(f.upserts, b)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) UpdateBusinessSnapshot(ctx context.Context, s domain.BusinessSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, s)
	return nil
}

func (f *fakeWriter) UpsertCategoryLink(ctx context.Context, businessID, categoryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categoryLinkErr != nil {
		return f.categoryLinkErr
	}
	f.categoryLinks = append(f.categoryLinks, [2]int64{businessID, categoryID})
	return nil
}

func (f *fakeWriter) UpsertSiteLink(ctx context.Context, businessID, siteID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.siteLinks = append(f.siteLinks, [2]int64{businessID, siteID})
	return nil
}

func (f *fakeWriter) BulkUpsertSiteLinks(ctx context.Context, siteID int64, businessIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.bulkCallNum
	f.bulkCallNum++
	if f.bulkFailOn[call] {
		return fmt.Errorf("bulk upsert failed")
	}
	ids := make([]int64, len(businessIDs))
	copy(ids, businessIDs)
	f.bulkCalls = append(f.bulkCalls, ids)
	return nil
}

func (f *fakeWriter) UpsertReviews(ctx context.Context, reviews []domain.Review, summary domain.ReviewSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reviewErr != nil {
		return f.reviewErr
	}
	f.reviewWrites = append(f.reviewWrites, reviews...)
	f.summaries = append(f.summaries, summary)
	return nil
}

type fakeCityLookup struct {
	mu    sync.Mutex
	ids   map[string]int64
	err   error
	calls int
}

func (f *fakeCityLookup) LookupCityID(ctx context.Context, city, state string) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.ids[city+"|"+state]; ok {
		v := id
		return &v, nil
	}
	return nil, nil
}

type fakeLister struct {
	mu         sync.Mutex
	businesses []domain.Business
	listCalls  int
	err        error
}

func (f *fakeLister) ListSiteBusinesses(ctx context.Context, siteID int64, limit, offset int) ([]domain.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.businesses) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.businesses) {
		end = len(f.businesses)
	}
	return f.businesses[offset:end], nil
}

type fakeSiteConfig struct {
	categoryIDs []int64
	cityIDs     []int64
	byCategory  []int64
	byCity      []int64
	err         error
}

func (f *fakeSiteConfig) GetSiteCategoryIDs(ctx context.Context, siteID int64) ([]int64, error) {
	return f.categoryIDs, f.err
}

func (f *fakeSiteConfig) GetSiteCityIDs(ctx context.Context, siteID int64) ([]int64, error) {
	return f.cityIDs, f.err
}

func (f *fakeSiteConfig) ListBusinessIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	return f.byCategory, f.err
}

func (f *fakeSiteConfig) ListBusinessIDsByCities(ctx context.Context, cityIDs []int64) ([]int64, error) {
	return f.byCity, f.err
}

type fakeLinks struct {
	categories map[int64][]domain.Category
	sites      map[int64][]int64
	err        error
}

func (f *fakeLinks) ListCategoryLinks(ctx context.Context, businessIDs []int64) (map[int64][]domain.Category, error) {
	return f.categories, f.err
}

func (f *fakeLinks) ListSiteLinks(ctx context.Context, businessIDs []int64) (map[int64][]int64, error) {
	return f.sites, f.err
}

type fakeIndex struct {
	ensureCalled bool
	ensureErr    error
	dropCalled   bool

	batches    [][]domain.SearchDocument
	failOn     map[int]bool
	batchCalls int
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error {
	f.ensureCalled = true
	return f.ensureErr
}

func (f *fakeIndex) DropCollection(ctx context.Context) error {
	f.dropCalled = true
	return nil
}

func (f *fakeIndex) UpsertBatch(ctx context.Context, docs []domain.SearchDocument) error {
	call := f.batchCalls
	f.batchCalls++
	if f.failOn[call] {
		return fmt.Errorf("index batch failed")
	}
	batch := make([]domain.SearchDocument, len(docs))
	copy(batch, docs)
	f.batches = append(f.batches, batch)
	return nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func makeJob(jobType domain.JobType, payload any) *domain.Job {
	raw, _ := json.Marshal(payload)
	return &domain.Job{
		ID:          "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		Type:        jobType,
		Payload:     raw,
		Status:      domain.JobStatusProcessing,
		MaxAttempts: 3,
		Attempts:    1,
	}
}

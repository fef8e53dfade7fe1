package ingest

import (
	"context"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/places"
)

// jobStore is the slice of the job record store the processors consume.
// Every unit-of-work boundary writes progress/meta back through it so an
// observer can see partial completion before the job finishes.
type jobStore interface {
	UpdateMeta(ctx context.Context, jobID string, meta any) error
	UpdateProgress(ctx context.Context, jobID string, progress int, meta any) error
	Complete(ctx context.Context, jobID string, meta any) error
	Fail(ctx context.Context, jobID string, reason string) error
}

type workerJobStore interface {
	jobStore
	ClaimNext(ctx context.Context, workerID string) (*domain.Job, error)
}

type placesAPI interface {
	SearchAll(ctx context.Context, query string) ([]string, error)
	FetchDetails(ctx context.Context, placeID string) (*places.Place, error)
}

type searchIndex interface {
	EnsureCollection(ctx context.Context) error
	DropCollection(ctx context.Context) error
	UpsertBatch(ctx context.Context, docs []domain.SearchDocument) error
}

type businessWriter interface {
	UpsertBusiness(ctx context.Context, b domain.BusinessUpsert) (int64, error)
	UpdateBusinessSnapshot(ctx context.Context, s domain.BusinessSnapshot) error
	UpsertCategoryLink(ctx context.Context, businessID, categoryID int64) error
	UpsertSiteLink(ctx context.Context, businessID, siteID int64) error
	BulkUpsertSiteLinks(ctx context.Context, siteID int64, businessIDs []int64) error
	UpsertReviews(ctx context.Context, reviews []domain.Review, summary domain.ReviewSummary) error
}

type cityLookup interface {
	LookupCityID(ctx context.Context, city, state string) (*int64, error)
}

type siteBusinessLister interface {
	ListSiteBusinesses(ctx context.Context, siteID int64, limit, offset int) ([]domain.Business, error)
}

type siteConfigReader interface {
	GetSiteCategoryIDs(ctx context.Context, siteID int64) ([]int64, error)
	GetSiteCityIDs(ctx context.Context, siteID int64) ([]int64, error)
	ListBusinessIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error)
	ListBusinessIDsByCities(ctx context.Context, cityIDs []int64) ([]int64, error)
}

type linkReader interface {
	ListCategoryLinks(ctx context.Context, businessIDs []int64) (map[int64][]domain.Category, error)
	ListSiteLinks(ctx context.Context, businessIDs []int64) (map[int64][]int64, error)
}

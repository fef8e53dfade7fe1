package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/places"
)

const reviewSource = "google"

// SearchIngestProcessor runs a paginated external search and ingests every
// result: details fetch, address parsing, city resolution, business upsert,
// category/site links, review upserts. Records are processed strictly
// sequentially in search-result order; a single bad record never aborts the
// batch, and partial success still completes the job.
type SearchIngestProcessor struct {
	jobs   jobStore
	places placesAPI
	writer businessWriter
	cities cityLookup
	log    *logrus.Logger
}

func NewSearchIngestProcessor(jobs jobStore, placesClient placesAPI, writer businessWriter, cities cityLookup, log *logrus.Logger) *SearchIngestProcessor {
	return &SearchIngestProcessor{
		jobs:   jobs,
		places: placesClient,
		writer: writer,
		cities: cities,
		log:    log,
	}
}

func (p *SearchIngestProcessor) Process(ctx context.Context, job *domain.Job) error {
	var payload domain.SearchIngestPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode search_ingest payload: %w", err)
	}
	if payload.Query == "" {
		return errors.New("search_ingest: query is required")
	}
	if payload.CategoryID == 0 {
		return errors.New("search_ingest: category_id is required")
	}

	placeIDs, err := p.places.SearchAll(ctx, payload.Query)
	if err != nil {
		return fmt.Errorf("places search: %w", err)
	}

	if len(placeIDs) == 0 {
		return p.jobs.Complete(ctx, job.ID, SearchIngestMeta{
			Query:        payload.Query,
			ProcessedIDs: []string{},
			Note:         "no places found for query",
		})
	}

	meta := SearchIngestMeta{
		Query:        payload.Query,
		TotalPlaces:  len(placeIDs),
		ProcessedIDs: make([]string, 0, len(placeIDs)),
	}

	// Persist the candidate list before any per-record work so progress is
	// externally visible from the start.
	if err := p.jobs.UpdateMeta(ctx, job.ID, meta); err != nil {
		p.logJob(job).Warnf("persist initial meta: %v", err)
	}

	cache := newCityCache(p.cities)

	for _, placeID := range placeIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.ingestPlace(ctx, payload, placeID, cache); err != nil {
			p.logJob(job).WithField("place_id", placeID).Warnf("ingest place: %v", err)
			meta.FailedIDs = append(meta.FailedIDs, placeID)
		}

		meta.ProcessedPlaces++
		meta.ProcessedIDs = append(meta.ProcessedIDs, placeID)

		progress := percent(meta.ProcessedPlaces, meta.TotalPlaces)
		if err := p.jobs.UpdateProgress(ctx, job.ID, progress, meta); err != nil {
			// The in-memory meta keeps accumulating; a later write catches up.
			p.logJob(job).Warnf("persist progress: %v", err)
		}
	}

	return p.jobs.Complete(ctx, job.ID, meta)
}

func (p *SearchIngestProcessor) ingestPlace(ctx context.Context, payload domain.SearchIngestPayload, placeID string, cache *cityCache) error {
	place, err := p.places.FetchDetails(ctx, placeID)
	if err != nil {
		return fmt.Errorf("fetch details: %w", err)
	}

	addr := places.ParseAddress(place.AddressComponents)

	cityID, err := cache.LookupCityID(ctx, addr.City, addr.State)
	if err != nil {
		return fmt.Errorf("resolve city: %w", err)
	}

	businessID, err := p.writer.UpsertBusiness(ctx, buildUpsert(place, addr, cityID))
	if err != nil {
		return err
	}

	// Secondary writes: log and move on, the business row already landed.
	if err := p.writer.UpsertCategoryLink(ctx, businessID, payload.CategoryID); err != nil {
		p.log.WithField("place_id", placeID).Warnf("upsert category link: %v", err)
	}
	if payload.SiteID != nil {
		if err := p.writer.UpsertSiteLink(ctx, businessID, *payload.SiteID); err != nil {
			p.log.WithField("place_id", placeID).Warnf("upsert site link: %v", err)
		}
	}

	if len(place.Reviews) > 0 {
		reviews, summary := buildReviews(businessID, place)
		if err := p.writer.UpsertReviews(ctx, reviews, summary); err != nil {
			p.log.WithField("place_id", placeID).Warnf("upsert reviews: %v", err)
		}
	}

	return nil
}

func (p *SearchIngestProcessor) logJob(job *domain.Job) *logrus.Entry {
	return p.log.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.Type})
}

func buildUpsert(place *places.Place, addr places.Address, cityID *int64) domain.BusinessUpsert {
	up := domain.BusinessUpsert{
		PlaceID:     place.ID,
		Name:        place.DisplayName.Text,
		Street:      addr.Street,
		City:        addr.City,
		State:       addr.State,
		PostalCode:  addr.PostalCode,
		CityID:      cityID,
		Phone:       place.Phone,
		Website:     place.WebsiteURI,
		HoursText:   place.HoursText(),
		PhotoURL:    place.PrimaryPhoto(),
		Rating:      place.Rating,
		ReviewCount: place.UserRatingCount,
		MapsURL:     place.GoogleMapsURI,
		RawPayload:  place.Raw,
	}
	if place.Location != nil {
		lat, lng := place.Location.Latitude, place.Location.Longitude
		up.Latitude, up.Longitude = &lat, &lng
	}
	return up
}

func buildReviews(businessID int64, place *places.Place) ([]domain.Review, domain.ReviewSummary) {
	reviews := make([]domain.Review, 0, len(place.Reviews))
	for _, rv := range place.Reviews {
		reviews = append(reviews, domain.Review{
			BusinessID:  businessID,
			Source:      reviewSource,
			ExternalID:  rv.Name,
			Rating:      rv.Rating,
			Text:        rv.Text.Text,
			AuthorName:  rv.AuthorAttribution.DisplayName,
			AuthorPhoto: rv.AuthorAttribution.PhotoURI,
			PublishedAt: rv.PublishTime,
		})
	}

	summary := domain.ReviewSummary{
		BusinessID:  businessID,
		Source:      reviewSource,
		Rating:      place.Rating,
		ReviewCount: place.UserRatingCount,
		URL:         place.GoogleMapsURI,
		SyncedAt:    time.Now(),
	}
	return reviews, summary
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

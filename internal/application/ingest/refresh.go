package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/httpx"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/places"
)

const (
	refreshPageSize   = 100
	refreshBatchSize  = 5
	refreshBatchDelay = time.Second
)

// RefreshProcessor re-fetches details for every business linked to a site.
// Businesses claimed by an end user only get their raw snapshot and primary
// photo refreshed; user-entered fields are never clobbered. Batches of
// refreshBatchSize run concurrently with a settle-all join: every business in
// a batch runs to its own outcome regardless of siblings.
type RefreshProcessor struct {
	jobs    jobStore
	places  placesAPI
	writer  businessWriter
	lister  siteBusinessLister
	cities  cityLookup
	sleep   httpx.SleepFunc
	log     *logrus.Logger
}

func NewRefreshProcessor(jobs jobStore, placesClient placesAPI, writer businessWriter, lister siteBusinessLister, cities cityLookup, log *logrus.Logger) *RefreshProcessor {
	return &RefreshProcessor{
		jobs:   jobs,
		places: placesClient,
		writer: writer,
		lister: lister,
		cities: cities,
		sleep:  httpx.Sleep,
		log:    log,
	}
}

// WithSleep replaces the inter-batch sleep, for tests.
func (p *RefreshProcessor) WithSleep(sleep httpx.SleepFunc) *RefreshProcessor {
	p.sleep = sleep
	return p
}

func (p *RefreshProcessor) Process(ctx context.Context, job *domain.Job) error {
	var payload domain.RefreshPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode refresh payload: %w", err)
	}
	if payload.SiteID == 0 {
		return errors.New("refresh: site_id is required")
	}

	candidates, err := p.collectCandidates(ctx, payload.SiteID)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		return p.jobs.Complete(ctx, job.ID, RefreshMeta{
			Note: "no businesses with a place id to refresh",
		})
	}

	meta := RefreshMeta{Total: len(candidates)}
	if err := p.jobs.UpdateMeta(ctx, job.ID, meta); err != nil {
		p.logJob(job).Warnf("persist initial meta: %v", err)
	}

	cache := newCityCache(p.cities)

	done := 0
	for start := 0; start < len(candidates); start += refreshBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + refreshBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		for i, err := range p.refreshBatch(ctx, batch, cache) {
			if err != nil {
				p.logJob(job).WithField("place_id", batch[i].PlaceID).Warnf("refresh business: %v", err)
				meta.FailedIDs = append(meta.FailedIDs, batch[i].PlaceID)
				continue
			}
			meta.Refreshed++
		}

		done += len(batch)
		if err := p.jobs.UpdateProgress(ctx, job.ID, percent(done, meta.Total), meta); err != nil {
			p.logJob(job).Warnf("persist progress: %v", err)
		}

		if end < len(candidates) {
			if err := p.sleep(ctx, refreshBatchDelay); err != nil {
				return err
			}
		}
	}

	return p.jobs.Complete(ctx, job.ID, meta)
}

func (p *RefreshProcessor) collectCandidates(ctx context.Context, siteID int64) ([]domain.Business, error) {
	var candidates []domain.Business

	offset := 0
	for {
		page, err := p.lister.ListSiteBusinesses(ctx, siteID, refreshPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list site businesses: %w", err)
		}
		for _, b := range page {
			if b.PlaceID != "" {
				candidates = append(candidates, b)
			}
		}
		if len(page) < refreshPageSize {
			return candidates, nil
		}
		offset += refreshPageSize
	}
}

// refreshBatch runs one batch concurrently and collects a per-business
// outcome; one failing business never cancels its siblings.
func (p *RefreshProcessor) refreshBatch(ctx context.Context, batch []domain.Business, cache *cityCache) []error {
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	for i := range batch {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.refreshOne(ctx, batch[i], cache)
		}(i)
	}
	wg.Wait()

	return errs
}

func (p *RefreshProcessor) refreshOne(ctx context.Context, b domain.Business, cache *cityCache) error {
	place, err := p.places.FetchDetails(ctx, b.PlaceID)
	if err != nil {
		return fmt.Errorf("fetch details: %w", err)
	}

	if b.Claimed() {
		return p.writer.UpdateBusinessSnapshot(ctx, domain.BusinessSnapshot{
			PlaceID:    b.PlaceID,
			PhotoURL:   place.PrimaryPhoto(),
			RawPayload: place.Raw,
		})
	}

	addr := places.ParseAddress(place.AddressComponents)
	cityID, err := cache.LookupCityID(ctx, addr.City, addr.State)
	if err != nil {
		return fmt.Errorf("resolve city: %w", err)
	}

	if _, err := p.writer.UpsertBusiness(ctx, buildUpsert(place, addr, cityID)); err != nil {
		return err
	}

	if len(place.Reviews) > 0 {
		reviews, summary := buildReviews(b.ID, place)
		if err := p.writer.UpsertReviews(ctx, reviews, summary); err != nil {
			p.log.WithField("place_id", b.PlaceID).Warnf("upsert reviews: %v", err)
		}
	}
	return nil
}

func (p *RefreshProcessor) logJob(job *domain.Job) *logrus.Entry {
	return p.log.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.Type})
}

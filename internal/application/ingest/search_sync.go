package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

const (
	syncPageSize  = 100
	syncBatchSize = 50
)

// SearchSyncProcessor projects a site's businesses into flat search
// documents and upserts them to the index in batches. The index is a
// derived read model, so a failing batch is logged and skipped, never fatal.
type SearchSyncProcessor struct {
	jobs   jobStore
	index  searchIndex
	lister siteBusinessLister
	links  linkReader
	log    *logrus.Logger
}

func NewSearchSyncProcessor(jobs jobStore, index searchIndex, lister siteBusinessLister, links linkReader, log *logrus.Logger) *SearchSyncProcessor {
	return &SearchSyncProcessor{
		jobs:   jobs,
		index:  index,
		lister: lister,
		links:  links,
		log:    log,
	}
}

func (p *SearchSyncProcessor) Process(ctx context.Context, job *domain.Job) error {
	var payload domain.SearchSyncPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode search_sync payload: %w", err)
	}
	if payload.SiteID == 0 {
		return errors.New("search_sync: site_id is required")
	}

	if payload.FullResync {
		if err := p.index.DropCollection(ctx); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
	}
	if err := p.index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	businesses, err := p.collectBusinesses(ctx, payload.SiteID)
	if err != nil {
		return err
	}
	if len(businesses) == 0 {
		return p.jobs.Complete(ctx, job.ID, SearchSyncMeta{Note: "no businesses to sync"})
	}

	ids := make([]int64, 0, len(businesses))
	for _, b := range businesses {
		ids = append(ids, b.ID)
	}

	categoryLinks, err := p.links.ListCategoryLinks(ctx, ids)
	if err != nil {
		return err
	}
	siteLinks, err := p.links.ListSiteLinks(ctx, ids)
	if err != nil {
		return err
	}

	meta := SearchSyncMeta{Total: len(businesses)}
	if err := p.jobs.UpdateMeta(ctx, job.ID, meta); err != nil {
		p.logJob(job).Warnf("persist initial meta: %v", err)
	}

	done := 0
	for start := 0; start < len(businesses); start += syncBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + syncBatchSize
		if end > len(businesses) {
			end = len(businesses)
		}
		batch := businesses[start:end]

		docs := make([]domain.SearchDocument, 0, len(batch))
		for _, b := range batch {
			docs = append(docs, projectDocument(b, categoryLinks[b.ID], siteLinks[b.ID]))
		}

		if err := p.index.UpsertBatch(ctx, docs); err != nil {
			p.logJob(job).Warnf("index batch: %v", err)
			meta.FailedBatches++
		} else {
			meta.Synced += len(docs)
		}

		done += len(batch)
		if err := p.jobs.UpdateProgress(ctx, job.ID, percent(done, meta.Total), meta); err != nil {
			p.logJob(job).Warnf("persist progress: %v", err)
		}
	}

	return p.jobs.Complete(ctx, job.ID, meta)
}

func (p *SearchSyncProcessor) collectBusinesses(ctx context.Context, siteID int64) ([]domain.Business, error) {
	var all []domain.Business

	offset := 0
	for {
		page, err := p.lister.ListSiteBusinesses(ctx, siteID, syncPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list site businesses: %w", err)
		}
		all = append(all, page...)
		if len(page) < syncPageSize {
			return all, nil
		}
		offset += syncPageSize
	}
}

func (p *SearchSyncProcessor) logJob(job *domain.Job) *logrus.Entry {
	return p.log.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.Type})
}

func projectDocument(b domain.Business, categories []domain.Category, siteIDs []int64) domain.SearchDocument {
	doc := domain.SearchDocument{
		ID:          sanitizeID(b.PlaceID),
		Name:        b.Name,
		Street:      b.Street,
		City:        b.City,
		State:       b.State,
		PostalCode:  b.PostalCode,
		Phone:       b.Phone,
		Website:     b.Website,
		Categories:  make([]string, 0, len(categories)),
		CategoryIDs: make([]string, 0, len(categories)),
		SiteIDs:     make([]string, 0, len(siteIDs)),
	}

	for _, cat := range categories {
		doc.Categories = append(doc.Categories, cat.Name)
		doc.CategoryIDs = append(doc.CategoryIDs, strconv.FormatInt(cat.ID, 10))
	}
	for _, siteID := range siteIDs {
		doc.SiteIDs = append(doc.SiteIDs, strconv.FormatInt(siteID, 10))
	}

	if b.Rating != nil {
		doc.Rating = *b.Rating
	}
	if b.ReviewCount != nil {
		doc.ReviewCount = *b.ReviewCount
	}

	// Geo only when both coordinates are present.
	if b.Latitude != nil && b.Longitude != nil {
		doc.Location = &[2]float64{*b.Latitude, *b.Longitude}
	}

	return doc
}

// sanitizeID strips separators from the external place id so it is a valid
// index document key.
func sanitizeID(placeID string) string {
	var sb strings.Builder
	sb.Grow(len(placeID))
	for _, r := range placeID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

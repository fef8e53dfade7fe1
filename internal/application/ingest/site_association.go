package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

const linkBatchSize = 500

// SiteAssociationProcessor backfills (site, business) links: the businesses
// matching the site's configured categories intersected with those in its
// configured cities. Empty configuration or an empty intersection is a valid
// terminal state, not a failure.
type SiteAssociationProcessor struct {
	jobs   jobStore
	config siteConfigReader
	writer businessWriter
	log    *logrus.Logger
}

func NewSiteAssociationProcessor(jobs jobStore, config siteConfigReader, writer businessWriter, log *logrus.Logger) *SiteAssociationProcessor {
	return &SiteAssociationProcessor{
		jobs:   jobs,
		config: config,
		writer: writer,
		log:    log,
	}
}

func (p *SiteAssociationProcessor) Process(ctx context.Context, job *domain.Job) error {
	var payload domain.SiteAssociationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode site_association payload: %w", err)
	}
	if payload.SiteID == 0 {
		return errors.New("site_association: site_id is required")
	}

	categoryIDs, err := p.config.GetSiteCategoryIDs(ctx, payload.SiteID)
	if err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return p.jobs.Complete(ctx, job.ID, SiteAssociationMeta{Note: "no categories configured"})
	}

	cityIDs, err := p.config.GetSiteCityIDs(ctx, payload.SiteID)
	if err != nil {
		return err
	}
	if len(cityIDs) == 0 {
		return p.jobs.Complete(ctx, job.ID, SiteAssociationMeta{Note: "no cities configured"})
	}

	byCategory, err := p.config.ListBusinessIDsByCategories(ctx, categoryIDs)
	if err != nil {
		return err
	}
	byCity, err := p.config.ListBusinessIDsByCities(ctx, cityIDs)
	if err != nil {
		return err
	}

	matched := intersect(byCategory, byCity)
	if len(matched) == 0 {
		return p.jobs.Complete(ctx, job.ID, SiteAssociationMeta{Note: "no matching businesses"})
	}

	meta := SiteAssociationMeta{Matched: len(matched)}
	if err := p.jobs.UpdateMeta(ctx, job.ID, meta); err != nil {
		p.logJob(job).Warnf("persist initial meta: %v", err)
	}

	done := 0
	for start := 0; start < len(matched); start += linkBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + linkBatchSize
		if end > len(matched) {
			end = len(matched)
		}
		batch := matched[start:end]

		if err := p.writer.BulkUpsertSiteLinks(ctx, payload.SiteID, batch); err != nil {
			p.logJob(job).Warnf("bulk upsert site links: %v", err)
		} else {
			meta.Linked += len(batch)
		}

		done += len(batch)
		if err := p.jobs.UpdateProgress(ctx, job.ID, percent(done, meta.Matched), meta); err != nil {
			p.logJob(job).Warnf("persist progress: %v", err)
		}
	}

	return p.jobs.Complete(ctx, job.ID, meta)
}

func (p *SiteAssociationProcessor) logJob(job *domain.Job) *logrus.Entry {
	return p.log.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.Type})
}

// intersect keeps ids present in both sets, preserving the order of the
// first and dropping duplicates.
func intersect(a, b []int64) []int64 {
	inB := make(map[int64]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(a))
	var out []int64
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

// BusinessUpsertRepository is the write side of the ingestion pipeline:
// conflict-safe upserts keyed by stable natural keys, safe to repeat.
type BusinessUpsertRepository struct {
	pool *pgxpool.Pool
}

func NewBusinessUpsertRepository(pool *pgxpool.Pool) *BusinessUpsertRepository {
	return &BusinessUpsertRepository{pool: pool}
}

// UpsertBusiness inserts or fully refreshes a business keyed by place id and
// returns its internal id.
func (r *BusinessUpsertRepository) UpsertBusiness(ctx context.Context, b domain.BusinessUpsert) (int64, error) {
	var id int64

	err := r.pool.QueryRow(ctx, `
INSERT INTO businesses (
    place_id, name, street, city, state, postal_code, city_id,
    latitude, longitude, phone, website, hours_text, photo_url,
    rating, review_count, maps_url, raw_payload, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NOW(),NOW())
ON CONFLICT (place_id) DO UPDATE
  SET name = EXCLUDED.name,
      street = EXCLUDED.street,
      city = EXCLUDED.city,
      state = EXCLUDED.state,
      postal_code = EXCLUDED.postal_code,
      city_id = EXCLUDED.city_id,
      latitude = EXCLUDED.latitude,
      longitude = EXCLUDED.longitude,
      phone = EXCLUDED.phone,
      website = EXCLUDED.website,
      hours_text = EXCLUDED.hours_text,
      photo_url = EXCLUDED.photo_url,
      rating = EXCLUDED.rating,
      review_count = EXCLUDED.review_count,
      maps_url = EXCLUDED.maps_url,
      raw_payload = EXCLUDED.raw_payload,
      updated_at = NOW()
RETURNING id`,
		b.PlaceID, b.Name, b.Street, b.City, b.State, b.PostalCode, b.CityID,
		b.Latitude, b.Longitude, b.Phone, b.Website, b.HoursText, b.PhotoURL,
		b.Rating, b.ReviewCount, b.MapsURL, b.RawPayload,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert business %s: %w", b.PlaceID, err)
	}
	return id, nil
}

// UpdateBusinessSnapshot refreshes only the non-user-editable fields of a
// claimed business.
func (r *BusinessUpsertRepository) UpdateBusinessSnapshot(ctx context.Context, s domain.BusinessSnapshot) error {
	_, err := r.pool.Exec(ctx, `
UPDATE businesses
   SET raw_payload = $2,
       photo_url = $3,
       updated_at = NOW()
 WHERE place_id = $1`,
		s.PlaceID, s.RawPayload, s.PhotoURL,
	)
	if err != nil {
		return fmt.Errorf("update business snapshot %s: %w", s.PlaceID, err)
	}
	return nil
}

func (r *BusinessUpsertRepository) UpsertCategoryLink(ctx context.Context, businessID, categoryID int64) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO business_categories (business_id, category_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (business_id, category_id) DO NOTHING`,
		businessID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("upsert category link: %w", err)
	}
	return nil
}

func (r *BusinessUpsertRepository) UpsertSiteLink(ctx context.Context, businessID, siteID int64) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO business_sites (business_id, site_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (business_id, site_id) DO NOTHING`,
		businessID, siteID,
	)
	if err != nil {
		return fmt.Errorf("upsert site link: %w", err)
	}
	return nil
}

// BulkUpsertSiteLinks writes one batch of (site, business) pairs in a single
// transaction.
func (r *BusinessUpsertRepository) BulkUpsertSiteLinks(ctx context.Context, siteID int64, businessIDs []int64) error {
	if len(businessIDs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, businessID := range businessIDs {
		batch.Queue(`
INSERT INTO business_sites (business_id, site_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (business_id, site_id) DO NOTHING`, businessID, siteID)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("bulk upsert site links: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit site links: %w", err)
	}
	return nil
}

// UpsertReviews writes the per-review rows keyed by (source, external id) and
// recomputes the aggregated review-source summary, in one transaction.
func (r *BusinessUpsertRepository) UpsertReviews(ctx context.Context, reviews []domain.Review, summary domain.ReviewSummary) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, review := range reviews {
		_, err := tx.Exec(ctx, `
INSERT INTO reviews (
    business_id, source, external_id, rating, text,
    author_name, author_photo, published_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
ON CONFLICT (source, external_id) DO UPDATE
  SET rating = EXCLUDED.rating,
      text = EXCLUDED.text,
      author_name = EXCLUDED.author_name,
      author_photo = EXCLUDED.author_photo,
      published_at = EXCLUDED.published_at,
      updated_at = NOW()`,
			review.BusinessID, review.Source, review.ExternalID, review.Rating, review.Text,
			review.AuthorName, review.AuthorPhoto, review.PublishedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert review %s/%s: %w", review.Source, review.ExternalID, err)
		}
	}

	_, err = tx.Exec(ctx, `
INSERT INTO review_sources (business_id, source, rating, review_count, url, synced_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (business_id, source) DO UPDATE
  SET rating = EXCLUDED.rating,
      review_count = EXCLUDED.review_count,
      url = EXCLUDED.url,
      synced_at = EXCLUDED.synced_at`,
		summary.BusinessID, summary.Source, summary.Rating, summary.ReviewCount, summary.URL, summary.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert review source summary: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reviews: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// inBatchSize caps the size of IN clauses to keep queries bounded.
const inBatchSize = 200

type DirectoryQueryRepository struct {
	db *gorm.DB
}

func NewDirectoryQueryRepository(db *gorm.DB) *DirectoryQueryRepository {
	return &DirectoryQueryRepository{db: db}
}

// LookupCityID resolves a free-text city/state pair to the canonical city
// row. A miss is (nil, nil), not an error.
func (r *DirectoryQueryRepository) LookupCityID(ctx context.Context, city, state string) (*int64, error) {
	var row models.City

	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? AND LOWER(state) = ?",
			strings.ToLower(strings.TrimSpace(city)),
			strings.ToLower(strings.TrimSpace(state))).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup city: %w", err)
	}
	return &row.ID, nil
}

// ListSiteBusinesses pages through the businesses linked to a site with an
// explicit limit/offset, bypassing default query caps.
func (r *DirectoryQueryRepository) ListSiteBusinesses(ctx context.Context, siteID int64, limit, offset int) ([]domain.Business, error) {
	var rows []models.Business

	err := r.db.WithContext(ctx).
		Joins("JOIN business_sites bs ON bs.business_id = businesses.id").
		Where("bs.site_id = ?", siteID).
		Order("businesses.id").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list site businesses: %w", err)
	}

	out := make([]domain.Business, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainBusiness(row))
	}
	return out, nil
}

func (r *DirectoryQueryRepository) GetSiteCategoryIDs(ctx context.Context, siteID int64) ([]int64, error) {
	var ids []int64

	err := r.db.WithContext(ctx).Model(&models.SiteCategory{}).
		Where("site_id = ?", siteID).
		Pluck("category_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("get site categories: %w", err)
	}
	return ids, nil
}

func (r *DirectoryQueryRepository) GetSiteCityIDs(ctx context.Context, siteID int64) ([]int64, error) {
	var ids []int64

	err := r.db.WithContext(ctx).Model(&models.SiteCity{}).
		Where("site_id = ?", siteID).
		Pluck("city_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("get site cities: %w", err)
	}
	return ids, nil
}

// ListBusinessIDsByCategories returns the ids of businesses in any of the
// given categories, batching the IN clause and paginating each batch.
func (r *DirectoryQueryRepository) ListBusinessIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	var all []int64

	for _, batch := range chunkInt64s(categoryIDs, inBatchSize) {
		offset := 0
		for {
			var ids []int64
			err := r.db.WithContext(ctx).Model(&models.BusinessCategory{}).
				Where("category_id IN ?", batch).
				Order("business_id").
				Limit(queryPageSize).Offset(offset).
				Pluck("business_id", &ids).Error
			if err != nil {
				return nil, fmt.Errorf("list businesses by categories: %w", err)
			}
			all = append(all, ids...)
			if len(ids) < queryPageSize {
				break
			}
			offset += queryPageSize
		}
	}
	return all, nil
}

// ListBusinessIDsByCities is the city-membership counterpart of
// ListBusinessIDsByCategories.
func (r *DirectoryQueryRepository) ListBusinessIDsByCities(ctx context.Context, cityIDs []int64) ([]int64, error) {
	var all []int64

	for _, batch := range chunkInt64s(cityIDs, inBatchSize) {
		offset := 0
		for {
			var ids []int64
			err := r.db.WithContext(ctx).Model(&models.Business{}).
				Where("city_id IN ?", batch).
				Order("id").
				Limit(queryPageSize).Offset(offset).
				Pluck("id", &ids).Error
			if err != nil {
				return nil, fmt.Errorf("list businesses by cities: %w", err)
			}
			all = append(all, ids...)
			if len(ids) < queryPageSize {
				break
			}
			offset += queryPageSize
		}
	}
	return all, nil
}

// ListCategoryLinks loads the category memberships for a set of businesses
// into a business_id keyed map, batching the IN clause.
func (r *DirectoryQueryRepository) ListCategoryLinks(ctx context.Context, businessIDs []int64) (map[int64][]domain.Category, error) {
	out := make(map[int64][]domain.Category)

	for _, batch := range chunkInt64s(businessIDs, inBatchSize) {
		var rows []struct {
			BusinessID int64
			CategoryID int64
			Name       string
		}

		err := r.db.WithContext(ctx).Model(&models.BusinessCategory{}).
			Select("business_categories.business_id, business_categories.category_id, categories.name").
			Joins("JOIN categories ON categories.id = business_categories.category_id").
			Where("business_categories.business_id IN ?", batch).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("list category links: %w", err)
		}

		for _, row := range rows {
			out[row.BusinessID] = append(out[row.BusinessID], domain.Category{ID: row.CategoryID, Name: row.Name})
		}
	}
	return out, nil
}

// ListSiteLinks loads all site memberships for a set of businesses, so one
// business visible on several sites indexes with every site id.
func (r *DirectoryQueryRepository) ListSiteLinks(ctx context.Context, businessIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)

	for _, batch := range chunkInt64s(businessIDs, inBatchSize) {
		var rows []models.BusinessSite

		err := r.db.WithContext(ctx).
			Where("business_id IN ?", batch).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("list site links: %w", err)
		}

		for _, row := range rows {
			out[row.BusinessID] = append(out[row.BusinessID], row.SiteID)
		}
	}
	return out, nil
}

const queryPageSize = 1000

func chunkInt64s(ids []int64, size int) [][]int64 {
	var chunks [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func toDomainBusiness(row models.Business) domain.Business {
	return domain.Business{
		ID:              row.ID,
		PlaceID:         row.PlaceID,
		Name:            row.Name,
		Street:          row.Street,
		City:            row.City,
		State:           row.State,
		PostalCode:      row.PostalCode,
		CityID:          row.CityID,
		Latitude:        row.Latitude,
		Longitude:       row.Longitude,
		Phone:           row.Phone,
		Website:         row.Website,
		HoursText:       row.HoursText,
		PhotoURL:        row.PhotoURL,
		Rating:          row.Rating,
		ReviewCount:     row.ReviewCount,
		MapsURL:         row.MapsURL,
		RawPayload:      []byte(row.RawPayload),
		ClaimedByUserID: row.ClaimedByUserID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

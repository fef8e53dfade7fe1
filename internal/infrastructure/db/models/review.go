package models

import "time"

type Review struct {
	ID          int64  `gorm:"primaryKey"`
	BusinessID  int64  `gorm:"not null;index"`
	Source      string `gorm:"size:64;not null;uniqueIndex:idx_reviews_source_external"`
	ExternalID  string `gorm:"size:255;not null;uniqueIndex:idx_reviews_source_external"`
	Rating      float64
	Text        string `gorm:"type:text"`
	AuthorName  string `gorm:"size:255"`
	AuthorPhoto string `gorm:"size:512"`
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Review) TableName() string {
	return "reviews"
}

type ReviewSource struct {
	BusinessID  int64  `gorm:"primaryKey"`
	Source      string `gorm:"size:64;primaryKey"`
	Rating      *float64
	ReviewCount *int
	URL         string `gorm:"size:512"`
	SyncedAt    time.Time
}

func (ReviewSource) TableName() string {
	return "review_sources"
}

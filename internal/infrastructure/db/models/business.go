package models

import (
	"time"

	"gorm.io/datatypes"
)

type Business struct {
	ID              int64  `gorm:"primaryKey"`
	PlaceID         string `gorm:"type:text;not null;uniqueIndex"`
	Name            string `gorm:"size:255;not null"`
	Street          string `gorm:"size:255"`
	City            string `gorm:"size:120"`
	State           string `gorm:"size:120"`
	PostalCode      string `gorm:"size:20"`
	CityID          *int64 `gorm:"index"`
	Latitude        *float64
	Longitude       *float64
	Phone           string `gorm:"size:32"`
	Website         string `gorm:"size:512"`
	HoursText       string `gorm:"type:text"`
	PhotoURL        string `gorm:"size:512"`
	Rating          *float64
	ReviewCount     *int
	MapsURL         string         `gorm:"size:512"`
	RawPayload      datatypes.JSON `gorm:"type:jsonb"`
	ClaimedByUserID *string        `gorm:"type:uuid;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Business) TableName() string {
	return "businesses"
}

type BusinessCategory struct {
	BusinessID int64 `gorm:"primaryKey"`
	CategoryID int64 `gorm:"primaryKey"`
	CreatedAt  time.Time
}

func (BusinessCategory) TableName() string {
	return "business_categories"
}

type BusinessSite struct {
	BusinessID int64 `gorm:"primaryKey"`
	SiteID     int64 `gorm:"primaryKey"`
	CreatedAt  time.Time
}

func (BusinessSite) TableName() string {
	return "business_sites"
}

package models

import "time"

type Site struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Slug      string `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Site) TableName() string {
	return "sites"
}

type SiteCategory struct {
	SiteID     int64 `gorm:"primaryKey"`
	CategoryID int64 `gorm:"primaryKey"`
}

func (SiteCategory) TableName() string {
	return "site_categories"
}

type SiteCity struct {
	SiteID int64 `gorm:"primaryKey"`
	CityID int64 `gorm:"primaryKey"`
}

func (SiteCity) TableName() string {
	return "site_cities"
}

type Category struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null"`
	Slug string `gorm:"size:255;not null;uniqueIndex"`
}

func (Category) TableName() string {
	return "categories"
}

type City struct {
	ID    int64  `gorm:"primaryKey"`
	Name  string `gorm:"size:120;not null"`
	State string `gorm:"size:120;not null"`
}

func (City) TableName() string {
	return "cities"
}

package directory

import (
	"encoding/json"
	"time"
)

// Business is the directory record keyed by the external place id. The
// pipeline is the sole writer while the record is unclaimed; once claimed by
// an end user only RawPayload and PhotoURL may be overwritten.
type Business struct {
	ID              int64
	PlaceID         string
	Name            string
	Street          string
	City            string
	State           string
	PostalCode      string
	CityID          *int64
	Latitude        *float64
	Longitude       *float64
	Phone           string
	Website         string
	HoursText       string
	PhotoURL        string
	Rating          *float64
	ReviewCount     *int
	MapsURL         string
	RawPayload      json.RawMessage
	ClaimedByUserID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b *Business) Claimed() bool {
	return b.ClaimedByUserID != nil && *b.ClaimedByUserID != ""
}

// BusinessUpsert carries the externally sourced fields written on a full
// (unclaimed) refresh or first ingest.
type BusinessUpsert struct {
	PlaceID     string
	Name        string
	Street      string
	City        string
	State       string
	PostalCode  string
	CityID      *int64
	Latitude    *float64
	Longitude   *float64
	Phone       string
	Website     string
	HoursText   string
	PhotoURL    string
	Rating      *float64
	ReviewCount *int
	MapsURL     string
	RawPayload  json.RawMessage
}

// Category is the slim projection used when joining businesses to their
// category memberships.
type Category struct {
	ID   int64
	Name string
}

// BusinessSnapshot carries the only fields the pipeline may touch on a
// claimed business.
type BusinessSnapshot struct {
	PlaceID    string
	PhotoURL   string
	RawPayload json.RawMessage
}

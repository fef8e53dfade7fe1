package places

import (
	"encoding/json"
	"time"
)

// Place mirrors the subset of the places API detail response selected by the
// detail field mask. Raw keeps the untouched payload for the business
// snapshot column.
type Place struct {
	ID               string           `json:"id"`
	DisplayName      LocalizedText    `json:"displayName"`
	FormattedAddress string           `json:"formattedAddress"`
	AddressComponents []AddressComponent `json:"addressComponents"`
	Location         *LatLng          `json:"location"`
	WebsiteURI       string           `json:"websiteUri"`
	Phone            string           `json:"nationalPhoneNumber"`
	OpeningHours     *OpeningHours    `json:"regularOpeningHours"`
	Photos           []Photo          `json:"photos"`
	Rating           *float64         `json:"rating"`
	UserRatingCount  *int             `json:"userRatingCount"`
	Reviews          []Review         `json:"reviews"`
	GoogleMapsURI    string           `json:"googleMapsUri"`

	Raw json.RawMessage `json:"-"`
}

type LocalizedText struct {
	Text string `json:"text"`
}

type AddressComponent struct {
	LongText  string   `json:"longText"`
	ShortText string   `json:"shortText"`
	Types     []string `json:"types"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OpeningHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

type Photo struct {
	Name string `json:"name"`
}

type Review struct {
	Name              string        `json:"name"`
	Rating            float64       `json:"rating"`
	Text              LocalizedText `json:"text"`
	AuthorAttribution Author        `json:"authorAttribution"`
	PublishTime       *time.Time    `json:"publishTime"`
}

type Author struct {
	DisplayName string `json:"displayName"`
	PhotoURI    string `json:"photoUri"`
}

// PrimaryPhoto returns the first photo resource name, or "".
func (p *Place) PrimaryPhoto() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0].Name
}

// HoursText flattens the weekday descriptions into one newline-joined block.
func (p *Place) HoursText() string {
	if p.OpeningHours == nil || len(p.OpeningHours.WeekdayDescriptions) == 0 {
		return ""
	}
	out := p.OpeningHours.WeekdayDescriptions[0]
	for _, line := range p.OpeningHours.WeekdayDescriptions[1:] {
		out += "\n" + line
	}
	return out
}

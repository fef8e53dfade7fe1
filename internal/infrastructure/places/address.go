package places

import "strings"

// Address is the structured result of parsing the API's address components.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
}

// Component types we map, in the slot they fill. For each slot the first
// matching component wins; unmatched types are ignored.
var componentSlots = map[string]int{
	"street_number":               slotStreetNumber,
	"route":                       slotRoute,
	"locality":                    slotCity,
	"postal_town":                 slotCity,
	"administrative_area_level_1": slotState,
	"postal_code":                 slotPostal,
}

const (
	slotStreetNumber = iota
	slotRoute
	slotCity
	slotState
	slotPostal
	slotCount
)

// ParseAddress maps raw address components into street/city/state/postal.
func ParseAddress(components []AddressComponent) Address {
	var filled [slotCount]string

	for _, comp := range components {
		for _, t := range comp.Types {
			slot, ok := componentSlots[t]
			if !ok || filled[slot] != "" {
				continue
			}
			if slot == slotState {
				filled[slot] = comp.ShortText
			} else {
				filled[slot] = comp.LongText
			}
		}
	}

	street := strings.TrimSpace(filled[slotStreetNumber] + " " + filled[slotRoute])

	return Address{
		Street:     street,
		City:       filled[slotCity],
		State:      filled[slotState],
		PostalCode: filled[slotPostal],
	}
}

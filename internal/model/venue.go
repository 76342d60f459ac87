package model

import "fmt"

// Venue identifies one liquidity mechanism type.
type Venue string

const (
	VenueOmnipool    Venue = "omnipool"
	VenueStableswap  Venue = "stableswap"
	VenueXYK         Venue = "xyk"
	VenueMoneyMarket Venue = "moneymarket"
)

// Venues lists all venues in canonical order.
var Venues = []Venue{VenueOmnipool, VenueStableswap, VenueXYK, VenueMoneyMarket}

// ParseVenue validates a venue name.
func ParseVenue(s string) (Venue, error) {
	switch Venue(s) {
	case VenueOmnipool, VenueStableswap, VenueXYK, VenueMoneyMarket:
		return Venue(s), nil
	}
	return "", fmt.Errorf("unknown venue: %s", s)
}

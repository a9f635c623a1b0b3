// Package catalog holds the read models for the service-listing surface
// guests and customers browse.
package catalog

import "time"

// ServiceListing is one repair service offered by a mitra.
type ServiceListing struct {
	ID          string    `json:"id" db:"id"`
	MitraID     string    `json:"mitra_id" db:"mitra_id"`
	MitraName   string    `json:"mitra_name" db:"mitra_name"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Location    string    `json:"location" db:"location"`
	PriceMin    int64     `json:"price_min" db:"price_min"`
	PriceMax    int64     `json:"price_max" db:"price_max"`
	Rating      float64   `json:"rating" db:"rating"`
	ReviewCount int       `json:"review_count" db:"review_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Category is a service category with its listing count.
type Category struct {
	Slug         string `json:"slug" db:"slug"`
	Name         string `json:"name" db:"name"`
	ListingCount int    `json:"listing_count" db:"listing_count"`
}

// ListingFilter narrows a listing query. Zero fields are ignored.
type ListingFilter struct {
	Query    string
	Category string
	Location string
	PriceMin int64
	PriceMax int64
	Rating   float64
	Limit    int
	Offset   int
}

// MitraSummary is the dashboard read model for one mitra.
type MitraSummary struct {
	ActiveListings int     `json:"active_listings" db:"active_listings"`
	TotalReviews   int     `json:"total_reviews" db:"total_reviews"`
	AverageRating  float64 `json:"average_rating" db:"average_rating"`
}

// Package listings defines the property-listing collaborator consumed by
// hosts once a session is established. Search, CRUD and upload are outside
// the authentication core; only the contract lives here.
package listings

import "context"

// Property is a listed property as returned by the listing service.
type Property struct {
	ID          string   `json:"property_id"`
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	PriceCrores float64  `json:"price_crores"`
	AreaSqft    int      `json:"area_sqft"`
	Bedrooms    int      `json:"bedrooms"`
	ImageURLs   []string `json:"images,omitempty"`
	OwnerID     string   `json:"owner_id,omitempty"`
}

// SearchFilter narrows a property search. Zero values mean "no constraint".
type SearchFilter struct {
	Location    string
	MinPrice    float64
	MaxPrice    float64
	MinBedrooms int
}

// Service is the listing backend. Implementations are external to this
// module.
type Service interface {
	Search(ctx context.Context, filter SearchFilter) ([]Property, error)
	Get(ctx context.Context, propertyID string) (*Property, error)
	Upload(ctx context.Context, property Property) (*Property, error)
	Delete(ctx context.Context, propertyID string) error
}

package entity

import "time"

// Facility represents an organizational facility record (depot, office,
// garage). Facilities are plain data access with no workflow logic.
type Facility struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Town      string    `json:"town"`
	Capacity  int       `json:"capacity"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Facility categories
const (
	FacilityDepot  = "DEPOT"
	FacilityOffice = "OFFICE"
	FacilityGarage = "GARAGE"
	FacilityStore  = "STORE"
)

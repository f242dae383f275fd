// Package trip holds the travel-vertical vocabulary shared by discovery and
// transaction routing: categories, provider service types and the keyword
// classifier that maps order payloads onto service types.
package trip

import "strings"

// Category is a top-level travel vertical searched by the caller
type Category string

const (
	// CategoryMobility covers flights, buses and trains
	CategoryMobility Category = "MOBILITY"
	// CategoryHospitality covers hotel stays
	CategoryHospitality Category = "HOSPITALITY"
	// CategoryExperience covers activities and local experiences
	CategoryExperience Category = "EXPERIENCE"
)

// IsValid returns true if the category is a known travel vertical
func (c Category) IsValid() bool {
	switch c {
	case CategoryMobility, CategoryHospitality, CategoryExperience:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// ParseCategory normalizes free-form category text from an intent into a
// Category. Unrecognized text returns false.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(raw))) {
	case CategoryMobility:
		return CategoryMobility, true
	case CategoryHospitality:
		return CategoryHospitality, true
	case CategoryExperience:
		return CategoryExperience, true
	default:
		return "", false
	}
}

// ServiceType identifies one provider vertical behind a category
type ServiceType string

const (
	// ServiceTypeFlight is domestic flights, the default mobility subtype
	ServiceTypeFlight ServiceType = "FLIGHT"
	// ServiceTypeInternationalFlight is international flights
	ServiceTypeInternationalFlight ServiceType = "INTERNATIONAL_FLIGHT"
	// ServiceTypeBus is intercity buses
	ServiceTypeBus ServiceType = "BUS"
	// ServiceTypeTrain is rail journeys
	ServiceTypeTrain ServiceType = "TRAIN"
	// ServiceTypeHotel is hotel stays
	ServiceTypeHotel ServiceType = "HOTEL"
	// ServiceTypeExperience is activities and local experiences
	ServiceTypeExperience ServiceType = "EXPERIENCE"
)

// IsValid returns true if the service type is known
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTypeFlight, ServiceTypeInternationalFlight, ServiceTypeBus,
		ServiceTypeTrain, ServiceTypeHotel, ServiceTypeExperience:
		return true
	default:
		return false
	}
}

// String returns the string representation of the service type
func (s ServiceType) String() string {
	return string(s)
}

// Category returns the travel vertical a service type belongs to
func (s ServiceType) Category() Category {
	switch s {
	case ServiceTypeHotel:
		return CategoryHospitality
	case ServiceTypeExperience:
		return CategoryExperience
	default:
		return CategoryMobility
	}
}

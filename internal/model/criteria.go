package model

import (
	"errors"
	"fmt"
	"math"
)

// PropertyType is the kind of housing the user is looking for
type PropertyType string

const (
	PropertyTypeNone      PropertyType = ""
	PropertyTypeBachelor  PropertyType = "Bachelor Pad"
	PropertyTypeFamily    PropertyType = "Family Home"
	PropertyTypeCorporate PropertyType = "Corporate Housing"
)

// PropertyTypes lists the selectable property types in display order
var PropertyTypes = []PropertyType{
	PropertyTypeBachelor,
	PropertyTypeFamily,
	PropertyTypeCorporate,
}

// Valid reports whether t is one of the known property types
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AmenityCategory groups amenities in the search form
type AmenityCategory string

const (
	CategorySafety  AmenityCategory = "safety"
	CategoryUtility AmenityCategory = "utility"
)

// ErrUnknownCategory is returned when an amenity category is neither safety nor utility
var ErrUnknownCategory = errors.New("unknown amenity category")

// ParseAmenityCategory validates a category name
func ParseAmenityCategory(s string) (AmenityCategory, error) {
	switch AmenityCategory(s) {
	case CategorySafety, CategoryUtility:
		return AmenityCategory(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// LatLng is a geographic coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the coordinate ranges
func (p LatLng) Validate() error {
	if !isFinite(p.Lat) || !isFinite(p.Lng) {
		return fmt.Errorf("coordinates must be finite numbers, got %v, %v", p.Lat, p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", p.Lng)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DefaultLocationQuery is the location a fresh session starts with
const DefaultLocationQuery = "New York, NY"

// Criteria holds the current search filters.
// Every With*/Toggle* method returns an updated copy and leaves the receiver untouched.
type Criteria struct {
	PropertyType     PropertyType `json:"propertyType"`
	SafetyAmenities  []string     `json:"safetyAmenities"`
	UtilityAmenities []string     `json:"utilityAmenities"`
	LocationQuery    string       `json:"locationQuery"`
	PinnedLocation   *LatLng      `json:"pinnedLocation,omitempty"`
	AIPrompt         string       `json:"aiPrompt"`
}

// DefaultCriteria returns the criteria a session starts with and resets to on clear
func DefaultCriteria() Criteria {
	return Criteria{
		PropertyType:     PropertyTypeNone,
		SafetyAmenities:  []string{},
		UtilityAmenities: []string{},
		LocationQuery:    DefaultLocationQuery,
	}
}

func (c Criteria) clone() Criteria {
	out := c
	out.SafetyAmenities = append([]string{}, c.SafetyAmenities...)
	out.UtilityAmenities = append([]string{}, c.UtilityAmenities...)
	if c.PinnedLocation != nil {
		pin := *c.PinnedLocation
		out.PinnedLocation = &pin
	}
	return out
}

// WithPropertyType selects a property type; unknown values clear the selection
func (c Criteria) WithPropertyType(t PropertyType) Criteria {
	out := c.clone()
	if !t.Valid() {
		t = PropertyTypeNone
	}
	out.PropertyType = t
	return out
}

// ToggleAmenity adds the amenity when absent and removes it when present
func (c Criteria) ToggleAmenity(category AmenityCategory, id string) (Criteria, error) {
	out := c.clone()
	switch category {
	case CategorySafety:
		out.SafetyAmenities = toggle(out.SafetyAmenities, id)
	case CategoryUtility:
		out.UtilityAmenities = toggle(out.UtilityAmenities, id)
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return out, nil
}

func toggle(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return append(ids, id)
}

// WithLocationQuery sets the free-text location
func (c Criteria) WithLocationQuery(q string) Criteria {
	out := c.clone()
	out.LocationQuery = q
	return out
}

// WithPinnedLocation pins the search to a coordinate pair
func (c Criteria) WithPinnedLocation(p LatLng) (Criteria, error) {
	if err := p.Validate(); err != nil {
		return c, err
	}
	out := c.clone()
	out.PinnedLocation = &p
	return out, nil
}

// WithoutPin removes the pinned location
func (c Criteria) WithoutPin() Criteria {
	out := c.clone()
	out.PinnedLocation = nil
	return out
}

// WithAIPrompt sets the free-text directive for the AI search
func (c Criteria) WithAIPrompt(p string) Criteria {
	out := c.clone()
	out.AIPrompt = p
	return out
}

// Normalize fills nil amenity slices and drops duplicate ids, keeping first occurrence.
// Used for criteria that arrive from outside (request bodies, CLI flags).
func (c Criteria) Normalize() Criteria {
	out := c.clone()
	out.SafetyAmenities = dedupe(out.SafetyAmenities)
	out.UtilityAmenities = dedupe(out.UtilityAmenities)
	if out.PropertyType != PropertyTypeNone && !out.PropertyType.Valid() {
		out.PropertyType = PropertyTypeNone
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Package catalog holds the amenity and property-type catalog shown in the
// search form and used to render amenity names into the AI prompt.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"propfinder/internal/model"
	"propfinder/internal/utils"

	"gopkg.in/yaml.v3"
)

// Amenity is a selectable search amenity
type Amenity struct {
	ID       string                `json:"id" yaml:"id"`
	Name     string                `json:"name" yaml:"name"`
	Category model.AmenityCategory `json:"category" yaml:"category"`
}

// Catalog is an immutable amenity lookup table
type Catalog struct {
	safety  []Amenity
	utility []Amenity
	byID    map[string]Amenity
}

var defaultSafety = []Amenity{
	{ID: "gated", Name: "Gated Community", Category: model.CategorySafety},
	{ID: "security_guard", Name: "24/7 Security Guard", Category: model.CategorySafety},
	{ID: "cctv", Name: "CCTV Surveillance", Category: model.CategorySafety},
	{ID: "alarm", Name: "Alarm System", Category: model.CategorySafety},
	{ID: "intercom", Name: "Intercom System", Category: model.CategorySafety},
}

var defaultUtility = []Amenity{
	{ID: "wifi", Name: "High-Speed Internet", Category: model.CategoryUtility},
	{ID: "laundry", Name: "In-Unit Laundry", Category: model.CategoryUtility},
	{ID: "parking", Name: "Dedicated Parking", Category: model.CategoryUtility},
	{ID: "ac", Name: "Air Conditioning", Category: model.CategoryUtility},
	{ID: "furnished", Name: "Furnished", Category: model.CategoryUtility},
	{ID: "gym", Name: "Gym/Fitness Center Access", Category: model.CategoryUtility},
	{ID: "pool", Name: "Swimming Pool Access", Category: model.CategoryUtility},
	{ID: "lift", Name: "Lift/Elevator", Category: model.CategoryUtility},
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, _ := New(append(append([]Amenity{}, defaultSafety...), defaultUtility...))
	return c
}

// New builds a catalog from a flat amenity list
func New(amenities []Amenity) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Amenity, len(amenities))}
	for _, a := range amenities {
		a.ID = strings.TrimSpace(a.ID)
		if a.ID == "" || a.Name == "" {
			return nil, fmt.Errorf("amenity %+v: id and name are required", a)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate amenity id %q", a.ID)
		}
		switch a.Category {
		case model.CategorySafety:
			c.safety = append(c.safety, a)
		case model.CategoryUtility:
			c.utility = append(c.utility, a)
		default:
			return nil, fmt.Errorf("amenity %q: %w: %q", a.ID, model.ErrUnknownCategory, a.Category)
		}
		c.byID[a.ID] = a
	}
	return c, nil
}

type catalogFile struct {
	Safety  []Amenity `yaml:"safety"`
	Utility []Amenity `yaml:"utility"`
}

// LoadFile reads an amenity catalog from YAML. Categories are implied by the section:
//
//	safety:
//	  - id: gated
//	    name: Gated Community
//	utility:
//	  - id: wifi
//	    name: High-Speed Internet
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	amenities := make([]Amenity, 0, len(f.Safety)+len(f.Utility))
	for _, a := range f.Safety {
		a.Category = model.CategorySafety
		amenities = append(amenities, a)
	}
	for _, a := range f.Utility {
		a.Category = model.CategoryUtility
		amenities = append(amenities, a)
	}
	return New(amenities)
}

// Lookup finds an amenity by id
func (c *Catalog) Lookup(id string) (Amenity, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Amenities returns the amenities of one category in display order
func (c *Catalog) Amenities(category model.AmenityCategory) []Amenity {
	switch category {
	case model.CategorySafety:
		return append([]Amenity{}, c.safety...)
	case model.CategoryUtility:
		return append([]Amenity{}, c.utility...)
	}
	return nil
}

// Names resolves amenity ids to display names in input order.
// Unknown ids and ids belonging to the other category are skipped.
func (c *Catalog) Names(category model.AmenityCategory, ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		a, ok := c.byID[id]
		if !ok || a.Category != category {
			continue
		}
		names = append(names, a.Name)
	}
	return names
}

// Resolve finds the amenity of a category that a free-text term refers to.
// An exact id wins over fuzzy matches on names and common aliases.
func (c *Catalog) Resolve(category model.AmenityCategory, term string) (Amenity, bool) {
	if a, ok := c.byID[strings.TrimSpace(term)]; ok && a.Category == category {
		return a, true
	}
	for _, a := range c.Amenities(category) {
		if utils.FuzzyMatchAmenity(term, a.ID, a.Name) {
			return a, true
		}
	}
	return Amenity{}, false
}

// PropertyTypes returns the selectable property types
func (c *Catalog) PropertyTypes() []model.PropertyType {
	return append([]model.PropertyType{}, model.PropertyTypes...)
}

package utils

import (
	"strings"
)

// amenityAliases maps amenity ids to the words people use for them
var amenityAliases = map[string][]string{
	"gated":          {"gated", "gate", "gated community"},
	"security_guard": {"guard", "security", "24/7 security", "24-hour security", "doorman"},
	"cctv":           {"cctv", "camera", "cameras", "surveillance"},
	"alarm":          {"alarm", "burglar alarm"},
	"intercom":       {"intercom", "buzzer", "door phone"},
	"wifi":           {"wifi", "wi-fi", "internet", "broadband", "fiber"},
	"laundry":        {"laundry", "washer", "washing machine", "washer/dryer", "dryer"},
	"parking":        {"parking", "car park", "garage", "covered parking"},
	"ac":             {"ac", "a/c", "aircon", "air con", "air conditioner", "air conditioning"},
	"furnished":      {"furnished", "furniture"},
	"gym":            {"gym", "gymnasium", "fitness", "fitness center"},
	"pool":           {"pool", "swimming pool", "swimming"},
	"lift":           {"lift", "elevator"},
}

// FuzzyMatchAmenity reports whether a free-text search term refers to the
// amenity with the given id and display name
func FuzzyMatchAmenity(searchTerm, id, name string) bool {
	term := normalizeTerm(searchTerm)
	if term == "" {
		return false
	}

	// Exact id or name
	if term == normalizeTerm(id) || term == normalizeTerm(name) {
		return true
	}

	// Contains match on the display name, e.g. "laundry" in "In-Unit Laundry".
	// Very short terms only match exactly, otherwise "ac" would hit "Access".
	if len(term) > 3 && strings.Contains(normalizeTerm(name), term) {
		return true
	}

	for _, alias := range amenityAliases[id] {
		if term == alias {
			return true
		}
	}
	return false
}

func normalizeTerm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", " ")
}

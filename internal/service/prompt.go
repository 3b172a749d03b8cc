package service

import (
	"fmt"
	"strconv"
	"strings"

	"propfinder/internal/catalog"
	"propfinder/internal/model"
)

const notSpecified = "Not specified"

// listingFormatInstructions is the grammar utils.ParseListings understands
const listingFormatInstructions = `START_LISTING
TITLE: [The title of the property from the source website]
ADDRESS: [The address or general location provided on the listing]
RENT: [The price per month or per night, as stated on the listing. Specify the period, e.g., $3000/month or $150/night]
BEDROOMS: [Number of bedrooms, e.g., 2 or Studio]
BATHROOMS: [Number of bathrooms, e.g., 1.5 or 2]
DESCRIPTION: [A concise summary (2-3 sentences) of the property's description from the source website, highlighting key features.]
IMAGE_URL: [A direct URL to an image of the property from the source website. If a direct URL is not available, use a placeholder like https://picsum.photos/seed/UNIQUE_SEED/400/300]
SOURCE_URL: [The direct URL to the original listing page on agoda.com, airbnb.com, or booking.com]
END_LISTING`

// BuildPrompt renders the search criteria into the instruction text for the AI model.
// The output is deterministic for a given criteria and catalog.
// Callers must check that a location is pinned; a nil pin renders as "Not specified".
func BuildPrompt(criteria model.Criteria, cat *catalog.Catalog) string {
	var b strings.Builder

	b.WriteString("\nYou are an expert real estate search assistant. Your task is to find and summarize real property rental listings from agoda.com, airbnb.com, and booking.com based on user-defined criteria.\n")
	b.WriteString("Use Google Search to query these specific sites for relevant listings.\n\n")

	if strings.TrimSpace(criteria.AIPrompt) != "" {
		fmt.Fprintf(&b, "The user has a specific request: \"%s\". This is the most important part of the search. Use it as your primary guide.\n\n", criteria.AIPrompt)
	} else {
		b.WriteString("The user has not provided a specific text prompt. Infer their needs from the structured criteria below.\n\n")
	}

	b.WriteString("Use the following details to find and filter relevant listings. If the user's prompt conflicts with these filters, prioritize the user's prompt.\n")
	fmt.Fprintf(&b, "- Location (Coordinates): %s\n", formatCoordinates(criteria.PinnedLocation))
	fmt.Fprintf(&b, "- Location (Context): %s\n", orDefault(criteria.LocationQuery, notSpecified))
	fmt.Fprintf(&b, "- Property Type: %s\n", orDefault(string(criteria.PropertyType), "Any"))
	fmt.Fprintf(&b, "- Safety/Security Amenities: %s\n", orDefault(strings.Join(cat.Names(model.CategorySafety, criteria.SafetyAmenities), ", "), notSpecified))
	fmt.Fprintf(&b, "- Utility Amenities: %s\n\n", orDefault(strings.Join(cat.Names(model.CategoryUtility, criteria.UtilityAmenities), ", "), notSpecified))

	b.WriteString("Find as many listings as you can, ideally between 9 and 12, that match the criteria from across agoda.com, airbnb.com, and booking.com. ")
	b.WriteString("For each listing you find, provide a summary in the following strict format. ")
	b.WriteString("Each field name must be exactly as written, followed by a colon and a space. ")
	b.WriteString("Each listing must be enclosed by START_LISTING and END_LISTING. ")
	b.WriteString("Do not use markdown formatting for the listing content.\n\n")
	b.WriteString(listingFormatInstructions)
	b.WriteString("\n\nEnsure that the SOURCE_URL for each listing is a valid link to its page on one of the three specified websites.\n")

	return b.String()
}

func formatCoordinates(p *model.LatLng) string {
	if p == nil {
		return notSpecified
	}
	return fmt.Sprintf("Latitude %s, Longitude %s",
		strconv.FormatFloat(p.Lat, 'f', -1, 64),
		strconv.FormatFloat(p.Lng, 'f', -1, 64))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

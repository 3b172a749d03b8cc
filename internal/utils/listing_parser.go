package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"propfinder/internal/model"
)

// Delimiters of the listing grammar the AI is asked to follow
const (
	ListingStart = "START_LISTING"
	ListingEnd   = "END_LISTING"
)

// fieldLinePattern splits "KEY: value" on the first colon
var fieldLinePattern = regexp.MustCompile(`^([^:]+):\s*(.*)$`)

// ParseListings extracts listing records from free-form AI output.
//
// The text is split on START_LISTING (anything before the first delimiter is
// ignored) and each block is cut at its first END_LISTING. Lines of the form
// "KEY: value" fill the recognized fields; a repeated key overwrites the
// earlier value. Blocks without both TITLE and DESCRIPTION are dropped.
// IDs combine now and the block position, so they are unique within one call only.
func ParseListings(text string, now time.Time) []model.Listing {
	listings := []model.Listing{}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	blocks := strings.Split(normalized, ListingStart)
	if len(blocks) < 2 {
		return listings
	}

	for index, block := range blocks[1:] {
		if end := strings.Index(block, ListingEnd); end >= 0 {
			block = block[:end]
		}

		listing := parseListingBlock(strings.TrimSpace(block))
		if !listing.Valid() {
			continue
		}
		listing.ID = fmt.Sprintf("listing-%d-%d", now.UnixMilli(), index)
		listings = append(listings, listing)
	}

	return listings
}

func parseListingBlock(block string) model.Listing {
	var listing model.Listing
	for _, line := range strings.Split(block, "\n") {
		match := fieldLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		key := strings.TrimSpace(match[1])
		value := strings.TrimSpace(match[2])

		switch key {
		case "TITLE":
			listing.Title = value
		case "ADDRESS":
			listing.Address = value
		case "RENT":
			listing.Rent = value
		case "BEDROOMS":
			listing.Bedrooms = value
		case "BATHROOMS":
			listing.Bathrooms = value
		case "DESCRIPTION":
			listing.Description = value
		case "IMAGE_URL":
			listing.ImageURL = value
		case "SOURCE_URL":
			listing.SourceURL = value
		}
	}
	return listing
}

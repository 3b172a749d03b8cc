package model

// Listing represents a property listing, either sourced from the AI search
// or submitted by a user
type Listing struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Address       string `json:"address,omitempty"`
	Rent          string `json:"rent,omitempty"`
	Bedrooms      string `json:"bedrooms,omitempty"`  // kept as text, the model answers "Studio" as often as "2"
	Bathrooms     string `json:"bathrooms,omitempty"` // same as bedrooms, e.g. "1.5"
	Description   string `json:"description"`
	ImageURL      string `json:"imageUrl,omitempty"`
	SourceURL     string `json:"sourceUrl,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
	IsUserListing bool   `json:"isUserListing,omitempty"`
}

// Valid reports whether the listing carries the two mandatory fields
func (l Listing) Valid() bool {
	return l.Title != "" && l.Description != ""
}

// ListingDraft is the add-listing form before an ID and image are attached
type ListingDraft struct {
	Title         string `json:"title" form:"title" binding:"required"`
	Description   string `json:"description" form:"description" binding:"required"`
	Address       string `json:"address" form:"address" binding:"required"`
	ContactNumber string `json:"contactNumber" form:"contactNumber" binding:"required"`
	Rent          string `json:"rent,omitempty" form:"rent"`
	Bedrooms      string `json:"bedrooms,omitempty" form:"bedrooms"`
	Bathrooms     string `json:"bathrooms,omitempty" form:"bathrooms"`
	PreviewID     string `json:"previewId,omitempty" form:"previewId"`
}

// WebGroundingChunk is a web citation returned with grounded answers
type WebGroundingChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingChunk describes one citation source for an AI result set
type GroundingChunk struct {
	Web *WebGroundingChunk `json:"web,omitempty"`
}

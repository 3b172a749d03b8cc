package model

// SearchResult is what one AI search produces.
// Error and Warning are user-facing messages; a populated Error always comes with empty Listings.
type SearchResult struct {
	Listings        []Listing        `json:"listings"`
	GroundingChunks []GroundingChunk `json:"groundingChunks"`
	Error           string           `json:"error,omitempty"`
	Warning         string           `json:"warning,omitempty"`
}

// SearchResponse is the display-ready answer: user listings first, then AI listings
type SearchResponse struct {
	Listings           []Listing        `json:"listings"`
	SourceAttributions []GroundingChunk `json:"sourceAttributions"`
	Error              string           `json:"error,omitempty"`
	Warning            string           `json:"warning,omitempty"`
	Took               int64            `json:"took_ms"`
}

// PropertyTypeRequest represents a property type selection
type PropertyTypeRequest struct {
	PropertyType PropertyType `json:"propertyType"`
}

// LocationRequest represents a location text update
type LocationRequest struct {
	Query string `json:"query"`
}

// PinRequest represents a map pin placement
type PinRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// PromptRequest represents the free-text AI directive
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// GeocodeResponse represents a geocoding answer
type GeocodeResponse struct {
	Query    string  `json:"query"`
	Found    bool    `json:"found"`
	Location *LatLng `json:"location,omitempty"`
}

// PreviewResponse represents an uploaded image preview handle
type PreviewResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// SessionView is the JSON shape of a search session
type SessionView struct {
	ID                 string           `json:"id"`
	Criteria           Criteria         `json:"criteria"`
	Listings           []Listing        `json:"listings"`
	SourceAttributions []GroundingChunk `json:"sourceAttributions"`
	Error              string           `json:"error,omitempty"`
	Warning            string           `json:"warning,omitempty"`
	SearchEnabled      bool             `json:"searchEnabled"`
	SearchSeq          uint64           `json:"searchSeq"`
}

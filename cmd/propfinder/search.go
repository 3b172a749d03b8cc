package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"propfinder/internal/catalog"
	"propfinder/internal/model"

	"github.com/spf13/cobra"
)

type searchOptions struct {
	lat, lng     float64
	location     string
	propertyType string
	safety       []string
	utility      []string
	prompt       string
	geocode      bool
	stream       bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search rental listings with the AI assistant",
		Example: `  propfinder search --lat 40.7128 --lng -74.006 --type "Family Home" --safety cctv,gated
  propfinder search --location "Austin, TX" --geocode --prompt "walkable, near live music"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			hasPin := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			if hasPin && !(cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng")) {
				return errors.New("--lat and --lng must be given together")
			}

			criteria, err := opts.criteria(hasPin, a.Catalog)
			if err != nil {
				return err
			}

			if !hasPin && opts.geocode {
				loc, found, err := a.Geocoder.Lookup(cmd.Context(), criteria.LocationQuery)
				if err != nil {
					return fmt.Errorf("geocoding failed: %w", err)
				}
				if !found {
					return fmt.Errorf("location not found: %s", criteria.LocationQuery)
				}
				if criteria, err = criteria.WithPinnedLocation(loc); err != nil {
					return err
				}
			}

			var res model.SearchResult
			if opts.stream {
				res = a.Search.SearchStream(cmd.Context(), criteria, func(event string, data any) error {
					if event == "content" {
						if m, ok := data.(map[string]any); ok {
							fmt.Fprint(cmd.ErrOrStderr(), m["content"])
						}
					}
					return nil
				})
				fmt.Fprintln(cmd.ErrOrStderr())
			} else {
				res = a.Search.Search(cmd.Context(), criteria)
			}

			resp := model.SearchResponse{
				Listings:           a.Listings.Merge(res.Listings),
				SourceAttributions: res.GroundingChunks,
				Error:              res.Error,
				Warning:            res.Warning,
			}

			if root.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else {
				printSearchResponse(cmd.OutOrStdout(), resp)
			}
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.lat, "lat", 0, "Latitude of the pinned search location")
	f.Float64Var(&opts.lng, "lng", 0, "Longitude of the pinned search location")
	f.StringVar(&opts.location, "location", model.DefaultLocationQuery, "Free-text location context")
	f.StringVar(&opts.propertyType, "type", "", `Property type: "Bachelor Pad", "Family Home" or "Corporate Housing"`)
	f.StringSliceVar(&opts.safety, "safety", nil, "Safety amenity ids, e.g. cctv,gated")
	f.StringSliceVar(&opts.utility, "utility", nil, "Utility amenity ids, e.g. wifi,parking")
	f.StringVar(&opts.prompt, "prompt", "", "Free-text request for the AI assistant")
	f.BoolVar(&opts.geocode, "geocode", false, "Resolve --location to coordinates when no --lat/--lng is given")
	f.BoolVar(&opts.stream, "stream", false, "Stream the model output to stderr while searching")
	return cmd
}

// criteria builds the search criteria from flags. Amenities may be given
// by id or by a common name ("elevator", "cameras").
func (o *searchOptions) criteria(withPin bool, cat *catalog.Catalog) (model.Criteria, error) {
	c := model.DefaultCriteria().
		WithLocationQuery(o.location).
		WithAIPrompt(o.prompt)

	if o.propertyType != "" {
		pt := model.PropertyType(o.propertyType)
		if !pt.Valid() {
			return c, fmt.Errorf("unknown property type %q", o.propertyType)
		}
		c = c.WithPropertyType(pt)
	}

	var err error
	// repeated terms select once rather than toggling off again
	if c.SafetyAmenities, err = resolveAmenities(cat, model.CategorySafety, o.safety); err != nil {
		return c, err
	}
	if c.UtilityAmenities, err = resolveAmenities(cat, model.CategoryUtility, o.utility); err != nil {
		return c, err
	}
	c = c.Normalize()

	if withPin {
		return c.WithPinnedLocation(model.LatLng{Lat: o.lat, Lng: o.lng})
	}
	return c, nil
}

func resolveAmenities(cat *catalog.Catalog, category model.AmenityCategory, terms []string) ([]string, error) {
	ids := make([]string, 0, len(terms))
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		a, ok := cat.Resolve(category, term)
		if !ok {
			return nil, fmt.Errorf("unknown %s amenity %q", category, term)
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func printSearchResponse(w io.Writer, resp model.SearchResponse) {
	if resp.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", resp.Error)
	}
	if resp.Warning != "" {
		fmt.Fprintf(w, "Warning: %s\n", resp.Warning)
	}
	printListings(w, resp.Listings)

	if len(resp.SourceAttributions) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, chunk := range resp.SourceAttributions {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			title := chunk.Web.Title
			if title == "" {
				title = chunk.Web.URI
			}
			fmt.Fprintf(w, "  - %s <%s>\n", title, chunk.Web.URI)
		}
	}
}

func printListings(w io.Writer, listings []model.Listing) {
	if len(listings) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return
	}
	for i, l := range listings {
		tag := ""
		if l.IsUserListing {
			tag = "  [your listing]"
		}
		fmt.Fprintf(w, "\n[%d] %s%s\n", i+1, l.Title, tag)
		if l.Address != "" {
			fmt.Fprintf(w, "    Address:  %s\n", l.Address)
		}
		var facts []string
		for _, kv := range [][2]string{{"Rent", l.Rent}, {"Bedrooms", l.Bedrooms}, {"Bathrooms", l.Bathrooms}} {
			if kv[1] != "" {
				facts = append(facts, kv[0]+": "+kv[1])
			}
		}
		if len(facts) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(facts, " | "))
		}
		if l.ContactNumber != "" {
			fmt.Fprintf(w, "    Contact:  %s\n", l.ContactNumber)
		}
		fmt.Fprintf(w, "    %s\n", l.Description)
		if l.SourceURL != "" {
			fmt.Fprintf(w, "    Source:   %s\n", l.SourceURL)
		}
	}
}

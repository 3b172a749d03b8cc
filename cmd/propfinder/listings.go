package main

import (
	"fmt"
	"os"

	"propfinder/internal/model"
	"propfinder/internal/service"

	"github.com/spf13/cobra"
)

func newListingsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Manage your own listings (list, add)",
	}
	cmd.AddCommand(newListingsListCmd(root), newListingsAddCmd(root))
	return cmd
}

func newListingsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the listings you added, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			listings := a.Listings.All()
			if root.jsonOut {
				return writeJSON(cmd.OutOrStdout(), listings)
			}
			printListings(cmd.OutOrStdout(), listings)
			return nil
		},
	}
}

func newListingsAddCmd(root *rootOptions) *cobra.Command {
	var (
		draft     model.ListingDraft
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a listing of your own",
		Example: `  propfinder listings add --title "Garden flat" --description "Quiet, bright" \
    --address "2 Side St" --contact "555-0100" --rent "$1200/month" --image ./flat.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(imagePath)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			imageDataURL, err := service.EncodeImageDataURL(f, a.Previews.MaxBytes())
			if err != nil {
				return err
			}

			listing := a.Listings.Add(cmd.Context(), draft, imageDataURL)
			if root.jsonOut {
				return writeJSON(cmd.OutOrStdout(), listing)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added listing %s\n", listing.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&draft.Title, "title", "", "Listing title")
	f.StringVar(&draft.Description, "description", "", "Listing description")
	f.StringVar(&draft.Address, "address", "", "Address")
	f.StringVar(&draft.ContactNumber, "contact", "", "Contact number")
	f.StringVar(&draft.Rent, "rent", "", "Rent, e.g. $1200/month")
	f.StringVar(&draft.Bedrooms, "bedrooms", "", "Number of bedrooms")
	f.StringVar(&draft.Bathrooms, "bathrooms", "", "Number of bathrooms")
	f.StringVar(&imagePath, "image", "", "Path to an image of the property")
	for _, name := range []string{"title", "description", "address", "contact", "image"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
)

func newUploadCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload an outfit or wishlist photo with its metadata",
	}
	cmd.AddCommand(newUploadOutfitCmd(s), newUploadWishlistCmd(s))
	return cmd
}

func newUploadOutfitCmd(s *session) *cobra.Command {
	var image, details, genre, date string
	var rating int

	cmd := &cobra.Command{
		Use:   "outfit",
		Short: "Upload an outfit photo",
		Example: `  closetctl upload outfit --image ./look.jpg --details "white tee, jeans" --rating 8 --genre Streetwear
  closetctl upload outfit --image https://example.com/look.jpg --date 2024-05-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			req := ports.OutfitUpload{ImageRef: image, Details: details, Rating: rating, Genre: genre}
			if date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				req.Date = &parsed
			}
			result, err := app.Uploader.UploadOutfit(cmd.Context(), req)
			if err != nil {
				return err
			}
			return renderUpload(cmd.OutOrStdout(), s.output, result)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "Image path, file:// or http(s) URL")
	cmd.Flags().StringVar(&details, "details", "", "Free-text outfit description")
	cmd.Flags().IntVar(&rating, "rating", 0, "Rating from 0 to 10")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre, e.g. Minimalist or Streetwear")
	cmd.Flags().StringVar(&date, "date", "", "Day the outfit was worn (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newUploadWishlistCmd(s *session) *cobra.Command {
	var image, name, notes string

	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Upload a wishlist item photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			result, err := app.Uploader.UploadWishlistItem(cmd.Context(), ports.WishlistUpload{
				ImageRef: image,
				Name:     name,
				Notes:    notes,
			})
			if err != nil {
				return err
			}
			return renderUpload(cmd.OutOrStdout(), s.output, result)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "Image path, file:// or http(s) URL")
	cmd.Flags().StringVar(&name, "name", "", "Item name")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes about the item")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func renderUpload(w io.Writer, format string, result domain.UploadResult) error {
	return render(w, format, result, func(w io.Writer) {
		fmt.Fprintf(w, "uploaded %s %s\n", result.Namespace, idColor(result.RecordID))
		fmt.Fprintf(w, "  %s\n", mutedColor(result.ImageURL))
	})
}

func newListCmd(s *session) *cobra.Command {
	var search, sortBy, order string

	cmd := &cobra.Command{
		Use:       "list [outfits|wishlist]",
		Short:     "List records, newest first",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(domain.NamespaceOutfits), string(domain.NamespaceWishlist)},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if domain.Namespace(args[0]) == domain.NamespaceWishlist {
				items := app.Assembler.Wishlist(cmd.Context())
				return render(w, s.output, items, func(w io.Writer) {
					for _, item := range items {
						fmt.Fprintf(w, "%s  %s  %s\n", idColor(item.ID), item.CreatedAt.Format(time.DateOnly), item.Name)
						fmt.Fprintf(w, "    %s\n", formatAnalysis(item.ClothingAnalysis))
					}
				})
			}

			outfits, err := app.Closet.Browse(cmd.Context(), ports.ClosetQuery{Search: search, SortBy: sortBy, Order: order})
			if err != nil {
				return err
			}
			return render(w, s.output, outfits, func(w io.Writer) {
				for _, o := range outfits {
					fmt.Fprintf(w, "%s  %s  %d/10  %s  %s\n",
						idColor(o.ID), o.EffectiveDate().Format(time.DateOnly), o.Rating, o.Genre, o.Details)
					fmt.Fprintf(w, "    %s\n", formatAnalysis(o.ClothingAnalysis))
				}
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter outfits by details or genre")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort outfits by date, rating or genre")
	cmd.Flags().StringVar(&order, "order", "", "asc or desc")
	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/core/usecase"
)

func newSimilarCmd(s *session) *cobra.Command {
	var wishlistItem, outfit string
	var limit int

	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Rank outfits by clothing similarity to a wishlist item or outfit",
		Example: `  closetctl similar --wishlist-item 01HZX...
  closetctl similar --outfit 01HZY... --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd.Context())
			if err != nil {
				return err
			}

			var ranked []ports.ScoredOutfit
			if wishlistItem != "" {
				ranked, err = app.Recommender.SimilarToWishlistItem(cmd.Context(), wishlistItem)
			} else {
				ranked, err = app.Recommender.SimilarToOutfit(cmd.Context(), outfit)
			}
			if err != nil {
				return err
			}
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}

			return render(cmd.OutOrStdout(), s.output, ranked, func(w io.Writer) {
				if len(ranked) == 0 {
					fmt.Fprintln(w, mutedColor("no outfits to compare"))
					return
				}
				for _, r := range ranked {
					fmt.Fprintf(w, "%s  %s  %s\n", scoreColor(fmt.Sprintf("%.1f", r.Score)), idColor(r.Outfit.ID), r.Outfit.Details)
				}
			})
		},
	}

	cmd.Flags().StringVar(&wishlistItem, "wishlist-item", "", "Wishlist item id to compare against")
	cmd.Flags().StringVar(&outfit, "outfit", "", "Outfit id to compare against")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (0 for all)")
	cmd.MarkFlagsOneRequired("wishlist-item", "outfit")
	cmd.MarkFlagsMutuallyExclusive("wishlist-item", "outfit")
	return cmd
}

func newScoreCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <candidate> <reference>",
		Short: "Score two clothing analyses without touching the store",
		Long: `Each argument is an inline YAML or JSON analysis, or @path to read one from a file.
Missing fields count as unknown.`,
		Example: `  closetctl score '{top: white tee, bottom: blue jeans}' '{top: white shirt}'
  closetctl score @candidate.yaml @reference.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate, err := parseAnalysis(args[0])
			if err != nil {
				return fmt.Errorf("candidate: %w", err)
			}
			reference, err := parseAnalysis(args[1])
			if err != nil {
				return fmt.Errorf("reference: %w", err)
			}

			result := struct {
				Score float64 `json:"score"`
			}{Score: usecase.Score(candidate, reference)}

			return render(cmd.OutOrStdout(), s.output, result, func(w io.Writer) {
				fmt.Fprintln(w, scoreColor(fmt.Sprintf("%.1f", result.Score)))
			})
		},
	}
	return cmd
}

// parseAnalysis accepts YAML, which also covers JSON input.
func parseAnalysis(arg string) (domain.ClothingAnalysis, error) {
	raw := []byte(arg)
	if len(arg) > 1 && arg[0] == '@' {
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return domain.ClothingAnalysis{}, err
		}
		raw = data
	}

	var analysis domain.ClothingAnalysis
	if err := yaml.Unmarshal(raw, &analysis); err != nil {
		return domain.ClothingAnalysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	if analysis.IsEmpty() {
		return domain.ClothingAnalysis{}, errors.New("analysis has no clothing fields")
	}
	return analysis, nil
}

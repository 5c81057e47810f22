package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/ecoscore"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

func newScoreCmd() *cobra.Command {
	var (
		carbon     float64
		unit       string
		materials  []string
		durability float64
		packaging  float64
		health     float64
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a product's EcoScore",
		Example: `  ecorewards score --carbon 2500 --unit g --material "Organic Cotton" \
    --durability 4 --packaging 3 --health 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kg, err := ecoscore.NormalizeToKg(carbon, unit)
			if err != nil {
				return err
			}
			b := ecoscore.Breakdown(domain.ProductAttributes{
				CarbonFootprintKg: kg,
				Materials:         materials,
				DurabilityScore:   durability,
				PackagingScore:    packaging,
				HealthImpactScore: health,
			})

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "EcoScore: %.1f / 5\n\n", b.Final)
			fmt.Fprintf(out, "  Carbon      %.1f  (%.3g kg CO2e)\n", b.Carbon, kg)
			fmt.Fprintf(out, "  Materials   %.1f\n", b.Material)
			fmt.Fprintf(out, "  Durability  %.1f\n", b.Durability)
			fmt.Fprintf(out, "  Packaging   %.1f\n", b.Packaging)
			fmt.Fprintf(out, "  Health      %.1f\n", b.Health)
			return nil
		},
	}
	cmd.Flags().Float64Var(&carbon, "carbon", 0, "carbon footprint")
	cmd.Flags().StringVar(&unit, "unit", "kg", "carbon unit: g, kg, t, lb")
	cmd.Flags().StringSliceVar(&materials, "material", nil, "material (repeatable)")
	cmd.Flags().Float64Var(&durability, "durability", 3, "durability score 1..5")
	cmd.Flags().Float64Var(&packaging, "packaging", 3, "packaging score 1..5")
	cmd.Flags().Float64Var(&health, "health", 3, "health impact score 1..5")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

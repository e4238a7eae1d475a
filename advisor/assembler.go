package advisor

import (
	"fmt"
	"sort"
	"strings"

	"cattlefeed/ml"
)

// Summary is the structured form of a diet-formulation request.
type Summary struct {
	Requirements ml.PredictionRecord `json:"requirements"`
	Ingredients  []Ingredient        `json:"ingredients"`
	Excluded     []string            `json:"excluded,omitempty"`
}

// BuildSummary filters the ingredient table and normalises the exclusion
// list so that argument order never changes the result.
func BuildSummary(record ml.PredictionRecord, excluded []string) (Summary, error) {
	if err := record.Complete(); err != nil {
		return Summary{}, err
	}
	names := normaliseExclusions(excluded)
	requirements := make(ml.PredictionRecord, len(record))
	for _, target := range ml.NutrientTargets() {
		requirements[target] = record[target]
	}
	return Summary{
		Requirements: requirements,
		Ingredients:  AvailableIngredients(names),
		Excluded:     names,
	}, nil
}

// Assemble renders the prompt handed to the text-completion service.
func Assemble(record ml.PredictionRecord, excluded []string) (string, error) {
	summary, err := BuildSummary(record, excluded)
	if err != nil {
		return "", err
	}
	return summary.Prompt(), nil
}

func (s Summary) Prompt() string {
	r := s.Requirements
	var b strings.Builder

	b.WriteString("You are an expert cattle nutritionist.\n\n")
	b.WriteString("A cow needs the following nutrients per day:\n")
	fmt.Fprintf(&b, "- Dry Matter Intake (DMI): %.1f lbs\n", r[ml.DMIntake])
	fmt.Fprintf(&b, "- Total Digestible Nutrients (TDN): %.1f%% of DM (%.1f lbs)\n", r[ml.TDNPercent], r[ml.TDNLbs])
	fmt.Fprintf(&b, "- Net Energy for Maintenance (NEm): %.2f Mcal/lb (%.1f Mcal)\n", r[ml.NEmPerLb], r[ml.NEmMcal])
	fmt.Fprintf(&b, "- Net Energy for Gain (NEg): %.2f Mcal/lb (%.1f Mcal)\n", r[ml.NEgPerLb], r[ml.NEgMcal])
	fmt.Fprintf(&b, "- Crude Protein (CP): %.1f%% of DM (%.2f lbs)\n", r[ml.CPPercent], r[ml.CPLbs])
	fmt.Fprintf(&b, "- Calcium (Ca): %.2f%% of DM (%.0f g)\n", r[ml.CaPercent], r[ml.CaGrams])
	fmt.Fprintf(&b, "- Phosphorus (P): %.2f%% of DM (%.0f g)\n", r[ml.PPercent], r[ml.PGrams])

	b.WriteString("\nHere is a list of available feed ingredients and their nutrient values per pound of dry matter:\n\n")
	b.WriteString("| Feed Ingredient        | TDN (%) | NEm (Mcal/lb) | NEg (Mcal/lb) | CP (%) | Ca (%) | P (%) |\n")
	b.WriteString("|------------------------|---------|----------------|----------------|--------|--------|--------|\n")
	for _, ing := range s.Ingredients {
		fmt.Fprintf(&b, "| %-20s | %-7s | %-12s | %-12s | %-6s | %-6s | %-6s |\n",
			ing.Name,
			formatNumber(ing.TDN),
			formatNumber(ing.NEm),
			formatNumber(ing.NEg),
			formatNumber(ing.CP),
			formatNumber(ing.Ca),
			formatNumber(ing.P))
	}

	b.WriteString("\n**Your Task:**\n")
	b.WriteString("- Design a realistic daily feed menu of 5 to 7 ingredients from the available ingredients.\n")
	b.WriteString("- Show quantity of each ingredient in pounds of dry matter.\n")
	b.WriteString("- Calculate and show the contribution of each to total TDN, NEm, NEg, CP, Ca, and P.\n")
	b.WriteString("- Ensure the totals are as close as possible to the cow's requirements above.\n")
	b.WriteString("- Keep the ingredients reasonable and commonly used.\n")

	if len(s.Excluded) > 0 {
		fmt.Fprintf(&b, "\nNote: The following ingredients are not available: %s. Please adjust the feed menu accordingly.\n",
			strings.Join(s.Excluded, ", "))
	}

	b.WriteString("\nReturn a table like this:\n\n")
	b.WriteString("| Ingredient            | Amount (lbs DM) | TDN (lbs) | NEm (Mcal) | NEg (Mcal) | CP (lbs) | Ca (g) | P (g) |\n")
	b.WriteString("|-----------------------|------------------|------------|-------------|-------------|----------|--------|--------|\n")
	b.WriteString("| Feed 1                |                  |            |             |             |          |        |        |\n")
	b.WriteString("| ...                   |                  |            |             |             |          |        |        |\n")
	fmt.Fprintf(&b, "| **Total**             | %.1f | %.1f | %.1f | %.1f | %.2f | %.0f | %.0f |\n",
		r[ml.DMIntake], r[ml.TDNLbs], r[ml.NEmMcal], r[ml.NEgMcal], r[ml.CPLbs], r[ml.CaGrams], r[ml.PGrams])

	b.WriteString("\nAfter your table, list any assumptions or notes you made.\n\n")
	b.WriteString("Start your response with: \"Here is the feed menu that meets the cow's nutrient needs.\"\n")
	return b.String()
}

func normaliseExclusions(excluded []string) []string {
	seen := make(map[string]struct{}, len(excluded))
	names := make([]string, 0, len(excluded))
	for _, name := range excluded {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package advisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattlefeed/ml"
)

func sampleRecord() ml.PredictionRecord {
	return ml.PredictionRecord{
		ml.DMIntake:   18.44,
		ml.TDNPercent: 68.26,
		ml.NEmPerLb:   0.734,
		ml.NEgPerLb:   0.456,
		ml.CPPercent:  11.87,
		ml.CaPercent:  0.456,
		ml.PPercent:   0.243,
		ml.TDNLbs:     12.58,
		ml.NEmMcal:    13.53,
		ml.NEgMcal:    8.41,
		ml.CPLbs:      2.189,
		ml.CaGrams:    38.4,
		ml.PGrams:     20.6,
	}
}

func ingredientRows(prompt string) []string {
	var rows []string
	for _, ing := range Ingredients() {
		if strings.Contains(prompt, "| "+ing.Name+" ") {
			rows = append(rows, ing.Name)
		}
	}
	return rows
}

func TestAssembleFormatting(t *testing.T) {
	prompt, err := Assemble(sampleRecord(), nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Dry Matter Intake (DMI): 18.4 lbs\n")
	assert.Contains(t, prompt, "- Total Digestible Nutrients (TDN): 68.3% of DM (12.6 lbs)\n")
	assert.Contains(t, prompt, "- Net Energy for Maintenance (NEm): 0.73 Mcal/lb (13.5 Mcal)\n")
	assert.Contains(t, prompt, "- Crude Protein (CP): 11.9% of DM (2.19 lbs)\n")
	assert.Contains(t, prompt, "- Calcium (Ca): 0.46% of DM (38 g)\n")
	assert.Contains(t, prompt, "- Phosphorus (P): 0.24% of DM (21 g)\n")
	assert.Contains(t, prompt, "| Alfalfa Hay          | 58      | 0.5          | 0.3          | 17     | 1.2    | 0.22   |\n")
	assert.Contains(t, prompt, "| **Total**             | 18.4 | 12.6 | 13.5 | 8.4 | 2.19 | 38 | 21 |\n")
	assert.NotContains(t, prompt, "not available")
	assert.Len(t, ingredientRows(prompt), 7)
}

func TestAssembleExclusions(t *testing.T) {
	prompt, err := Assemble(sampleRecord(), []string{"Salt", "Trace Mineral Mix"})
	require.NoError(t, err)

	rows := ingredientRows(prompt)
	assert.Len(t, rows, 5)
	assert.NotContains(t, rows, "Salt")
	assert.NotContains(t, rows, "Trace Mineral Mix")
	assert.Contains(t, prompt, "| Ground Corn          | 88      | 0.9          | 0.65         | 9      | 0.02   | 0.28   |\n")
	assert.Contains(t, prompt, "Note: The following ingredients are not available: Salt, Trace Mineral Mix.")
}

func TestAssembleDeterministic(t *testing.T) {
	a, err := Assemble(sampleRecord(), []string{"Salt", "Corn Silage", "Unobtainium"})
	require.NoError(t, err)
	b, err := Assemble(sampleRecord(), []string{"Unobtainium", " Corn Silage", "Salt", "Salt"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	rows := ingredientRows(a)
	assert.Len(t, rows, 5)
}

func TestAssembleUnknownExclusionIgnored(t *testing.T) {
	prompt, err := Assemble(sampleRecord(), []string{"Unobtainium"})
	require.NoError(t, err)
	assert.Len(t, ingredientRows(prompt), 7)
}

func TestAssembleIncompleteRecord(t *testing.T) {
	record := sampleRecord()
	delete(record, ml.PGrams)
	_, err := Assemble(record, nil)
	assert.ErrorIs(t, err, ml.ErrMissingTarget)
}

func TestAssembleDoesNotMutateTable(t *testing.T) {
	_, err := Assemble(sampleRecord(), []string{"Alfalfa Hay"})
	require.NoError(t, err)
	assert.Len(t, Ingredients(), 7)
	assert.Equal(t, "Alfalfa Hay", Ingredients()[0].Name)
}

func TestBuildSummary(t *testing.T) {
	summary, err := BuildSummary(sampleRecord(), []string{"Salt", "Salt", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"Salt"}, summary.Excluded)
	assert.Len(t, summary.Ingredients, 6)
	assert.Len(t, summary.Requirements, 13)
}

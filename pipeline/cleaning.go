package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cattlefeed/ml"
)

// CleaningRule checks a single raw row.
type CleaningRule interface {
	Apply(RawRow) error
	Name() string
}

type QualityIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
}

type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Issues         map[string]int64 `json:"issues"`
}

// DataCleaner converts raw rows into a numeric dataset restricted to columns.
type DataCleaner struct {
	columns []string
	rules   []CleaningRule
	stats   CleaningStats
}

func NewDataCleaner(columns []string) *DataCleaner {
	cleaner := &DataCleaner{
		columns: columns,
		stats:   CleaningStats{Issues: make(map[string]int64)},
	}
	cleaner.AddRule(NewCompletenessRule(columns))
	cleaner.AddRule(NewBreedCodeRule())
	cleaner.AddRule(NewPositiveWeightRule())
	return cleaner
}

func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
}

func (dc *DataCleaner) Clean(rows []RawRow) (*ml.Dataset, []QualityIssue) {
	dataset := &ml.Dataset{Columns: dc.columns}
	var issues []QualityIssue

	for _, row := range rows {
		dc.stats.TotalProcessed++
		var rowIssues []QualityIssue
		for _, rule := range dc.rules {
			if err := rule.Apply(row); err != nil {
				rowIssues = append(rowIssues, QualityIssue{
					Type:     rule.Name(),
					Severity: "high",
					Message:  err.Error(),
					Line:     row.Line,
				})
				dc.stats.Issues[rule.Name()]++
			}
		}
		if len(rowIssues) > 0 {
			dc.stats.Rejected++
			issues = append(issues, rowIssues...)
			continue
		}

		values := make([]float64, len(dc.columns))
		for i, column := range dc.columns {
			cell, _ := row.Cell(column)
			values[i], _ = parseCell(cell)
		}
		dataset.Rows = append(dataset.Rows, values)
		dc.stats.Passed++
	}
	return dataset, issues
}

func (dc *DataCleaner) GetStats() CleaningStats {
	return dc.stats
}

// CompletenessRule rejects missing, non-numeric and non-finite cells.
type CompletenessRule struct {
	columns []string
}

func NewCompletenessRule(columns []string) *CompletenessRule {
	return &CompletenessRule{columns: columns}
}

func (r *CompletenessRule) Name() string {
	return "completeness"
}

func (r *CompletenessRule) Apply(row RawRow) error {
	for _, column := range r.columns {
		cell, ok := row.Cell(column)
		if !ok || strings.TrimSpace(cell) == "" {
			return fmt.Errorf("missing value for %q", column)
		}
		if _, err := parseCell(cell); err != nil {
			return fmt.Errorf("column %q: %v", column, err)
		}
	}
	return nil
}

// BreedCodeRule requires the type column to be one of the known codes.
type BreedCodeRule struct {
	MaxCode int
}

func NewBreedCodeRule() *BreedCodeRule {
	return &BreedCodeRule{MaxCode: 2}
}

func (r *BreedCodeRule) Name() string {
	return "breed_code"
}

func (r *BreedCodeRule) Apply(row RawRow) error {
	cell, ok := row.Cell(ml.ColumnType)
	if !ok {
		return nil
	}
	v, err := parseCell(cell)
	if err != nil {
		// reported by completeness
		return nil
	}
	if v != math.Trunc(v) || v < 0 || v > float64(r.MaxCode) {
		return fmt.Errorf("type %v is not a breed code in 0..%d", v, r.MaxCode)
	}
	return nil
}

// PositiveWeightRule rejects non-positive weights and negative gain.
type PositiveWeightRule struct{}

func NewPositiveWeightRule() *PositiveWeightRule {
	return &PositiveWeightRule{}
}

func (r *PositiveWeightRule) Name() string {
	return "positive_weight"
}

func (r *PositiveWeightRule) Apply(row RawRow) error {
	for _, column := range []string{ml.ColumnTargetWeight, ml.ColumnBodyWeight} {
		cell, ok := row.Cell(column)
		if !ok {
			continue
		}
		if v, err := parseCell(cell); err == nil && v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", column, v)
		}
	}
	if cell, ok := row.Cell(ml.ColumnADG); ok {
		if v, err := parseCell(cell); err == nil && v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", ml.ColumnADG, v)
		}
	}
	return nil
}

func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", cell)
	}
	return v, nil
}

package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"cattlefeed/ml"
)

// RawRow is one CSV record before numeric conversion.
type RawRow struct {
	Line   int
	Header []string
	Cells  []string
}

func (r RawRow) Cell(column string) (string, bool) {
	for i, name := range r.Header {
		if name == column {
			if i >= len(r.Cells) {
				return "", false
			}
			return r.Cells[i], true
		}
	}
	return "", false
}

// ReadRows parses a headered CSV. Extra columns are kept and ignored later.
func ReadRows(r io.Reader) ([]string, []RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows := make([]RawRow, 0)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, RawRow{Line: line, Header: header, Cells: record})
	}
	return header, rows, nil
}

// LoadDataset reads the training CSV at path. Any rejected row fails the
// load: training data must be fully populated.
func LoadDataset(path string) (*ml.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadDataset(file)
}

func ReadDataset(r io.Reader) (*ml.Dataset, error) {
	header, rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}

	columns := append(ml.FeatureNames(), targetColumns()...)
	probe := &ml.Dataset{Columns: header}
	if err := probe.RequireColumns(columns...); err != nil {
		return nil, err
	}

	cleaner := NewDataCleaner(columns)
	dataset, issues := cleaner.Clean(rows)
	if len(issues) > 0 {
		for _, issue := range issues {
			zap.L().Warn("rejected training row",
				zap.Int("line", issue.Line),
				zap.String("rule", issue.Type),
				zap.String("message", issue.Message))
		}
		return nil, &RejectedRowsError{Issues: issues}
	}
	if dataset.Len() == 0 {
		return nil, errors.New("csv has no data rows")
	}
	zap.L().Info("training data loaded", zap.Int("rows", dataset.Len()))
	return dataset, nil
}

// RejectedRowsError lists every row that failed a cleaning rule.
type RejectedRowsError struct {
	Issues []QualityIssue
}

func (e *RejectedRowsError) Error() string {
	if len(e.Issues) == 0 {
		return "rejected rows"
	}
	first := e.Issues[0]
	return fmt.Sprintf("%d rejected row issue(s), first at line %d: %s", len(e.Issues), first.Line, first.Message)
}

func targetColumns() []string {
	targets := ml.NutrientTargets()
	names := make([]string, len(targets))
	for i, target := range targets {
		names[i] = string(target)
	}
	return names
}

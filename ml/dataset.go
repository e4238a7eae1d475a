package ml

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingColumn = errors.New("dataset missing required column")

// Dataset is a fully populated numeric table with named columns.
type Dataset struct {
	Columns []string
	Rows    [][]float64
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

func (d *Dataset) columnIndex(name string) (int, bool) {
	for i, column := range d.Columns {
		if column == name {
			return i, true
		}
	}
	return -1, false
}

// RequireColumns reports every missing name in a single error.
func (d *Dataset) RequireColumns(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := d.columnIndex(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func (d *Dataset) Column(name string) ([]float64, error) {
	idx, ok := d.columnIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	out := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		if idx >= len(row) {
			return nil, fmt.Errorf("row %d is shorter than header", i)
		}
		out[i] = row[idx]
	}
	return out, nil
}

// Select returns the named columns as row vectors, in the order given.
func (d *Dataset) Select(names []string) ([][]float64, error) {
	indices := make([]int, len(names))
	for j, name := range names {
		idx, ok := d.columnIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		indices[j] = idx
	}
	out := make([][]float64, len(d.Rows))
	for i, row := range d.Rows {
		vector := make([]float64, len(indices))
		for j, idx := range indices {
			if idx >= len(row) {
				return nil, fmt.Errorf("row %d is shorter than header", i)
			}
			vector[j] = row[idx]
		}
		out[i] = vector
	}
	return out, nil
}

// Split keeps row order: the first (1-testRatio) share trains, the rest tests.
// A ratio of zero or less leaves the test set empty.
func (d *Dataset) Split(testRatio float64) (train, test *Dataset) {
	if testRatio < 0 {
		testRatio = 0
	}
	if testRatio > 1 {
		testRatio = 1
	}
	split := int(float64(len(d.Rows)) * (1 - testRatio))
	train = &Dataset{Columns: d.Columns, Rows: d.Rows[:split]}
	test = &Dataset{Columns: d.Columns, Rows: d.Rows[split:]}
	return train, test
}

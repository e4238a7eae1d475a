package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

var ErrScalerNotFitted = errors.New("scaler not fitted")

// Scaler standardizes columns to zero mean and unit variance using
// statistics frozen at Fit time.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return errors.New("rows is empty")
	}
	width := len(rows[0])
	if width == 0 {
		return errors.New("rows have no columns")
	}
	mean := make([]float64, width)
	scale := make([]float64, width)
	column := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			if len(row) != width {
				return fmt.Errorf("row %d has %d columns, expected %d", i, len(row), width)
			}
			column[i] = row[j]
		}
		m, std := stat.PopMeanStdDev(column, nil)
		// constant column: leave values centred but unscaled
		if std == 0 {
			std = 1
		}
		mean[j] = m
		scale[j] = std
	}
	s.Mean = mean
	s.Scale = scale
	return nil
}

func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if err := s.check(len(row)); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

func (s *Scaler) InverseTransform(row []float64) ([]float64, error) {
	if err := s.check(len(row)); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = v*s.Scale[j] + s.Mean[j]
	}
	return out, nil
}

func (s *Scaler) FitTransform(rows [][]float64) ([][]float64, error) {
	if err := s.Fit(rows); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

// Width is the number of columns the scaler was fitted on.
func (s *Scaler) Width() int {
	if s == nil {
		return 0
	}
	return len(s.Mean)
}

func (s *Scaler) check(width int) error {
	if s == nil || len(s.Mean) == 0 {
		return ErrScalerNotFitted
	}
	if len(s.Mean) != len(s.Scale) {
		return errors.New("scaler state corrupted")
	}
	if width != len(s.Mean) {
		return fmt.Errorf("expected %d columns, got %d", len(s.Mean), width)
	}
	return nil
}

package advisor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		breed        string
		targetWeight float64
		wantOK       bool
		wantReason   []string
	}{
		{name: "yearlings in range", breed: "growing_yearlings", targetWeight: 1000, wantOK: true},
		{name: "yearlings at cap", breed: "growing_yearlings", targetWeight: 1400, wantOK: true},
		{name: "bulls at cap", breed: "growing_mature_bulls", targetWeight: 2300, wantOK: true},
		{name: "steer heifer in range", breed: "growing_steer_heiver", targetWeight: 900, wantOK: true},
		{
			name:         "yearlings over cap",
			breed:        "growing_yearlings",
			targetWeight: 2000,
			wantReason:   []string{"1400", "consult an expert"},
		},
		{
			name:         "bulls just over cap",
			breed:        "growing_mature_bulls",
			targetWeight: 2300.5,
			wantReason:   []string{"2300 lbs"},
		},
		{
			name:         "unknown class",
			breed:        "dairy_cows",
			targetWeight: 1000,
			wantReason:   []string{"growing_mature_bulls, growing_steer_heiver, growing_yearlings"},
		},
		{
			name:         "not a number",
			breed:        "growing_yearlings",
			targetWeight: math.NaN(),
			wantReason:   []string{"finite"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := Validate(tt.breed, tt.targetWeight)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Empty(t, reason)
				return
			}
			for _, fragment := range tt.wantReason {
				assert.Contains(t, reason, fragment)
			}
		})
	}
}

func TestBreedsListing(t *testing.T) {
	breeds := Breeds()
	assert.Len(t, breeds, 3)
	codes := map[BreedClass]int{}
	for _, b := range breeds {
		codes[b.Name] = b.Code
	}
	assert.Equal(t, 0, codes[GrowingSteerHeifer])
	assert.Equal(t, 1, codes[GrowingYearlings])
	assert.Equal(t, 2, codes[GrowingMatureBulls])
}

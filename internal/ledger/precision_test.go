package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestClassifyPrecision(t *testing.T) {
	tests := []struct {
		precision *float64
		want      Precision
		warning   string
	}{
		{nil, PrecisionUnknown, ""},
		{ptr(0), PrecisionAcceptable, ""},
		{ptr(12.5), PrecisionAcceptable, ""},
		{ptr(50), PrecisionAcceptable, ""},
		{ptr(50.5), PrecisionDegraded, "GPS precision 50m. Under 50m recommended."},
		{ptr(75.5), PrecisionDegraded, "GPS precision 76m. Under 50m recommended."},
		{ptr(100), PrecisionDegraded, "GPS precision 100m. Under 50m recommended."},
		{ptr(150), PrecisionSeverelyDegraded, "GPS precision low (150m). Re-register recommended."},
		{ptr(2500000.4), PrecisionSeverelyDegraded, "GPS precision low (2500000m). Re-register recommended."},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.precision != nil {
			name = fmt.Sprint(*tt.precision)
		}
		t.Run(name, func(t *testing.T) {
			got, warning := ClassifyPrecision(tt.precision)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.warning, warning)
		})
	}
}

func TestStoredPrecision(t *testing.T) {
	assert.Nil(t, storedPrecision(nil))
	assert.Equal(t, 75.5, *storedPrecision(ptr(75.5)))
	assert.Equal(t, MaxStoredPrecisionM, *storedPrecision(ptr(MaxStoredPrecisionM)))
	assert.Equal(t, MaxStoredPrecisionM, *storedPrecision(ptr(1000000)))
}

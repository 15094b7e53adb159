package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	values := []float64{102, 105, 106, 108, 110, 111, 113, 114, 116, 118}

	ma, err := SMA(values, 5)
	assert.NoError(t, err)
	// Last 5: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)
}

func TestSMAErrors(t *testing.T) {
	_, err := SMA([]float64{1, 2, 3}, 0)
	assert.Error(t, err)

	_, err = SMA([]float64{1, 2, 3}, -1)
	assert.Error(t, err)

	_, err = SMA([]float64{1, 2, 3}, 5)
	assert.Error(t, err)
}

func TestSMASeries(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMASeries(values, 3)

	assert.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMASeriesMatchesBatch(t *testing.T) {
	values := []float64{10, 12, 11, 14, 13, 16, 15, 18}
	out := SMASeries(values, 4)

	want, err := SMA(values, 4)
	assert.NoError(t, err)
	assert.InDelta(t, want, out[len(out)-1], 1e-9)
}

func TestSMASeriesBadPeriod(t *testing.T) {
	out := SMASeries([]float64{1, 2, 3}, 0)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

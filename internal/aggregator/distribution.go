package aggregator

import (
	"math"
	"sort"
	"strconv"

	"github.com/pable/go-xg-metrics/internal/model"
)

// Percentiles reported in Distribution.Percentiles, keyed by their string form.
var Percentiles = []int{10, 25, 50, 75, 90, 95, 99}

// Distribution summarises predicted probabilities: moments, percentiles
// (linear interpolation) and a histogram with bins equal-width bins over [0,1].
// The standard deviation is the sample one (n-1); it is 0 for fewer than two values.
func Distribution(preds []float64, bins int) model.Distribution {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	d := model.Distribution{
		Count:       len(preds),
		Percentiles: make(map[string]float64, len(Percentiles)),
		Histogram:   histogram(preds, bins),
	}
	if len(preds) == 0 {
		return d
	}

	sorted := make([]float64, len(preds))
	copy(sorted, preds)
	sort.Float64s(sorted)

	var sum float64
	for _, p := range sorted {
		sum += p
	}
	d.Mean = sum / float64(len(sorted))
	d.Median = median(sorted)
	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]

	if len(sorted) > 1 {
		var ss float64
		for _, p := range sorted {
			ss += (p - d.Mean) * (p - d.Mean)
		}
		d.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}

	for _, q := range Percentiles {
		d.Percentiles[strconv.Itoa(q)] = quantile(sorted, float64(q)/100)
	}
	return d
}

// median returns the median of a pre-sorted (ascending) slice of float64.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantile interpolates linearly between the closest ranks of a pre-sorted slice.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// histogram counts values into equal-width bins over [0,1]; the last bin is
// closed. Values outside [0,1] are not counted.
func histogram(values []float64, bins int) model.Histogram {
	h := model.Histogram{
		Counts:  make([]int, bins),
		Edges:   make([]float64, bins+1),
		Centers: make([]float64, bins),
	}
	for i := 0; i <= bins; i++ {
		h.Edges[i] = float64(i) / float64(bins)
	}
	for i := 0; i < bins; i++ {
		h.Centers[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	for _, v := range values {
		if v < 0 || v > 1 {
			continue
		}
		h.Counts[bucketIndex(v, bins)]++
	}
	return h
}

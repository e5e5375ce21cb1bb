package aggregator

import "github.com/pable/go-xg-metrics/internal/model"

// Buckets partitions [0,1] into n equal-width buckets, each [lo, hi) except the
// last which also takes 1.0. Every bucket is returned; an empty one has shots 0
// and undefined means.
func Buckets(obs []Observation, n int) []model.CalibrationBucket {
	if n <= 0 {
		n = DefaultBuckets
	}
	out := make([]model.CalibrationBucket, n)
	for i := range out {
		out[i] = model.CalibrationBucket{
			Index: i,
			Lo:    float64(i) / float64(n),
			Hi:    float64(i+1) / float64(n),
		}
	}
	out[n-1].Hi = 1

	for _, o := range obs {
		b := &out[bucketIndex(o.Predicted, n)]
		b.Shots++
		b.PredictedGoals += o.Predicted
		if o.Goal {
			b.Goals++
		}
	}

	for i := range out {
		b := &out[i]
		if b.Shots == 0 {
			continue
		}
		shots := float64(b.Shots)
		predicted := b.PredictedGoals / shots
		actual := float64(b.Goals) / shots
		b.MeanPredicted = model.Defined(predicted)
		b.MeanActual = model.Defined(actual)
		b.Error = model.Defined(actual - predicted)
	}
	return out
}

// bucketIndex maps p to its bucket; out-of-range values are clamped to the ends.
func bucketIndex(p float64, n int) int {
	i := int(p * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

package analytics

import (
	"math"
	"time"

	"github.com/DarkFirexs/Parser/internal/model"
)

// Counts are the stage cardinalities observed by the pipeline.
type Counts struct {
	Collected         int
	DuplicatesRemoved int
	Unique            int
}

// Compute builds the run summary. Rates and averages are zero when their
// denominator is zero.
func Compute(counts Counts, valid []model.ValidatedDescriptor, duration time.Duration, now time.Time) model.RunStatistics {
	stats := model.RunStatistics{
		Timestamp:         now,
		Elapsed:           duration,
		DurationMinutes:   round2(duration.Minutes()),
		Collected:         counts.Collected,
		DuplicatesRemoved: counts.DuplicatesRemoved,
		Unique:            counts.Unique,
		Passed:            len(valid),
		Failed:            counts.Unique - len(valid),
		Transports:        make(map[string]int),
		Countries:         make(map[string]int),
	}

	var scoreSum int
	for _, v := range valid {
		transport := v.Transport
		if transport == "" {
			transport = model.DefaultTransport
		}
		stats.Transports[transport]++

		country := v.Country
		if country == "" {
			country = model.UnknownCountry
		}
		stats.Countries[country]++

		scoreSum += v.QualityScore
	}

	if counts.Unique > 0 {
		stats.PassRatePct = round2(float64(len(valid)) / float64(counts.Unique) * 100.0)
	}
	if len(valid) > 0 {
		stats.AvgQualityScore = round2(float64(scoreSum) / float64(len(valid)))
	}

	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

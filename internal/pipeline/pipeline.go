// Package pipeline sequences collection, deduplication, checking and ranking.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/DarkFirexs/Parser/internal/analytics"
	"github.com/DarkFirexs/Parser/internal/dedup"
	"github.com/DarkFirexs/Parser/internal/model"
	"github.com/DarkFirexs/Parser/internal/parser"
)

const DefaultTopN = 100

// Source produces raw descriptors.
type Source interface {
	Collect(ctx context.Context) []string
}

// Validator checks raw descriptors concurrently.
type Validator interface {
	RunBatch(ctx context.Context, raws []string, workers int) []model.ValidatedDescriptor
}

// Report is the outcome of one run.
type Report struct {
	// Valid is sorted by QualityScore, highest first.
	Valid []model.ValidatedDescriptor
	// Top is the first TopN entries of Valid, set only when more than TopN passed.
	Top   []model.ValidatedDescriptor
	Stats model.RunStatistics
}

type Pipeline struct {
	Source    Source
	Validator Validator
	Parse     dedup.ParseFunc
	Workers   int
	TopN      int
	Log       *slog.Logger

	now func() time.Time
}

func New(src Source, v Validator, workers, topN int, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		Source:    src,
		Validator: v,
		Parse:     parser.Parse,
		Workers:   workers,
		TopN:      topN,
		Log:       log,
		now:       time.Now,
	}
}

// Run executes one full pass. It never fails: empty stages simply produce
// an empty report with zeroed statistics.
func (p *Pipeline) Run(ctx context.Context) Report {
	start := p.now()

	collected := p.Source.Collect(ctx)

	unique, removed := dedup.Deduplicate(collected, p.Parse)
	p.Log.Info("deduplicated",
		"collected", len(collected),
		"removed", removed,
		"unique", len(unique),
	)

	valid := p.Validator.RunBatch(ctx, unique, p.Workers)
	Rank(valid)
	p.Log.Info("checks finished", "unique", len(unique), "passed", len(valid))

	end := p.now()
	stats := analytics.Compute(analytics.Counts{
		Collected:         len(collected),
		DuplicatesRemoved: removed,
		Unique:            len(unique),
	}, valid, end.Sub(start), end)

	report := Report{Valid: valid, Stats: stats}
	if p.TopN > 0 && len(valid) > p.TopN {
		report.Top = valid[:p.TopN]
	}
	return report
}

// Rank orders descriptors by QualityScore, highest first. Equal scores keep
// their current relative order.
func Rank(valid []model.ValidatedDescriptor) {
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].QualityScore > valid[j].QualityScore
	})
}

package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DarkFirexs/Parser/internal/model"
	"github.com/DarkFirexs/Parser/internal/parser"
)

type staticSource []string

func (s staticSource) Collect(context.Context) []string { return s }

// scoreValidator passes every descriptor whose identity is not "bad" and
// scores it by port, so tests can control ranking.
type scoreValidator struct {
	seen    []string
	workers int
}

func (v *scoreValidator) RunBatch(_ context.Context, raws []string, workers int) []model.ValidatedDescriptor {
	v.seen = raws
	v.workers = workers
	var out []model.ValidatedDescriptor
	for _, raw := range raws {
		d, ok := parser.Parse(raw)
		if !ok || d.Identity == "bad" {
			continue
		}
		out = append(out, model.ValidatedDescriptor{Descriptor: d, Country: "NL", QualityScore: d.Port % 111})
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_EmptySources(t *testing.T) {
	p := New(staticSource(nil), &scoreValidator{}, 30, DefaultTopN, quietLogger())
	report := p.Run(context.Background())

	if len(report.Valid) != 0 || report.Top != nil {
		t.Fatalf("expected empty report, got %+v", report)
	}
	s := report.Stats
	if s.Collected != 0 || s.DuplicatesRemoved != 0 || s.Unique != 0 || s.Passed != 0 {
		t.Fatalf("expected zero counts, got %+v", s)
	}
	if s.PassRatePct != 0 {
		t.Fatalf("pass rate = %v", s.PassRatePct)
	}
}

func TestRun_DedupThenRank(t *testing.T) {
	src := staticSource{
		"vless://a@1.1.1.1:10#x",
		"vless://a@1.1.1.1:10#y",
		"vless://b@1.1.1.1:110",
		"vless://bad@1.1.1.1:50",
		"vless://c@1.1.1.1:60",
		"not a descriptor",
	}
	v := &scoreValidator{}
	p := New(src, v, 7, DefaultTopN, quietLogger())

	report := p.Run(context.Background())

	if len(v.seen) != 4 || v.workers != 7 {
		t.Fatalf("validator saw %q with %d workers", v.seen, v.workers)
	}
	var got []int
	for _, vd := range report.Valid {
		got = append(got, vd.QualityScore)
	}
	want := []int{110, 60, 10}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("scores = %v, want %v", got, want)
	}

	s := report.Stats
	if s.Collected != 6 || s.DuplicatesRemoved != 2 || s.Unique != 4 || s.Passed != 3 || s.Failed != 1 {
		t.Fatalf("bad stats: %+v", s)
	}
	if s.PassRatePct != 75 {
		t.Fatalf("pass rate = %v", s.PassRatePct)
	}
}

func TestRun_TopOnlyWhenMoreThanN(t *testing.T) {
	var src staticSource
	for i := 0; i < 5; i++ {
		src = append(src, fmt.Sprintf("vless://id%d@1.1.1.1:%d", i, 100+i))
	}

	p := New(src, &scoreValidator{}, 2, 5, quietLogger())
	if r := p.Run(context.Background()); r.Top != nil {
		t.Fatalf("Top should be unset with exactly N results")
	}

	p.TopN = 3
	r := p.Run(context.Background())
	if len(r.Top) != 3 {
		t.Fatalf("len(Top) = %d, want 3", len(r.Top))
	}
	if r.Top[0].QualityScore != 104 || r.Top[2].QualityScore != 102 {
		t.Fatalf("Top not the best entries: %+v", r.Top)
	}
}

func TestRun_Elapsed(t *testing.T) {
	p := New(staticSource(nil), &scoreValidator{}, 1, 1, quietLogger())
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	p.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 3 * time.Minute)
	}

	r := p.Run(context.Background())
	if r.Stats.DurationMinutes != 3 {
		t.Fatalf("duration = %v", r.Stats.DurationMinutes)
	}
}

func TestRank_SortedNonIncreasing(t *testing.T) {
	valid := []model.ValidatedDescriptor{
		{QualityScore: 20, Country: "a"},
		{QualityScore: 110, Country: "b"},
		{QualityScore: 20, Country: "c"},
		{QualityScore: 0, Country: "d"},
		{QualityScore: 80, Country: "e"},
	}
	Rank(valid)

	for i := 1; i < len(valid); i++ {
		if valid[i].QualityScore > valid[i-1].QualityScore {
			t.Fatalf("not sorted at %d: %+v", i, valid)
		}
	}
	// ties keep input order
	if valid[2].Country != "a" || valid[3].Country != "c" {
		t.Fatalf("tie order changed: %+v", valid)
	}
}

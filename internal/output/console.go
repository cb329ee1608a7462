package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/DarkFirexs/Parser/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)
)

const topCountries = 10

// PrintResultsTable prints the first limit descriptors as a table.
// limit <= 0 prints all of them.
func PrintResultsTable(w io.Writer, valid []model.ValidatedDescriptor, limit int) {
	if limit <= 0 || limit > len(valid) {
		limit = len(valid)
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST:PORT\tSCORE\tCOUNTRY\tTRANSPORT\tSNI\tFLOW")

	for _, v := range valid[:limit] {
		fmt.Fprintf(tw, "%s:%d\t%d\t%s\t%s\t%s\t%s\n",
			v.Host,
			v.Port,
			v.QualityScore,
			dashIfEmpty(v.Country),
			dashIfEmpty(v.Transport),
			dashIfEmpty(v.ServerName),
			dashIfEmpty(v.Flow),
		)
	}

	tw.Flush()
}

// PrintSummary prints the run statistics.
func PrintSummary(w io.Writer, stats model.RunStatistics) {
	counts := strings.Join([]string{
		fmt.Sprintf("Time:               %.1f min", stats.Elapsed.Minutes()),
		fmt.Sprintf("Collected:          %d", stats.Collected),
		fmt.Sprintf("Duplicates removed: %d", stats.DuplicatesRemoved),
		fmt.Sprintf("Unique:             %d", stats.Unique),
		fmt.Sprintf("Passed:             %d", stats.Passed),
		fmt.Sprintf("Filtered out:       %d", stats.Failed),
		fmt.Sprintf("Pass rate:          %.1f%%", stats.PassRatePct),
		fmt.Sprintf("Avg quality score:  %.1f/110", stats.AvgQualityScore),
	}, "\n")

	transports := "Transports:\n" + histogram(stats.Transports, 0)
	countries := fmt.Sprintf("Countries (top %d):\n", topCountries) + histogram(stats.Countries, topCountries)

	row := lipgloss.JoinHorizontal(lipgloss.Top, boxStyle.Render(transports), boxStyle.Render(countries))
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Run summary"),
		boxStyle.Render(counts),
		row,
	)

	fmt.Fprintln(w)
	fmt.Fprintln(w, body)
}

type bucket struct {
	name  string
	count int
}

// histogram renders counts in descending order, ties by name.
func histogram(m map[string]int, limit int) string {
	if len(m) == 0 {
		return "  -"
	}

	buckets := make([]bucket, 0, len(m))
	for k, v := range m {
		buckets = append(buckets, bucket{k, v})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].name < buckets[j].name
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}

	lines := make([]string, 0, len(buckets))
	for _, b := range buckets {
		lines = append(lines, fmt.Sprintf("  %s: %d", b.name, b.count))
	}
	return strings.Join(lines, "\n")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Package report renders the run's markdown results report: session info,
// the comparison ledger and per-survey score summaries.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	flynn "github.com/montanaflynn/stats"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/domain/stats"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// FileStatus is one manually-maintained input file and whether it has
// fallen behind the newest raw export.
type FileStatus struct {
	Name     string
	ModTime  core.Timestamp
	Outdated bool
}

// SessionInfo describes one analysis run.
type SessionInfo struct {
	GeneratedAt core.Timestamp
	Files       []FileStatus
}

// ScoreSummary is the descriptive summary of one survey's score table.
type ScoreSummary struct {
	Name   string
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// SummarizeScores computes the descriptive summary of a score table,
// skipping undefined scores.
func SummarizeScores(name string, table stats.ScoreTable) (ScoreSummary, error) {
	var values []float64
	for _, value := range table.Values() {
		values = append(values, value)
	}
	if len(values) == 0 {
		return ScoreSummary{Name: name}, nil
	}
	mean, err := flynn.Mean(values)
	if err != nil {
		return ScoreSummary{}, errors.Wrapf(err, "failed to summarize %s scores", name)
	}
	median, err := flynn.Median(values)
	if err != nil {
		return ScoreSummary{}, errors.Wrapf(err, "failed to summarize %s scores", name)
	}
	minimum, err := flynn.Min(values)
	if err != nil {
		return ScoreSummary{}, errors.Wrapf(err, "failed to summarize %s scores", name)
	}
	maximum, err := flynn.Max(values)
	if err != nil {
		return ScoreSummary{}, errors.Wrapf(err, "failed to summarize %s scores", name)
	}
	return ScoreSummary{
		Name:   name,
		Count:  len(values),
		Mean:   mean,
		Median: median,
		Min:    minimum,
		Max:    maximum,
	}, nil
}

// Render produces the markdown report.
func Render(info SessionInfo, rows []stats.LedgerRow, summaries []ScoreSummary) string {
	var b strings.Builder
	b.WriteString("# Study Results\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", info.GeneratedAt.LogFormat())

	if len(info.Files) > 0 {
		b.WriteString("## Manually maintained inputs\n\n")
		b.WriteString("| File | Last modified | |\n| --- | --- | --- |\n")
		for _, file := range info.Files {
			flag := ""
			if file.Outdated {
				flag = "⚠️ older than the newest export"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", file.Name, file.ModTime.LogFormat(), flag)
		}
		b.WriteString("\n")
	}

	if len(summaries) > 0 {
		b.WriteString("## Score summaries\n\n")
		b.WriteString("| Survey | n | Mean | Median | Min | Max |\n| --- | --- | --- | --- | --- | --- |\n")
		for _, s := range summaries {
			if s.Count == 0 {
				fmt.Fprintf(&b, "| %s | 0 | | | | |\n", s.Name)
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.1f | %.0f | %.0f |\n",
				s.Name, s.Count, s.Mean, s.Median, s.Min, s.Max)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Comparisons\n\n")
	if len(rows) == 0 {
		b.WriteString("No comparison results yet.\n")
		return b.String()
	}
	b.WriteString("| Comparison | Item | Title | p | Test | Effect | Method | Notes |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, row := range rows {
		effect := ""
		if row.Result.HasEffect() {
			effect = fmt.Sprintf("%.3f", row.Result.EffectSize)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.4f | %s | %s | %s | %s |\n",
			row.Comparison, row.Item, row.Title,
			row.Result.PValue, row.Result.Statistic,
			effect, row.Result.EffectMethod, row.Result.Notes)
	}
	return b.String()
}

// ToHTML converts the markdown report to a standalone HTML fragment.
func ToHTML(source []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(source, p, renderer)
}

package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"qcgen/adapters/sink"
	"qcgen/adapters/westgard"
	"qcgen/domain/qc"
)

// Markdown renders a run as a markdown document
func Markdown(run *qc.Run) string {
	var b strings.Builder
	p := run.Params

	fmt.Fprintf(&b, "# QC Run %s\n\n", run.ID)
	fmt.Fprintf(&b, "Generated %s, parameters `%s`\n\n", run.GeneratedAt.Format("2006-01-02 15:04:05 MST"), run.Fingerprint.Short())

	b.WriteString("## Parameters\n\n")
	b.WriteString("| Parameter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Target | %s |\n", FormatStat(p.Target))
	fmt.Fprintf(&b, "| CV | %s%% |\n", FormatStat(p.CV*100))
	fmt.Fprintf(&b, "| SD | %s |\n", FormatStat(run.StdDev))
	fmt.Fprintf(&b, "| Bias | %s |\n", FormatStat(p.Bias))
	fmt.Fprintf(&b, "| Drift rate | %s |\n", FormatStat(p.DriftRate))
	fmt.Fprintf(&b, "| Distribution | %s |\n", p.Distribution)
	fmt.Fprintf(&b, "| Points | %d |\n", p.NumPoints)
	if p.Seed != nil {
		fmt.Fprintf(&b, "| Seed | %d |\n", *p.Seed)
	}

	s := run.Report.Stats
	b.WriteString("\n## Statistics\n\n")
	fmt.Fprintf(&b, "Mean: %s | SD: %s | CV: %s%%\n\n", FormatStat(s.Mean), FormatStat(s.SD), FormatStat(s.CVPercent))

	b.WriteString("## Westgard Rules\n\n")
	b.WriteString("| Rule | Description | Status |\n|---|---|---|\n")
	for _, rule := range westgard.Rules() {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", rule.ID, rule.Description, status(run.Report, rule.ID))
	}
	if run.Report.AnyViolated {
		b.WriteString("\n**Warning: Rules Violated!**\n\n")
	} else {
		b.WriteString("\n**All Rules Passed.**\n\n")
	}

	b.WriteString("## Data Points\n\n")
	b.WriteString("| Day | Value |\n|---|---|\n")
	for i, line := range sink.FormatLines(run.Values) {
		fmt.Fprintf(&b, "| %d | %s |\n", i+1, line)
	}
	return b.String()
}

// HTML renders the markdown report as a standalone page
func HTML(run *qc.Run) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("QC Run %s", run.ID),
	})
	return markdown.ToHTML([]byte(Markdown(run)), p, renderer)
}

func status(r qc.Report, id qc.RuleID) string {
	switch {
	case !r.Enabled.Enabled(id):
		return "Disabled"
	case r.Violated(id):
		return "VIOLATED"
	default:
		return "Pass"
	}
}

// FormatStat prints a value to two decimals, or n/a when it is undefined
func FormatStat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return sink.FormatValue(v)
}

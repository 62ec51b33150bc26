// Package report renders tuning, evaluation and comparison results as a
// Markdown document, optionally converted to a standalone HTML page.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/YuminosukeSato/tuneflow/metrics"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
)

// Builder accumulates report sections in call order.
type Builder struct {
	title string
	sb    strings.Builder
}

// New starts a report with a top-level title.
func New(title string) *Builder {
	b := &Builder{title: title}
	fmt.Fprintf(&b.sb, "# %s\n\n", title)
	return b
}

// Section starts a second-level heading.
func (b *Builder) Section(title string) *Builder {
	fmt.Fprintf(&b.sb, "## %s\n\n", title)
	return b
}

// Paragraph appends free text.
func (b *Builder) Paragraph(text string) *Builder {
	b.sb.WriteString(text + "\n\n")
	return b
}

// Image embeds a saved plot; path should be relative to the report.
func (b *Builder) Image(alt, path string) *Builder {
	fmt.Fprintf(&b.sb, "![%s](%s)\n\n", alt, filepath.ToSlash(path))
	return b
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.4f", v)
}

func pvalue(p float64) string {
	if !math.IsNaN(p) && p < 1e-4 {
		return "< 1e-04"
	}
	return num(p)
}

func (b *Builder) table(header []string, rows [][]string) {
	b.sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, r := range rows {
		b.sb.WriteString("| " + strings.Join(r, " | ") + " |\n")
	}
	b.sb.WriteString("\n")
}

// Tuning writes the grid table (mean and sd of every metric per
// configuration) and marks the selected row.
func (b *Builder) Tuning(res *ms.TuningResult) *Builder {
	fmt.Fprintf(&b.sb, "### %s tuning\n\n", res.Model)
	fmt.Fprintf(&b.sb, "%d configurations over %d resamples; optimised %s (%s).\n\n",
		len(res.Rows), len(res.Resamples), res.Metric, map[bool]string{true: "larger is better", false: "smaller is better"}[res.Maximize])

	var metricNames []string
	for _, d := range res.Distributions {
		if d != nil {
			metricNames = d.Metrics
			break
		}
	}
	header := []string{"", "Configuration"}
	for _, m := range metricNames {
		header = append(header, m, m+" SD")
	}
	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		mark := ""
		if i == res.Best {
			mark = "*"
		}
		r := []string{mark, row.Config.String()}
		for _, m := range metricNames {
			if row.Failed {
				r = append(r, "failed", "")
				continue
			}
			r = append(r, num(row.Means[m]), num(row.SDs[m]))
		}
		rows[i] = r
	}
	b.table(header, rows)
	fmt.Fprintf(&b.sb, "Selected: **%s**\n\n", res.BestConfig())
	return b
}

// Confusion writes the confusion matrix of name and its statistics.
func (b *Builder) Confusion(name string, cm *metrics.ConfusionMatrix) *Builder {
	fmt.Fprintf(&b.sb, "### %s confusion matrix\n\n", name)
	b.table(
		[]string{"Prediction \\ Reference", cm.Levels[0], cm.Levels[1]},
		[][]string{
			{cm.Levels[0], fmt.Sprint(cm.TP()), fmt.Sprint(cm.FP())},
			{cm.Levels[1], fmt.Sprint(cm.FN()), fmt.Sprint(cm.TN())},
		},
	)
	var rows [][]string
	for _, f := range cm.Stats().Fields() {
		v := num(f.Value)
		if strings.Contains(f.Name, "P-Value") {
			v = pvalue(f.Value)
		}
		rows = append(rows, []string{f.Name, v})
	}
	b.table([]string{"Statistic", "Value"}, rows)
	fmt.Fprintf(&b.sb, "'Positive' class: %s\n\n", cm.Levels[0])
	return b
}

// ROC writes the AUC and its interval for each curve.
func (b *Builder) ROC(names []string, curves []*metrics.ROC) *Builder {
	rows := make([][]string, len(curves))
	for i, c := range curves {
		ci := "NA"
		if c.CIMethod != metrics.CINone {
			ci = fmt.Sprintf("%s - %s (%s, %.0f%%)", num(c.CILower), num(c.CIUpper), c.CIMethod, 100*c.Confidence)
		}
		best := c.BestThreshold()
		rows[i] = []string{names[i], num(c.AUC), ci, num(best.Value), num(best.Sensitivity), num(best.Specificity)}
	}
	b.table([]string{"Model", "AUC", "CI", "Best threshold", "Sens", "Spec"}, rows)
	return b
}

// Resamples writes the six-number summary of every metric per model.
func (b *Builder) Resamples(dists []*ms.ResampleDistribution) *Builder {
	if len(dists) == 0 {
		return b
	}
	for _, m := range dists[0].Metrics {
		fmt.Fprintf(&b.sb, "**%s**\n\n", m)
		rows := make([][]string, len(dists))
		for i, d := range dists {
			s := d.Summary(m)
			rows[i] = []string{d.Model, num(s.Min), num(s.Q1), num(s.Median), num(s.Mean), num(s.Q3), num(s.Max), fmt.Sprint(s.NAs)}
		}
		b.table([]string{"Model", "Min.", "1st Qu.", "Median", "Mean", "3rd Qu.", "Max.", "NA's"}, rows)
	}
	return b
}

// Comparisons writes the paired differences of every comparison.
func (b *Builder) Comparisons(cmps []*ms.Comparison) *Builder {
	var rows [][]string
	for _, c := range cmps {
		for _, d := range c.Differences {
			rows = append(rows, []string{
				c.A + " - " + c.B, d.Metric, num(d.MeanDiff),
				num(d.CILower) + " - " + num(d.CIUpper),
				num(d.T), pvalue(d.PValue), pvalue(d.AdjustedPValue),
			})
		}
	}
	b.table([]string{"Pair", "Metric", "Mean diff", "CI", "t", "p", "Adjusted p"}, rows)
	return b
}

// Markdown returns the document.
func (b *Builder) Markdown() string { return b.sb.String() }

// HTML renders the document as a complete HTML page.
func (b *Builder) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{
		Title: b.title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(b.Markdown()), p, r)
}

// WriteFiles writes base.md and base.html into dir and returns their paths.
func (b *Builder) WriteFiles(dir, base string) (mdPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "create report directory")
	}
	mdPath = filepath.Join(dir, base+".md")
	htmlPath = filepath.Join(dir, base+".html")
	if err := os.WriteFile(mdPath, []byte(b.Markdown()), 0o644); err != nil {
		return "", "", errors.Wrapf(err, "write %s", mdPath)
	}
	if err := os.WriteFile(htmlPath, b.HTML(), 0o644); err != nil {
		return "", "", errors.Wrapf(err, "write %s", htmlPath)
	}
	return mdPath, htmlPath, nil
}

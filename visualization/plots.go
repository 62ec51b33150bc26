package visualization

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/tuneflow/metrics"
	"github.com/YuminosukeSato/tuneflow/pkg/errors"
	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
)

var dashed = []vg.Length{vg.Points(4), vg.Points(4)}

// NamedROC labels one curve of PlotROC.
type NamedROC struct {
	Name string
	ROC  *metrics.ROC
}

// PlotROC draws sensitivity against 1 - specificity for every curve, with
// the AUC in the legend and the chance diagonal dashed.
func PlotROC(path string, curves []NamedROC, opts SaveOptions) error {
	if len(curves) == 0 {
		return errors.NewValueError("PlotROC", "no curves")
	}
	p := plot.New()
	p.Title.Text = "ROC"
	p.X.Label.Text = "1 - Specificity"
	p.Y.Label.Text = "Sensitivity"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Left = false
	p.Legend.Top = false

	chance := plotter.NewFunction(func(x float64) float64 { return x })
	chance.Dashes = dashed
	chance.Color = plotutil.DarkColors[len(plotutil.DarkColors)-1]
	p.Add(chance)

	for i, c := range curves {
		if c.ROC == nil {
			return errors.NewValueError("PlotROC", "nil curve "+c.Name)
		}
		xys := make(plotter.XYs, len(c.ROC.FPR))
		for j := range xys {
			xys[j] = plotter.XY{X: c.ROC.FPR[j], Y: c.ROC.TPR[j]}
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "ROC line %s", c.Name)
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s (AUC %.3f)", c.Name, c.ROC.AUC), l)
	}
	return save(p, path, opts)
}

// PlotResamples draws one box per model of metric over its resamples.
func PlotResamples(path string, dists []*ms.ResampleDistribution, metric string, opts SaveOptions) error {
	if len(dists) == 0 {
		return errors.NewValueError("PlotResamples", "no distributions")
	}
	p := plot.New()
	p.Title.Text = metric + " over resamples"
	p.Y.Label.Text = metric

	names := make([]string, len(dists))
	for i, d := range dists {
		var vals plotter.Values
		for _, v := range d.Values(metric) {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return errors.NewValueError("PlotResamples", fmt.Sprintf("%s has no defined %s values", d.Model, metric))
		}
		box, err := plotter.NewBoxPlot(vg.Points(24), float64(i), vals)
		if err != nil {
			return errors.Wrapf(err, "box plot %s", d.Model)
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
		names[i] = d.Model
	}
	p.NominalX(names...)
	return save(p, path, opts)
}

// PlotDifferences draws the mean difference of metric with its confidence
// interval for each comparison, against a dashed zero line.
func PlotDifferences(path string, cmps []*ms.Comparison, metric string, opts SaveOptions) error {
	p := plot.New()
	p.Title.Text = "Differences in " + metric
	p.Y.Label.Text = metric + " (A - B)"

	var names []string
	var points plotter.XYs
	for _, c := range cmps {
		d, ok := c.Difference(metric)
		if !ok {
			continue
		}
		x := float64(len(names))
		names = append(names, c.A+" - "+c.B)
		points = append(points, plotter.XY{X: x, Y: d.MeanDiff})
		ci, err := plotter.NewLine(plotter.XYs{{X: x, Y: d.CILower}, {X: x, Y: d.CIUpper}})
		if err != nil {
			return errors.Wrap(err, "interval")
		}
		ci.LineStyle.Width = vg.Points(2)
		p.Add(ci)
	}
	if len(names) == 0 {
		return errors.NewValueError("PlotDifferences", "no comparison records "+metric)
	}
	s, err := plotter.NewScatter(points)
	if err != nil {
		return errors.Wrap(err, "means")
	}
	s.GlyphStyle.Radius = vg.Points(3)
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Dashes = dashed
	zero.XMin, zero.XMax = -0.5, float64(len(names))-0.5
	p.Add(zero, s)
	p.NominalX(names...)
	return save(p, path, opts)
}

// PlotTuningProfile draws the resampled metric against one tuned
// parameter, one line per combination of the remaining parameters.
func PlotTuningProfile(path string, res *ms.TuningResult, xParam string, opts SaveOptions) error {
	type line struct {
		label string
		xys   plotter.XYs
	}
	var lines []*line
	byLabel := map[string]*line{}
	for _, row := range res.Rows {
		if row.Failed {
			continue
		}
		x, ok := row.Config.Lookup(xParam)
		if !ok {
			return errors.NewValidationError("x", "parameter is not tuned", xParam)
		}
		var rest []string
		for _, prm := range row.Config {
			if prm.Name != xParam {
				rest = append(rest, fmt.Sprintf("%s=%g", prm.Name, prm.Value))
			}
		}
		label := fmt.Sprint(rest)
		if len(rest) == 0 {
			label = res.Model
		}
		l, ok := byLabel[label]
		if !ok {
			l = &line{label: label}
			byLabel[label] = l
			lines = append(lines, l)
		}
		y := row.Means[res.Metric]
		if !math.IsNaN(y) {
			l.xys = append(l.xys, plotter.XY{X: x, Y: y})
		}
	}
	if len(lines) == 0 {
		return errors.NewValueError("PlotTuningProfile", "no evaluated configuration")
	}

	p := plot.New()
	p.Title.Text = res.Model
	p.X.Label.Text = xParam
	p.Y.Label.Text = res.Metric + " (resampled)"
	for i, l := range lines {
		if len(l.xys) == 0 {
			continue
		}
		sort.SliceStable(l.xys, func(a, b int) bool { return l.xys[a].X < l.xys[b].X })
		ln, pts, err := plotter.NewLinePoints(l.xys)
		if err != nil {
			return errors.Wrapf(err, "profile %s", l.label)
		}
		ln.LineStyle.Color = plotutil.Color(i)
		pts.GlyphStyle.Color = plotutil.Color(i)
		pts.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(ln, pts)
		p.Legend.Add(l.label, ln, pts)
	}
	return save(p, path, opts)
}

// Metrics lists the metrics every distribution records, in the first
// distribution's order.
func Metrics(dists []*ms.ResampleDistribution) []string {
	if len(dists) == 0 {
		return nil
	}
	var out []string
	for _, m := range dists[0].Metrics {
		shared := true
		for _, d := range dists[1:] {
			shared = shared && slices.Contains(d.Metrics, m)
		}
		if shared {
			out = append(out, m)
		}
	}
	return out
}

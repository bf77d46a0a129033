package stage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/netsecml/pkg/errors"
)

// runStats summarises one run for the metrics textfile.
type runStats struct {
	TrainRows     int
	TestRows      int
	Features      int
	TrainImputed  int
	TestImputed   int
	EmptyFeatures int
	Duration      time.Duration
}

// writeMissingChart draws the number of missing training cells per feature.
func writeMissingChart(path string, features []string, missing []int) error {
	if len(features) != len(missing) {
		return errors.NewDimensionError("stage.writeMissingChart", len(features), len(missing), 1)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}

	p := plot.New()
	p.Title.Text = "Missing values per feature (train)"
	p.Y.Label.Text = "missing cells"

	values := make(plotter.Values, len(missing))
	for i, n := range missing {
		values[i] = float64(n)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return errors.Wrap(err, "bar chart")
	}
	p.Add(bars)
	p.NominalX(features...)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -1

	width := vg.Length(len(features))*vg.Points(16) + 2*vg.Inch
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// writeMetrics writes the run statistics in the Prometheus text format so
// that a node_exporter textfile collector can pick them up.
func writeMetrics(path, pipelineName string, s runStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}

	constLabels := prometheus.Labels{"pipeline": pipelineName, "stage": StageName}
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "netsec_transform_rows",
		Help:        "Rows written to the transformed array.",
		ConstLabels: constLabels,
	}, []string{"split"})
	imputed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "netsec_transform_imputed_cells",
		Help:        "Missing feature cells filled by the imputer.",
		ConstLabels: constLabels,
	}, []string{"split"})
	features := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "netsec_transform_features",
		Help:        "Feature columns, excluding the target.",
		ConstLabels: constLabels,
	})
	empty := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "netsec_transform_empty_features",
		Help:        "Feature columns with no observed value in the training split.",
		ConstLabels: constLabels,
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "netsec_transform_duration_seconds",
		Help:        "Wall time of the data transformation run.",
		ConstLabels: constLabels,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(rows, imputed, features, empty, duration)

	rows.WithLabelValues("train").Set(float64(s.TrainRows))
	rows.WithLabelValues("test").Set(float64(s.TestRows))
	imputed.WithLabelValues("train").Set(float64(s.TrainImputed))
	imputed.WithLabelValues("test").Set(float64(s.TestImputed))
	features.Set(float64(s.Features))
	empty.Set(float64(s.EmptyFeatures))
	duration.Set(s.Duration.Seconds())

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

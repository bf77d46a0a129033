package main

import (
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/netsecml/dataset"
	"github.com/YuminosukeSato/netsecml/inference"
	"github.com/YuminosukeSato/netsecml/metrics"
	"github.com/YuminosukeSato/netsecml/pkg/log"
	"github.com/YuminosukeSato/netsecml/preprocessing"
)

// PredictionColumn is the header of the output CSV.
const PredictionColumn = "prediction"

type predictOptions struct {
	preprocessor string
	model        string
	input        string
	output       string
}

// predictSubcommand returns the predict subcommand.
func predictSubcommand(global *globalOptions) *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Scores a feature CSV with a persisted preprocessor and model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.OutOrStdout(), global, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.preprocessor, "preprocessor", "final_model/preprocessor.gob", "fitted preprocessing object")
	flags.StringVar(&opts.model, "model", "final_model/model.gob", "fitted classifier")
	flags.StringVar(&opts.input, "input", "", "feature CSV to score")
	flags.StringVar(&opts.output, "output", "predictions.csv", "where to write the predictions")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// runPredict writes one prediction per input row. When the input still
// carries the target column it is dropped before scoring and, if its labels
// map cleanly, the classification metrics are printed as JSON.
func runPredict(stdout io.Writer, global *globalOptions, opts *predictOptions) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}
	logger := log.GetLoggerWithName("netsec")

	m, err := inference.LoadNetworkModel(opts.preprocessor, opts.model)
	if err != nil {
		return err
	}

	frame, err := dataset.ReadCSV(opts.input)
	if err != nil {
		return err
	}
	X := frame.Matrix()
	var labels []float64
	if frame.Has(cfg.TargetColumn) {
		if X, _, labels, err = frame.SplitTarget(cfg.TargetColumn); err != nil {
			return err
		}
	}

	yHat, err := m.Predict(X)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(opts.output, []string{PredictionColumn}, yHat); err != nil {
		return err
	}
	logger.Info("predictions written",
		log.PathKey, opts.output,
		log.SamplesKey, frame.Nrow(),
	)

	if labels == nil {
		return nil
	}
	mapped, err := preprocessing.NewBinaryLabelMapper().Map(labels)
	if err != nil {
		logger.Warn("target column present but not scorable", log.ErrAttrKey, err)
		return nil
	}
	pred := mat.Col(nil, 0, yHat)
	score, err := metrics.ClassificationScore(mat.NewVecDense(len(mapped), mapped), mat.NewVecDense(len(pred), pred))
	if err != nil {
		return err
	}
	return printJSON(stdout, score)
}

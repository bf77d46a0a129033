package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/netsecml/stage"
)

type transformOptions struct {
	train string
	test  string
}

// transformSubcommand returns the transform subcommand.
func transformSubcommand(global *globalOptions) *cobra.Command {
	opts := &transformOptions{}
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Imputes the validated train/test splits and writes the transformed arrays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, global, opts, time.Now())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.train, "train", "", "validated train CSV")
	flags.StringVar(&opts.test, "test", "", "validated test CSV")
	_ = cmd.MarkFlagRequired("train")
	_ = cmd.MarkFlagRequired("test")
	return cmd
}

func runTransform(cmd *cobra.Command, global *globalOptions, opts *transformOptions, now time.Time) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}

	tp := stage.NewTrainingPipelineConfig(cfg, now)
	dtc, err := stage.NewDataTransformationConfig(tp, cfg)
	if err != nil {
		return err
	}
	dt, err := stage.NewDataTransformation(stage.DataValidationArtifact{
		ValidTrainFilePath: opts.train,
		ValidTestFilePath:  opts.test,
	}, dtc)
	if err != nil {
		return err
	}

	artifact, err := dt.WithPipelineName(cfg.PipelineName).Run(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), artifact)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

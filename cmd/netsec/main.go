// Command netsec runs the data transformation stage of the network security
// pipeline and scores feature files with a persisted NetworkModel.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/netsecml/config"
	"github.com/YuminosukeSato/netsecml/pkg/log"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// load reads the configuration and installs the logger. Flags win over the
// file and the environment.
func (o *globalOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := log.Configure(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "netsec",
		Short:         "Network security preprocessing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "YAML configuration file (missing file means defaults)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	flags.StringVar(&opts.logFormat, "log-format", "", "json, console or cloud (overrides log.format)")

	root.AddCommand(transformSubcommand(opts))
	root.AddCommand(predictSubcommand(opts))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.GetLoggerWithName("netsec").Error("command failed", log.ErrAttrKey, err)
		fmt.Fprintf(os.Stderr, "netsec: %v\n", err)
		os.Exit(1)
	}
}

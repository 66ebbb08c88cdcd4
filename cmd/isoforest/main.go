package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/metrics"
	"github.com/pbanos/isoforest/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootCmdConfig struct {
	verbose     bool
	threads     int
	metricsFile string
	redisAddr   string
	redisPrefix string
	// models, when set, is used instead of files or redis to keep forests
	models      store.ModelStore
	out         io.Writer
	log         *zap.Logger
	registry    *prometheus.Registry
	collector   *metrics.Collector
	ctx         context.Context
	cancelFunc  context.CancelFunc
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	return newRootCmd(&rootCmdConfig{})
}

func newRootCmd(config *rootCmdConfig) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "isoforest",
		Short: "isoforest is a tool to detect anomalies with isolation forests",
		Long:  `A tool to grow isolation forests from your data and use them to score anomalies, estimate distances between samples and impute missing values`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.setup(cmd.OutOrStdout())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return config.teardown()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log progress to STDERR")
	rootCmd.PersistentFlags().IntVar(&(config.threads), "threads", 0, "number of goroutines working at once (defaults to the threads in the forest configuration, or GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&(config.metricsFile), "metrics-file", "", "path to a file to which metrics are written in the Prometheus text format after running")
	rootCmd.PersistentFlags().StringVar(&(config.redisAddr), "redis", "", "address of a redis server where forests are kept; models are then referenced by id instead of by path")
	rootCmd.PersistentFlags().StringVar(&(config.redisPrefix), "redis-prefix", "isoforest", "prefix for the keys of the forests kept in redis")
	rootCmd.AddCommand(
		versionCmd(),
		growCmd(config),
		scoreCmd(config),
		distanceCmd(config),
		imputeCmd(config),
		mergeCmd(config),
		sqlCmd(config),
		treeCmd(config),
		modelsCmd(config),
	)
	return rootCmd
}

func (rcc *rootCmdConfig) setup(out io.Writer) error {
	rcc.out = out
	if rcc.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		rcc.log = l
	} else {
		rcc.log = zap.NewNop()
	}
	rcc.registry = prometheus.NewRegistry()
	c, err := metrics.New(rcc.registry)
	if err != nil {
		return err
	}
	rcc.collector = c
	return nil
}

func (rcc *rootCmdConfig) teardown() error {
	defer rcc.log.Sync()
	if rcc.metricsFile == "" {
		return nil
	}
	rcc.Logf("Writing metrics to %s...", rcc.metricsFile)
	return metrics.WriteTextfile(rcc.registry, rcc.metricsFile)
}

// options returns the options every forest operation runs with
func (rcc *rootCmdConfig) options() []isoforest.Option {
	opts := []isoforest.Option{isoforest.WithLogger(rcc.log), isoforest.WithMetrics(rcc.collector)}
	if rcc.threads > 0 {
		opts = append(opts, isoforest.WithThreads(rcc.threads))
	}
	return opts
}

func (rcc *rootCmdConfig) setContextAndCancelFunc() {
	if rcc.ctx == nil {
		rcc.ctx, rcc.cancelFunc = context.WithCancel(context.Background())
	}
}

func (rcc *rootCmdConfig) Context() context.Context {
	rcc.setContextAndCancelFunc()
	return rcc.ctx
}

// fail prints the error and exits with the given code
func fail(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

type distanceCmdConfig struct {
	*rootCmdConfig
	modelInput     string
	dataInput      string
	referenceInput string
	output         string
}

func distanceCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &distanceCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Estimate distances between samples",
		Long:  `Estimate the distance between every pair of samples in a set of data, or between them and the samples of a reference set, writing the matrix in CSV format.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(1, err)
			}
			ctx := config.Context()
			f, err := config.loadForest(ctx, config.modelInput)
			if err != nil {
				fail(2, err)
			}
			d, err := config.readDataset(ctx, config.dataInput, f.Schema)
			if err != nil {
				fail(3, fmt.Errorf("reading samples: %w", err))
			}
			var m mat.Matrix
			if config.referenceInput != "" {
				ref, err := config.readDataset(ctx, config.referenceInput, f.Schema)
				if err != nil {
					fail(3, fmt.Errorf("reading reference samples: %w", err))
				}
				config.Logf("Estimating distances from %d samples to %d references...", d.Len(), ref.Len())
				m, err = f.DistancesTo(d, ref, config.options()...)
				if err != nil {
					fail(4, fmt.Errorf("estimating distances: %w", err))
				}
			} else {
				config.Logf("Estimating distances between %d samples...", d.Len())
				m, err = f.Distances(d, config.options()...)
				if err != nil {
					fail(4, fmt.Errorf("estimating distances: %w", err))
				}
			}
			if err = writeMatrix(config.output, m); err != nil {
				fail(5, err)
			}
			config.Logf("Done")
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "f", "", "path to a file with the forest, or its id when using redis (required)")
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", inputHelp)
	cmd.PersistentFlags().StringVarP(&(config.referenceInput), "reference", "r", "", "location of reference samples, in any of the formats accepted by input, to estimate distances to")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the distance matrix will be written in CSV format (defaults to STDOUT)")
	return cmd
}

func (dcc *distanceCmdConfig) Validate() error {
	if dcc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	return nil
}

// writeMatrix writes one CSV row per matrix row, with a header numbering the
// columns
func writeMatrix(location string, m mat.Matrix) (err error) {
	out := os.Stdout
	if location != "" {
		var f *os.File
		if f, err = os.Create(location); err != nil {
			return fmt.Errorf("creating %s: %w", location, err)
		}
		defer closeWritten(f, location, &err)
		out = f
	}
	w := csv.NewWriter(out)
	rows, cols := m.Dims()
	record := make([]string, cols)
	for j := range record {
		record[j] = strconv.Itoa(j)
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i := 0; i < rows; i++ {
		for j := range record {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

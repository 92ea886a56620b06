package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/netconflate/internal/conflate"
	"github.com/sells-group/netconflate/internal/layer"
	"github.com/sells-group/netconflate/internal/network"
	"github.com/sells-group/netconflate/internal/stats"
)

var conflateCmd = &cobra.Command{
	Use:   "conflate",
	Short: "Extract the candidate features matching a reference network",
	Long:  "Buffers every reference segment, keeps candidate fragments running in the same direction, writes the matched part of the candidate network as a new layer and reports length statistics.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("conflate"); err != nil {
			return err
		}

		opts, err := conflateOptions(cmd)
		if err != nil {
			return err
		}
		if err := opts.Validate(); err != nil {
			return err
		}
		format, err := stats.ParseFormat(flagOrConfig(cmd, "stats-format", cfg.Conflate.StatsFormat))
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		refName, _ := cmd.Flags().GetString("ref")
		candName, _ := cmd.Flags().GetString("candidate")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		if err := checkOutput(ctx, st, opts.Output, overwrite); err != nil {
			return err
		}
		ref, err := loadLayer(ctx, st, refName)
		if err != nil {
			return err
		}
		cand, err := loadLayer(ctx, st, candName)
		if err != nil {
			return err
		}

		res, err := conflate.New(newEngine(), layer.NewMemory(), opts).Run(ctx, ref, cand)
		if err != nil {
			return err
		}
		if err := st.Put(ctx, res.Output); err != nil {
			return eris.Wrapf(err, "conflate: store output %s", res.Output.Name)
		}

		zap.L().Info("output layer written",
			zap.String("command", "conflate"),
			zap.String("layer", res.Output.Name),
			zap.Int("features", res.Output.Len()),
		)

		outFile, _ := cmd.Flags().GetString("out-file")
		return stats.Emit(cmd.OutOrStdout(), outFile, format, res.Record)
	},
}

// conflateOptions merges the flags with the configured defaults.
func conflateOptions(cmd *cobra.Command) (conflate.Options, error) {
	opts := conflate.Options{
		Buffer:         cfg.Conflate.Buffer,
		AngleThreshold: cfg.Conflate.AngleThreshold,
		FinishBuffer:   cfg.Conflate.FinishBuffer,
	}
	flags := cmd.Flags()
	if flags.Changed("buffer") {
		opts.Buffer, _ = flags.GetFloat64("buffer")
	}
	if flags.Changed("angle-thres") {
		opts.AngleThreshold, _ = flags.GetFloat64("angle-thres")
	}
	if flags.Changed("douglas-thres") {
		d, _ := flags.GetFloat64("douglas-thres")
		opts.Douglas = &d
	}
	opts.Output, _ = flags.GetString("output")
	if opts.Buffer <= 0 {
		return opts, eris.New("conflate: --buffer is required")
	}
	return opts, nil
}

// flagOrConfig returns the string flag when set on the command line.
func flagOrConfig(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	if fallback == "" {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// loadLayer reads an input layer, naming it in the not-found error.
func loadLayer(ctx context.Context, st layer.Store, name string) (*network.Network, error) {
	n, err := st.Get(ctx, name)
	if err != nil {
		return nil, eris.Wrapf(err, "input layer %s", name)
	}
	return n, nil
}

// checkOutput refuses to replace an existing layer unless overwrite is set.
func checkOutput(ctx context.Context, st layer.Store, name string, overwrite bool) error {
	if overwrite {
		return nil
	}
	exists, err := st.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return eris.Errorf("output layer %s already exists (use --overwrite)", name)
	}
	return nil
}

func init() {
	f := conflateCmd.Flags()
	f.String("ref", "", "reference layer name")
	f.String("candidate", "", "candidate layer name")
	f.Float64("buffer", 0, "buffer around each reference segment, in map units")
	f.Float64("angle-thres", 0, "largest accepted angle between segments, in degrees")
	f.Float64("douglas-thres", 0, "simplify the reference with Douglas-Peucker at this threshold")
	f.String("output", "", "output layer name")
	f.String("out-file", "", "also write the statistics to this file (- for none)")
	f.String("stats-format", "text", "statistics file format (text, yaml, json)")
	f.Bool("overwrite", false, "replace the output layer if it exists")
	_ = conflateCmd.MarkFlagRequired("ref")
	_ = conflateCmd.MarkFlagRequired("candidate")
	_ = conflateCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(conflateCmd)
}

package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/netconflate/internal/sweep"
)

var precompCmd = &cobra.Command{
	Use:   "precomp",
	Short: "Compare two networks across a range of buffer widths",
	Long:  "For each buffer width, measures the candidate length inside the reference buffer and the reference length inside the candidate buffer. Useful to choose the conflation buffer.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("precomp"); err != nil {
			return err
		}

		opts, err := sweepOptions(cmd)
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
		ref, err := loadLayer(ctx, st, refName)
		if err != nil {
			return err
		}
		cand, err := loadLayer(ctx, st, candName)
		if err != nil {
			return err
		}

		rep, err := sweep.New(newEngine(), opts).Run(ctx, ref, cand)
		if err != nil {
			return err
		}

		outFile, _ := cmd.Flags().GetString("out-file")
		if outFile == "" || outFile == "-" {
			if err := rep.WriteText(cmd.OutOrStdout()); err != nil {
				return err
			}
		} else if err := rep.SaveText(outFile); err != nil {
			return err
		}

		if dir, _ := cmd.Flags().GetString("out-graphs"); dir != "" {
			if err := rep.SavePlots(dir); err != nil {
				return err
			}
			zap.L().Info("charts written", zap.String("command", "precomp"), zap.String("dir", dir))
		}
		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := rep.SaveXLSX(path); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("command", "precomp"), zap.String("file", path))
		}
		return nil
	},
}

// sweepOptions merges the flags with the configured defaults.
func sweepOptions(cmd *cobra.Command) (sweep.Options, error) {
	flags := cmd.Flags()
	opts := sweep.Options{Buffers: cfg.Sweep.Buffers, Workers: cfg.Sweep.Workers}

	if flags.Changed("buffers") {
		s, _ := flags.GetString("buffers")
		b, err := sweep.ParseBuffers(s)
		if err != nil {
			return opts, err
		}
		opts.Buffers = b
	}
	if len(opts.Buffers) == 0 {
		return opts, eris.New("precomp: --buffers is required")
	}
	if flags.Changed("nprocs") {
		opts.Workers, _ = flags.GetInt("nprocs")
	}
	if opts.Workers < 1 {
		return opts, eris.Errorf("precomp: --nprocs must be >= 1, got %d", opts.Workers)
	}
	if s, _ := flags.GetString("roi"); s != "" {
		roi, err := sweep.ParseBounds(s)
		if err != nil {
			return opts, err
		}
		opts.ROI = roi
	}
	return opts, nil
}

func init() {
	f := precompCmd.Flags()
	f.String("ref", "", "reference layer name")
	f.String("candidate", "", "candidate layer name")
	f.String("buffers", "", "comma-separated buffer widths (default from config)")
	f.Int("nprocs", 1, "buffer widths processed in parallel")
	f.String("roi", "", "region of interest as minx,miny,maxx,maxy")
	f.String("out-file", "", "write the report to this file instead of stdout")
	f.String("out-graphs", "", "directory for the PNG charts")
	f.String("xlsx", "", "also write the report as a workbook")
	_ = precompCmd.MarkFlagRequired("ref")
	_ = precompCmd.MarkFlagRequired("candidate")
	rootCmd.AddCommand(precompCmd)
}

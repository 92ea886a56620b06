// Package sweep compares two line networks at a series of buffer widths.
// For each width it reports how much of the candidate lies inside the
// reference buffer and how much of the reference lies inside the candidate
// buffer, in map units and as a share of each network's length.
package sweep

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/netconflate/internal/conflate"
	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/network"
)

// Options configures a sweep.
type Options struct {
	Buffers []float64
	// Workers bounds the widths processed at once. Values below 1 mean 1.
	Workers int
	// ROI clips both networks before anything is measured.
	ROI *geom.Bounds
}

// Row holds the measurements for one buffer width.
type Row struct {
	Buffer     float64 `json:"buffer" yaml:"buffer"`
	CandIn     float64 `json:"cand_in" yaml:"cand_in"`
	CandInPct  float64 `json:"cand_in_pct" yaml:"cand_in_pct"`
	CandOut    float64 `json:"cand_out" yaml:"cand_out"`
	CandOutPct float64 `json:"cand_out_pct" yaml:"cand_out_pct"`
	RefIn      float64 `json:"ref_in" yaml:"ref_in"`
	RefInPct   float64 `json:"ref_in_pct" yaml:"ref_in_pct"`
	RefOut     float64 `json:"ref_out" yaml:"ref_out"`
	RefOutPct  float64 `json:"ref_out_pct" yaml:"ref_out_pct"`
}

// Report is the result of a sweep. Rows follow the order of Options.Buffers.
type Report struct {
	Reference float64 `json:"reference" yaml:"reference"`
	Candidate float64 `json:"candidate" yaml:"candidate"`
	Diff      float64 `json:"diff" yaml:"diff"`
	DiffPct   float64 `json:"diff_pct" yaml:"diff_pct"`
	Rows      []Row   `json:"rows" yaml:"rows"`
}

// Sweeper runs sweeps with one engine.
type Sweeper struct {
	engine geometry.Engine
	opts   Options
}

// New creates a Sweeper.
func New(engine geometry.Engine, opts Options) *Sweeper {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Sweeper{engine: engine, opts: opts}
}

// Run measures ref and candidate at every configured buffer width.
func (s *Sweeper) Run(ctx context.Context, ref, candidate *network.Network) (*Report, error) {
	log := zap.L().With(zap.String("component", "sweep"))

	if len(s.opts.Buffers) == 0 {
		return nil, eris.New("sweep: no buffer widths given")
	}
	for _, b := range s.opts.Buffers {
		if b <= 0 {
			return nil, eris.Errorf("sweep: buffer width must be positive, got %v", b)
		}
	}

	if s.opts.ROI != nil {
		roi, err := s.engine.Rectangle(ctx, s.opts.ROI)
		if err != nil {
			return nil, eris.Wrap(err, "sweep: region of interest")
		}
		if ref, err = s.engine.Overlay(ctx, ref, roi, geometry.OpAnd); err != nil {
			return nil, eris.Wrap(err, "sweep: clip reference")
		}
		if candidate, err = s.engine.Overlay(ctx, candidate, roi, geometry.OpAnd); err != nil {
			return nil, eris.Wrap(err, "sweep: clip candidate")
		}
	}

	refLen, err := conflate.Length(ctx, s.engine, ref)
	if err != nil {
		return nil, err
	}
	if refLen == 0 {
		return nil, conflate.ErrNoReferenceData
	}
	candLen, err := conflate.Length(ctx, s.engine, candidate)
	if err != nil {
		return nil, err
	}
	if candLen == 0 {
		return nil, conflate.ErrNoCandidateData
	}

	log.Info("sweep started",
		zap.Float64("reference_length", refLen),
		zap.Float64("candidate_length", candLen),
		zap.Int("widths", len(s.opts.Buffers)),
		zap.Int("workers", s.opts.Workers),
	)

	rows := make([]Row, len(s.opts.Buffers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, b := range s.opts.Buffers {
		g.Go(func() error {
			row, err := s.measure(gctx, ref, candidate, refLen, candLen, b)
			if err != nil {
				return err
			}
			rows[i] = row
			log.Debug("buffer width measured",
				zap.Float64("buffer", b),
				zap.Float64("cand_in", row.CandIn),
				zap.Float64("ref_in", row.RefIn),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diff := refLen - candLen
	return &Report{
		Reference: refLen,
		Candidate: candLen,
		Diff:      diff,
		DiffPct:   diff / refLen * 100,
		Rows:      rows,
	}, nil
}

// measure computes one row. The outside lengths are the totals minus the
// inside lengths.
func (s *Sweeper) measure(ctx context.Context, ref, cand *network.Network, refLen, candLen, b float64) (Row, error) {
	candIn, err := s.lengthInside(ctx, cand, ref, b)
	if err != nil {
		return Row{}, eris.Wrapf(err, "sweep: candidate in reference buffer %v", b)
	}
	refIn, err := s.lengthInside(ctx, ref, cand, b)
	if err != nil {
		return Row{}, eris.Wrapf(err, "sweep: reference in candidate buffer %v", b)
	}
	return Row{
		Buffer:     b,
		CandIn:     candIn,
		CandInPct:  candIn / candLen * 100,
		CandOut:    candLen - candIn,
		CandOutPct: (candLen - candIn) / candLen * 100,
		RefIn:      refIn,
		RefInPct:   refIn / refLen * 100,
		RefOut:     refLen - refIn,
		RefOutPct:  (refLen - refIn) / refLen * 100,
	}, nil
}

// lengthInside returns the length of n within distance b of around.
func (s *Sweeper) lengthInside(ctx context.Context, n, around *network.Network, b float64) (float64, error) {
	region, err := s.engine.Buffer(ctx, around, b, geometry.Symmetric)
	if err != nil {
		return 0, err
	}
	in, err := s.engine.Overlay(ctx, n, region, geometry.OpAnd)
	if err != nil {
		return 0, err
	}
	return conflate.Length(ctx, s.engine, in)
}

// ParseBuffers parses a comma-separated list of buffer widths.
func ParseBuffers(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "sweep: parse buffer width %q", part)
		}
		if v <= 0 {
			return nil, eris.Errorf("sweep: buffer width must be positive, got %v", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, eris.New("sweep: no buffer widths given")
	}
	return out, nil
}

// ParseBounds parses "minx,miny,maxx,maxy" into bounds.
func ParseBounds(s string) (*geom.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, eris.Errorf("sweep: region of interest needs 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "sweep: parse region of interest %q", s)
		}
		v[i] = f
	}
	if v[0] >= v[2] || v[1] >= v[3] {
		return nil, eris.Errorf("sweep: region of interest %q has no area", s)
	}
	return geom.NewBounds(geom.XY).Set(v[0], v[1], v[2], v[3]), nil
}

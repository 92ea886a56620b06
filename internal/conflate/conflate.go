// Package conflate extracts the part of a candidate road network that
// matches a reference network. Reference segments are buffered one at a
// time, candidate fragments inside each buffer are filtered by direction,
// and the accepted fragments are clipped back to the original candidate
// geometry.
package conflate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/netconflate/internal/geometry"
	"github.com/sells-group/netconflate/internal/layer"
	"github.com/sells-group/netconflate/internal/network"
	"github.com/sells-group/netconflate/internal/stats"
)

// DefaultFinishBuffer is the buffer applied to the final patch before it is
// overlaid on the original candidate network.
const DefaultFinishBuffer = 1e-4

// Options configures a conflation run.
type Options struct {
	// Buffer is the tolerance around each reference segment, in map units.
	Buffer float64
	// AngleThreshold is the largest accepted angle in degrees.
	AngleThreshold float64
	// Douglas simplifies the reference first when set.
	Douglas *float64
	// FinishBuffer defaults to DefaultFinishBuffer.
	FinishBuffer float64
	// Output names the result layer.
	Output string
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	switch {
	case o.Buffer <= 0:
		return eris.Errorf("conflate: buffer must be positive, got %v", o.Buffer)
	case o.AngleThreshold < 0:
		return eris.Errorf("conflate: angle threshold must not be negative, got %v", o.AngleThreshold)
	case o.Douglas != nil && *o.Douglas < 0:
		return eris.Errorf("conflate: douglas threshold must not be negative, got %v", *o.Douglas)
	case o.FinishBuffer < 0:
		return eris.Errorf("conflate: finish buffer must not be negative, got %v", o.FinishBuffer)
	case o.Output == "":
		return eris.New("conflate: output name is required")
	}
	return nil
}

// Result is the outcome of a successful run.
type Result struct {
	Output      *network.Network
	Record      stats.Record
	PatchLength float64
	Segments    int // reference segments examined
	Matched     int // reference segments with an accepted fragment
	Accepted    int // fragments accepted
	Rejected    int // fragments rejected by angle
	Elapsed     time.Duration
}

// Conflator runs the conflation. It holds no state between runs.
type Conflator struct {
	engine  geometry.Engine
	scratch layer.Store
	opts    Options
}

// New creates a Conflator. Per-segment layers are staged in scratch and
// removed before each step returns.
func New(engine geometry.Engine, scratch layer.Store, opts Options) *Conflator {
	if opts.FinishBuffer == 0 {
		opts.FinishBuffer = DefaultFinishBuffer
	}
	return &Conflator{engine: engine, scratch: scratch, opts: opts}
}

// pass is the fold state of one run.
type pass struct {
	patch    Patch
	segments int
	matched  int
	accepted int
	rejected int
}

// segmentInputs is what every fold step reads.
type segmentInputs struct {
	ref      *network.Network
	cand     *network.Network
	branches map[int]bool
}

// Run conflates candidate against ref.
func (c *Conflator) Run(ctx context.Context, ref, candidate *network.Network) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "conflate"))

	if err := c.opts.Validate(); err != nil {
		return nil, err
	}

	refLen, err := Length(ctx, c.engine, ref)
	if err != nil {
		return nil, err
	}
	if refLen == 0 {
		return nil, ErrNoReferenceData
	}
	candLen, err := Length(ctx, c.engine, candidate)
	if err != nil {
		return nil, err
	}
	if candLen == 0 {
		return nil, ErrNoCandidateData
	}

	work := ref
	if c.opts.Douglas != nil {
		if work, err = c.engine.Simplify(ctx, ref, *c.opts.Douglas); err != nil {
			return nil, eris.Wrap(err, "conflate: simplify reference")
		}
	}

	refSplit, err := c.engine.Split(ctx, work)
	if err != nil {
		return nil, eris.Wrap(err, "conflate: split reference")
	}
	candSplit, err := c.engine.Split(ctx, candidate)
	if err != nil {
		return nil, eris.Wrap(err, "conflate: split candidate")
	}
	branches, err := BranchPoints(ctx, c.engine, refSplit)
	if err != nil {
		return nil, err
	}

	log.Info("conflation started",
		zap.Int("reference_segments", refSplit.Len()),
		zap.Int("candidate_segments", candSplit.Len()),
		zap.Int("branch_segments", len(branches)),
		zap.Float64("buffer", c.opts.Buffer),
		zap.Float64("angle_threshold", c.opts.AngleThreshold),
	)

	in := segmentInputs{ref: refSplit, cand: candSplit, branches: branches}
	state, err := Fold(ctx, refSplit.Cats(), pass{}, func(ctx context.Context, st pass, cat int) (pass, error) {
		return c.matchSegment(ctx, in, st, cat)
	})
	if err != nil {
		return nil, err
	}
	if state.patch.Empty() {
		return nil, ErrNoMatches
	}

	patchLen, err := Length(ctx, c.engine, state.patch.Layer())
	if err != nil {
		return nil, err
	}
	region, err := c.engine.Buffer(ctx, state.patch.Layer(), c.opts.FinishBuffer, geometry.Symmetric)
	if err != nil {
		return nil, eris.Wrap(err, "conflate: buffer patch")
	}
	out, err := c.engine.Overlay(ctx, candidate, region, geometry.OpAnd)
	if err != nil {
		return nil, eris.Wrap(err, "conflate: clip candidate")
	}
	out.Name = c.opts.Output

	outLen, err := Length(ctx, c.engine, out)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Output:      out,
		Record:      stats.NewRecord(refLen, candLen, outLen),
		PatchLength: patchLen,
		Segments:    state.segments,
		Matched:     state.matched,
		Accepted:    state.accepted,
		Rejected:    state.rejected,
		Elapsed:     time.Since(start),
	}
	log.Info("conflation complete",
		zap.String("output", out.Name),
		zap.Int("features", out.Len()),
		zap.Int("matched_segments", res.Matched),
		zap.Int("accepted", res.Accepted),
		zap.Int("rejected", res.Rejected),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// matchSegment is one fold step: buffer reference segment cat, overlay the
// candidate, and add the fragments running in the same direction to the
// patch. Staged layers are released on every return path.
func (c *Conflator) matchSegment(ctx context.Context, in segmentInputs, st pass, cat int) (next pass, err error) {
	arena := layer.NewArena(c.scratch)
	defer func() {
		if relErr := arena.Release(ctx); relErr != nil && err == nil {
			next, err = st, relErr
		}
	}()

	st.segments++

	seg, err := c.engine.Extract(ctx, in.ref, cat)
	if err != nil {
		return st, eris.Wrapf(err, "conflate: extract segment %d", cat)
	}
	if seg.Len() != 1 {
		return st, eris.Errorf("conflate: segment %d: expected 1 feature, got %d", cat, seg.Len())
	}
	if seg, err = arena.Put(ctx, "segment", seg); err != nil {
		return st, err
	}

	side := geometry.LeftSide
	if in.branches[cat] {
		side = geometry.Symmetric
	}
	region, err := c.engine.Buffer(ctx, seg, c.opts.Buffer, side)
	if err != nil {
		return st, eris.Wrapf(err, "conflate: buffer segment %d", cat)
	}

	matches, err := c.engine.Overlay(ctx, in.cand, region, geometry.OpAnd)
	if err != nil {
		return st, eris.Wrapf(err, "conflate: overlay segment %d", cat)
	}
	if matches.Empty() {
		return st, nil
	}
	if matches, err = arena.Put(ctx, "match", matches); err != nil {
		return st, err
	}

	mRef := Slope(seg.Features[0])
	accepted := network.New(matches.Name)
	for _, sf := range matches.Features {
		if Angle(mRef, Slope(sf)) <= c.opts.AngleThreshold {
			accepted.Features = append(accepted.Features, sf)
			continue
		}
		st.rejected++
	}

	zap.L().Debug("conflate: segment processed",
		zap.Int("segment", cat),
		zap.Stringer("side", side),
		zap.Int("fragments", matches.Len()),
		zap.Int("accepted", accepted.Len()),
	)

	if accepted.Empty() {
		return st, nil
	}
	if st.patch, err = st.patch.Add(ctx, c.engine, accepted); err != nil {
		return st, err
	}
	st.matched++
	st.accepted += accepted.Len()
	return st, nil
}

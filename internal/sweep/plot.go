package sweep

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	candColor = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	refColor  = color.RGBA{R: 30, G: 60, B: 220, A: 255}
)

type chart struct {
	file    string
	percent bool
	ref     bool // reference measured against the candidate buffer
	value   func(Row) float64
	ylabel  string
}

var charts = []chart{
	{"cand_in_km.png", false, false, func(r Row) float64 { return r.CandIn }, "Candidate length included in the buffer [km]"},
	{"cand_in_perc.png", true, false, func(r Row) float64 { return r.CandInPct }, "Candidate length included in the buffer [%]"},
	{"cand_out_km.png", false, false, func(r Row) float64 { return r.CandOut }, "Candidate length not included in the buffer [km]"},
	{"cand_out_perc.png", true, false, func(r Row) float64 { return r.CandOutPct }, "Candidate length not included in the buffer [%]"},
	{"ref_in_km.png", false, true, func(r Row) float64 { return r.RefIn }, "REF length included in the buffer [km]"},
	{"ref_in_perc.png", true, true, func(r Row) float64 { return r.RefInPct }, "REF length included in the buffer [%]"},
	{"ref_out_km.png", false, true, func(r Row) float64 { return r.RefOut }, "REF length not included in the buffer [km]"},
	{"ref_out_perc.png", true, true, func(r Row) float64 { return r.RefOutPct }, "REF length not included in the buffer [%]"},
}

// ChartFiles lists the file names SavePlots writes.
func ChartFiles() []string {
	out := make([]string, len(charts))
	for i, c := range charts {
		out[i] = c.file
	}
	return out
}

// SavePlots renders one PNG chart per measure into dir, creating it if needed.
// Lengths are plotted in kilometres.
func (r *Report) SavePlots(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "plot: create %s", dir)
	}
	for _, c := range charts {
		if err := r.savePlot(dir, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) savePlot(dir string, c chart) error {
	p := plot.New()
	p.X.Label.Text = "Buffer width around REF dataset [m]"
	p.Title.Text = "Similarity of candidate compared to REF"
	legend := fmt.Sprintf("Candidate total length = %.1f km", r.Candidate/1000)
	lineColor := candColor
	if c.ref {
		p.Title.Text = "Similarity of REF compared to candidate"
		p.X.Label.Text = "Buffer width around candidate dataset [m]"
		legend = fmt.Sprintf("REF total length = %.1f km", r.Reference/1000)
		lineColor = refColor
	}
	p.Y.Label.Text = c.ylabel
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(r.Rows))
	for _, row := range r.Rows {
		y := c.value(row)
		if !c.percent {
			y /= 1000
		}
		pts = append(pts, plotter.XY{X: row.Buffer, Y: y})
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return eris.Wrapf(err, "plot: %s", c.file)
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	points.Color = lineColor
	p.Add(line, points)
	if c.percent {
		p.Y.Min, p.Y.Max = 0, 100
	}
	p.Legend.Add(legend, line, points)
	p.Legend.Top = true
	p.Legend.Left = false

	file := filepath.Join(dir, c.file)
	if err := p.Save(8*vg.Inch, 5*vg.Inch, file); err != nil {
		return eris.Wrapf(err, "plot: save %s", file)
	}
	return nil
}

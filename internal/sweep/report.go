package sweep

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/netconflate/internal/stats"
)

// Header is the column line of the text report.
const Header = "BUFFER(m)|CAND_IN(m)|CAND_IN(%)|CAND_OUT(m)|CAND_OUT(%)|REF_IN(m)|REF_IN(%)|REF_OUT(m)|REF_OUT(%)"

// Columns are the report columns in order, without units.
var Columns = []string{
	"buffer", "cand_in", "cand_in_pct", "cand_out", "cand_out_pct",
	"ref_in", "ref_in_pct", "ref_out", "ref_out_pct",
}

// Values returns the row in column order.
func (r Row) Values() []float64 {
	return []float64{
		r.Buffer, r.CandIn, r.CandInPct, r.CandOut, r.CandOutPct,
		r.RefIn, r.RefInPct, r.RefOut, r.RefOutPct,
	}
}

// String formats the row as one pipe-separated report line.
func (r Row) String() string {
	vals := r.Values()
	parts := make([]string, len(vals))
	parts[0] = strconv.FormatFloat(r.Buffer, 'f', -1, 64)
	for i, v := range vals[1:] {
		parts[i+1] = stats.Round1(v)
	}
	return strings.Join(parts, "|")
}

// WriteText writes the text report: summary lines, a blank line, the
// column header and one line per buffer width.
func (r *Report) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "REF length: %s m\n", stats.Round1(r.Reference))
	fmt.Fprintf(bw, "Candidate length: %s m\n", stats.Round1(r.Candidate))
	fmt.Fprintf(bw, "REF-candidate difference: %s m (%s%%)\n", stats.Round1(r.Diff), stats.Round1(r.DiffPct))
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, Header)
	for _, row := range r.Rows {
		fmt.Fprintln(bw, row.String())
	}
	if err := bw.Flush(); err != nil {
		return eris.Wrap(err, "sweep: write report")
	}
	return nil
}

// SaveText writes the text report to path.
func (r *Report) SaveText(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "sweep: create %s", path)
	}
	if err := r.WriteText(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "sweep: close %s", path)
	}
	return nil
}

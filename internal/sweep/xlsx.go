package sweep

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Workbook sheet names.
const (
	SummarySheet = "summary"
	RowsSheet    = "sweep"
)

// SaveXLSX writes the report as a workbook with a summary sheet and one
// row per buffer width.
func (r *Report) SaveXLSX(path string) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}
	for _, kv := range []struct {
		key string
		val float64
	}{
		{"reference_length", r.Reference},
		{"candidate_length", r.Candidate},
		{"difference", r.Diff},
		{"difference_pct", r.DiffPct},
	} {
		row := summary.AddRow()
		row.AddCell().SetString(kv.key)
		row.AddCell().SetFloat(kv.val)
	}

	sheet, err := f.AddSheet(RowsSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sweep sheet")
	}
	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}
	for _, row := range r.Rows {
		xr := sheet.AddRow()
		for _, v := range row.Values() {
			xr.AddCell().SetFloat(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

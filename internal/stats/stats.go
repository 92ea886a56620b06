// Package stats computes and reports the length statistics of a conflation run.
package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Format selects the report file encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", eris.Errorf("stats: unknown format %q", s)
	}
}

// NoFile is the placeholder path meaning "no report file".
const NoFile = "-"

const banner = "#####################################################################"

// Record holds the three measured lengths and the differences derived from them.
// Percentages are not clamped and may be negative.
type Record struct {
	Reference       float64 `json:"reference_length" yaml:"reference_length"`
	Original        float64 `json:"original_candidate_length" yaml:"original_candidate_length"`
	Processed       float64 `json:"processed_candidate_length" yaml:"processed_candidate_length"`
	DiffToOriginal  float64 `json:"diff_to_original" yaml:"diff_to_original"`
	PctToOriginal   float64 `json:"pct_to_original" yaml:"pct_to_original"`
	DiffToReference float64 `json:"diff_to_reference" yaml:"diff_to_reference"`
	PctToReference  float64 `json:"pct_to_reference" yaml:"pct_to_reference"`
}

// NewRecord derives the differences. Callers guarantee non-zero reference
// and original lengths; a zero divisor yields a zero percentage.
func NewRecord(reference, original, processed float64) Record {
	r := Record{
		Reference:       reference,
		Original:        original,
		Processed:       processed,
		DiffToOriginal:  original - processed,
		DiffToReference: reference - processed,
	}
	if original != 0 {
		r.PctToOriginal = r.DiffToOriginal / original * 100
	}
	if reference != 0 {
		r.PctToReference = r.DiffToReference / reference * 100
	}
	return r
}

// Lines returns the five report lines, values rounded to one decimal.
func (r Record) Lines() []string {
	return []string{
		fmt.Sprintf("REF dataset length: %s m", Round1(r.Reference)),
		fmt.Sprintf("Original candidate dataset length: %s m", Round1(r.Original)),
		fmt.Sprintf("Processed candidate dataset length: %s m", Round1(r.Processed)),
		fmt.Sprintf("Difference between original and processed candidate datasets length: %s m (%s%%)",
			Round1(r.DiffToOriginal), Round1(r.PctToOriginal)),
		fmt.Sprintf("Difference between REF dataset and processed candidate dataset length: %s m (%s%%)",
			Round1(r.DiffToReference), Round1(r.PctToReference)),
	}
}

// Encode renders the record in the given format.
func (r Record) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatText, "":
		return []byte(strings.Join(r.Lines(), "\n") + "\n"), nil
	case FormatYAML:
		data, err := yaml.Marshal(r)
		return data, eris.Wrap(err, "stats: encode yaml")
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return nil, eris.Wrap(err, "stats: encode json")
		}
		return buf.Bytes(), nil
	default:
		return nil, eris.Errorf("stats: unknown format %q", format)
	}
}

// Print writes the report to w framed by banner lines.
func (r Record) Print(w io.Writer) error {
	var b strings.Builder
	b.WriteString(banner + "\n")
	for _, line := range r.Lines() {
		b.WriteString(line + "\n")
	}
	b.WriteString(banner + "\n")
	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "stats: print")
}

// Emit writes the report file (unless path is empty or NoFile) and always
// prints the report to stdout. A file failure is returned after printing.
func Emit(stdout io.Writer, path string, format Format, r Record) error {
	var fileErr error
	if path != "" && path != NoFile {
		data, err := r.Encode(format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fileErr = eris.Wrapf(err, "stats: write %s", path)
		}
	}
	if err := r.Print(stdout); err != nil {
		return err
	}
	return fileErr
}

// Round1 formats v rounded to one decimal.
func Round1(v float64) string {
	v = math.Round(v*10) / 10
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

package stats

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord(200, 150, 120)

	assert.InDelta(t, 30, r.DiffToOriginal, 1e-12)
	assert.InDelta(t, 20, r.PctToOriginal, 1e-12)
	assert.InDelta(t, 80, r.DiffToReference, 1e-12)
	assert.InDelta(t, 40, r.PctToReference, 1e-12)
}

func TestNewRecord_NegativeNotClamped(t *testing.T) {
	r := NewRecord(100, 300, 150)

	assert.InDelta(t, -50, r.DiffToReference, 1e-12)
	assert.InDelta(t, -50, r.PctToReference, 1e-12)
}

func TestNewRecord_ZeroDivisor(t *testing.T) {
	r := NewRecord(0, 0, 0)
	assert.Equal(t, 0.0, r.PctToOriginal)
	assert.Equal(t, 0.0, r.PctToReference)
}

func TestLines(t *testing.T) {
	r := NewRecord(100.04, 100, 99.96)

	assert.Equal(t, []string{
		"REF dataset length: 100.0 m",
		"Original candidate dataset length: 100.0 m",
		"Processed candidate dataset length: 100.0 m",
		"Difference between original and processed candidate datasets length: 0.0 m (0.0%)",
		"Difference between REF dataset and processed candidate dataset length: 0.1 m (0.1%)",
	}, r.Lines())
}

func TestLines_NoNegativeZero(t *testing.T) {
	r := NewRecord(100, 100, 100.01)
	lines := r.Lines()
	assert.Equal(t, "Difference between original and processed candidate datasets length: 0.0 m (0.0%)", lines[3])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"YAML", FormatYAML, false},
		{" json ", FormatJSON, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_Structured(t *testing.T) {
	r := NewRecord(100, 80, 60)

	data, err := r.Encode(FormatJSON)
	require.NoError(t, err)
	var m map[string]float64
	require.NoError(t, json.Unmarshal(data, &m))
	assert.InDelta(t, 25, m["pct_to_original"], 1e-12)

	data, err = r.Encode(FormatYAML)
	require.NoError(t, err)
	var y map[string]float64
	require.NoError(t, yaml.Unmarshal(data, &y))
	assert.InDelta(t, 40, y["diff_to_reference"], 1e-12)

	_, err = r.Encode(Format("xml"))
	require.Error(t, err)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRecord(100, 100, 100).Print(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, banner, lines[0])
	assert.Equal(t, "REF dataset length: 100.0 m", lines[1])
	assert.Equal(t, banner, lines[6])
}

func TestEmit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.txt")
	var stdout bytes.Buffer

	require.NoError(t, Emit(&stdout, path, FormatText, NewRecord(100, 100, 100)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(data), "\n"))
	assert.True(t, strings.HasPrefix(string(data), "REF dataset length: 100.0 m\n"))
	assert.Contains(t, stdout.String(), banner)
}

func TestEmit_NoFile(t *testing.T) {
	for _, path := range []string{"", NoFile} {
		var stdout bytes.Buffer
		require.NoError(t, Emit(&stdout, path, FormatText, NewRecord(1, 1, 1)))
		assert.Contains(t, stdout.String(), "Processed candidate dataset length: 1.0 m")
	}
}

func TestEmit_FileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "stats.txt")
	var stdout bytes.Buffer

	err := Emit(&stdout, path, FormatText, NewRecord(1, 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats: write")
	// Stdout is still written.
	assert.Contains(t, stdout.String(), banner)
}

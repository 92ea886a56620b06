package layer

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/netconflate/internal/network"
)

func TestShapefile_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roads.shp")
	require.NoError(t, WriteShapefile(path, sampleLayer("roads")))

	got, err := ReadShapefile(path, "imported")
	require.NoError(t, err)
	assert.Equal(t, "imported", got.Name)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 1, got.Features[0].Cat)
	assert.Equal(t, 2, got.Features[1].Cat)
	assert.Equal(t, []float64{10, 0, 10, 5, 12, 8}, got.Features[1].Line.FlatCoords())
	require.NoError(t, got.Validate())
}

func TestShapefile_MultiPartRenumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.shp")

	w, err := shp.Create(path, shp.POLYLINE)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.NumberField("cat", 10)}))
	row := w.Write(shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 7, Y: 6}},
	}))
	require.NoError(t, w.WriteAttribute(int(row), 0, 42))
	w.Close()

	got, err := ReadShapefile(path, "multi")
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 1, got.Features[0].Cat)
	assert.Equal(t, 2, got.Features[1].Cat)
	assert.Equal(t, 42, got.Features[0].Source)
	assert.Equal(t, 42, got.Features[1].Source)
	assert.Equal(t, 3, got.Features[1].Line.NumCoords())
}

func TestShapefile_NoCatAttribute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.shp")

	w, err := shp.Create(path, shp.POLYLINE)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("name", 20)}))
	for i := 0; i < 3; i++ {
		x := float64(i)
		row := w.Write(shp.NewPolyLine([][]shp.Point{{{X: x, Y: 0}, {X: x + 1, Y: 0}}}))
		require.NoError(t, w.WriteAttribute(int(row), 0, "road"))
	}
	w.Close()

	got, err := ReadShapefile(path, "plain")
	require.NoError(t, err)
	var cats []int
	for c := range got.Cats() {
		cats = append(cats, c)
	}
	assert.Equal(t, []int{1, 2, 3}, cats)
}

func TestReadShapefile_Missing(t *testing.T) {
	_, err := ReadShapefile(filepath.Join(t.TempDir(), "nope.shp"), "x")
	require.Error(t, err)
}

func TestWriteShapefile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.shp")
	require.NoError(t, WriteShapefile(path, network.New("empty")))
}

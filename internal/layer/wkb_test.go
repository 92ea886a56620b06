package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/sells-group/netconflate/internal/network"
)

func TestEncodeWKB_Line(t *testing.T) {
	data, err := EncodeWKB(network.NewLine(1, 2, 3, 4))
	require.NoError(t, err)
	// Little-endian byte order marker, LineString type.
	assert.Equal(t, byte(1), data[0])
	assert.Equal(t, byte(2), data[1])

	ls, err := DecodeWKB(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, ls.FlatCoords())
}

func TestEncodeWKB_Nil(t *testing.T) {
	_, err := EncodeWKB(nil)
	require.Error(t, err)
}

func TestDecodeWKB_NotALine(t *testing.T) {
	data, err := wkb.Marshal(geom.NewPointFlat(geom.XY, []float64{1, 2}), wkb.NDR)
	require.NoError(t, err)

	_, err = DecodeWKB(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected LineString")
}

func TestDecodeWKB_Garbage(t *testing.T) {
	_, err := DecodeWKB([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestDecodeWKB_DropsZ(t *testing.T) {
	data, err := wkb.Marshal(geom.NewLineStringFlat(geom.XYZ, []float64{0, 0, 5, 1, 1, 6}), wkb.NDR)
	require.NoError(t, err)

	ls, err := DecodeWKB(data)
	require.NoError(t, err)
	assert.Equal(t, geom.XY, ls.Layout())
	assert.Equal(t, []float64{0, 0, 1, 1}, ls.FlatCoords())
}

func TestEWKB_SRID(t *testing.T) {
	src := network.NewLine(0, 0, 1, 1)
	data, err := EncodeEWKB(src, 4326)
	require.NoError(t, err)
	assert.Equal(t, 0, src.SRID())

	ls, err := DecodeEWKB(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 1}, ls.FlatCoords())
	assert.Equal(t, 4326, ls.SRID())
}

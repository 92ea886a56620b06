package layer

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/sells-group/netconflate/internal/network"
)

// EncodeWKB converts a line to little-endian WKB.
func EncodeWKB(ls *geom.LineString) ([]byte, error) {
	if ls == nil {
		return nil, eris.New("layer: encode WKB: nil line")
	}
	data, err := wkb.Marshal(ls, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "layer: encode WKB")
	}
	return data, nil
}

// DecodeWKB parses a WKB line string.
func DecodeWKB(data []byte) (*geom.LineString, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "layer: decode WKB")
	}
	return asLine(g)
}

// EncodeEWKB converts a line to EWKB carrying the given SRID (0 = none).
func EncodeEWKB(ls *geom.LineString, srid int) ([]byte, error) {
	if ls == nil {
		return nil, eris.New("layer: encode EWKB: nil line")
	}
	data, err := ewkb.Marshal(ls.Clone().SetSRID(srid), ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "layer: encode EWKB")
	}
	return data, nil
}

// DecodeEWKB parses an EWKB line string, ignoring its SRID.
func DecodeEWKB(data []byte) (*geom.LineString, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "layer: decode EWKB")
	}
	return asLine(g)
}

func asLine(g geom.T) (*geom.LineString, error) {
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, eris.Errorf("layer: expected LineString, got %T", g)
	}
	if ls.NumCoords() < 2 {
		return nil, eris.New("layer: line has fewer than 2 vertices")
	}
	if ls.Layout() != geom.XY {
		return network.FromCoords(coordsOf(ls)), nil
	}
	return ls, nil
}

func coordsOf(ls *geom.LineString) []geom.Coord {
	out := make([]geom.Coord, ls.NumCoords())
	for i := range out {
		out[i] = ls.Coord(i)
	}
	return out
}

package layer

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/netconflate/internal/network"
)

// ToFeatureCollection converts a layer to GeoJSON features with "cat" and
// "source" properties.
func ToFeatureCollection(n *network.Network) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, n.Len())}
	for _, f := range n.Features {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(f.Cat),
			Geometry: f.Line,
			Properties: map[string]any{
				"cat":    f.Cat,
				"source": f.Source,
			},
		})
	}
	return fc
}

// WriteGeoJSON encodes a layer as a FeatureCollection.
func WriteGeoJSON(w io.Writer, n *network.Network) error {
	return eris.Wrap(json.NewEncoder(w).Encode(ToFeatureCollection(n)), "layer: encode GeoJSON")
}

// ReadGeoJSON decodes a FeatureCollection of LineString / MultiLineString
// features. Each line becomes a feature; categories come from the "cat"
// property when present and unique, otherwise features are numbered 1..N.
func ReadGeoJSON(r io.Reader, name string) (*network.Network, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "layer: decode GeoJSON")
	}

	out := network.New(name)
	seen := make(map[int]bool)
	unique := true
	for i, gf := range fc.Features {
		cat := i + 1
		if v, ok := gf.Properties["cat"].(float64); ok {
			cat = int(v)
		}

		var lines []*geom.LineString
		switch g := gf.Geometry.(type) {
		case *geom.LineString:
			lines = append(lines, g)
		case *geom.MultiLineString:
			for j := 0; j < g.NumLineStrings(); j++ {
				lines = append(lines, g.LineString(j))
			}
		default:
			return nil, eris.Errorf("layer: GeoJSON feature %d: unsupported geometry %T", i, gf.Geometry)
		}

		for _, ls := range lines {
			line, err := asLine(ls)
			if err != nil {
				return nil, eris.Wrapf(err, "layer: GeoJSON feature %d", i)
			}
			if seen[cat] {
				unique = false
			}
			seen[cat] = true
			out.Features = append(out.Features, network.Feature{Cat: cat, Line: line})
		}
	}

	if !unique {
		for i := range out.Features {
			out.Features[i].Source = out.Features[i].Cat
		}
		out.Renumber()
	}
	return out, nil
}

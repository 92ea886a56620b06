package layer

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/netconflate/internal/network"
)

// ReadShapefile loads a polyline shapefile as a layer. Each part becomes a
// feature. The "cat" attribute is used as category when present and unique;
// otherwise features are numbered 1..N and keep the attribute as Source.
func ReadShapefile(shpPath, name string) (*network.Network, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	catIdx := -1
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), "cat") {
			catIdx = i
		}
	}

	out := network.New(name)
	seen := make(map[int]bool)
	unique := true
	var skipped int
	for reader.Next() {
		row, shape := reader.Shape()

		parts, points, ok := polyLineParts(shape)
		if !ok {
			skipped++
			continue
		}

		cat := row + 1
		if catIdx >= 0 {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(catIdx), "\x00"))
			if v, err := strconv.Atoi(val); err == nil {
				cat = v
			}
		}

		for i := range parts {
			end := len(points)
			if i+1 < len(parts) {
				end = int(parts[i+1])
			}
			coords := make([]geom.Coord, 0, end-int(parts[i]))
			for _, p := range points[parts[i]:end] {
				coords = append(coords, geom.Coord{p.X, p.Y})
			}
			if len(coords) < 2 {
				skipped++
				continue
			}
			if seen[cat] {
				unique = false
			}
			seen[cat] = true
			out.Features = append(out.Features, network.Feature{Cat: cat, Line: network.FromCoords(coords)})
		}
	}

	if !unique {
		for i := range out.Features {
			out.Features[i].Source = out.Features[i].Cat
		}
		out.Renumber()
	}
	if skipped > 0 {
		zap.L().Debug("layer: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

func polyLineParts(shape shp.Shape) ([]int32, []shp.Point, bool) {
	switch s := shape.(type) {
	case *shp.PolyLine:
		if s == nil || s.NumParts == 0 {
			return nil, nil, false
		}
		return s.Parts, s.Points, true
	case *shp.PolyLineZ:
		if s == nil || s.NumParts == 0 {
			return nil, nil, false
		}
		return s.Parts, s.Points, true
	default:
		return nil, nil, false
	}
}

// WriteShapefile writes a layer as a 2D polyline shapefile with "cat" and
// "source" attributes.
func WriteShapefile(shpPath string, n *network.Network) error {
	w, err := shp.Create(shpPath, shp.POLYLINE)
	if err != nil {
		return eris.Wrapf(err, "layer: create shapefile %s", shpPath)
	}
	defer w.Close()

	if err := w.SetFields([]shp.Field{
		shp.NumberField("cat", 10),
		shp.NumberField("source", 10),
	}); err != nil {
		return eris.Wrap(err, "layer: shapefile fields")
	}

	for _, f := range n.Features {
		points := make([]shp.Point, f.Line.NumCoords())
		for i := range points {
			c := f.Line.Coord(i)
			points[i] = shp.Point{X: c.X(), Y: c.Y()}
		}
		row := int(w.Write(shp.NewPolyLine([][]shp.Point{points})))
		if err := w.WriteAttribute(row, 0, f.Cat); err != nil {
			return eris.Wrapf(err, "layer: write cat of feature %d", f.Cat)
		}
		if err := w.WriteAttribute(row, 1, f.Source); err != nil {
			return eris.Wrapf(err, "layer: write source of feature %d", f.Cat)
		}
	}
	return nil
}

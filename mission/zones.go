package mission

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"golang.org/x/xerrors"
)

type zoneShape struct {
	zoneID string
	geom   orb.Geometry
}

// Zones maps map coordinates (lng, lat) to mission zones.
type Zones struct {
	shapes []zoneShape
}

// LoadZones reads a GeoJSON FeatureCollection. Each polygon feature names its
// zone through a "zoneId" property or a "spaceName" matched against m.
func LoadZones(path string, m Mission) (*Zones, error) {
	if path == "" {
		return &Zones{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read zones file %s: %w", path, err)
	}

	return ParseZones(data, m)
}

func ParseZones(data []byte, m Mission) (*Zones, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse zones: %w", err)
	}

	z := &Zones{}
	for i, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}

		zoneID := f.Properties.MustString("zoneId", "")
		if zoneID == "" {
			zone, ok := m.ZoneBySpace(f.Properties.MustString("spaceName", ""))
			if !ok {
				return nil, xerrors.Errorf("feature %d does not match any zone", i)
			}
			zoneID = zone.ID
		}
		if _, ok := m.Zone(zoneID); !ok {
			return nil, xerrors.Errorf("feature %d references unknown zone %s", i, zoneID)
		}

		z.shapes = append(z.shapes, zoneShape{zoneID: zoneID, geom: f.Geometry})
	}

	return z, nil
}

// Locate returns the first zone whose geometry contains the point. Holes are
// excluded.
func (z *Zones) Locate(lng, lat float64) (string, bool) {
	if z == nil {
		return "", false
	}

	p := orb.Point{lng, lat}
	for _, s := range z.shapes {
		switch g := s.geom.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				return s.zoneID, true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, p) {
				return s.zoneID, true
			}
		}
	}
	return "", false
}

func (z *Zones) Len() int {
	if z == nil {
		return 0
	}
	return len(z.shapes)
}

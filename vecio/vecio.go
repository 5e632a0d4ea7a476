// Package vecio exports a World's vector features -- rivers, coastline,
// tectonic edges, mountain/Andean/Hymalayan chains, trenches and
// hotspots -- to ESRI shapefiles, the way the teacher's Outputter.Output
// writes a grid's cell polygons (io.go).
package vecio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	shpenc "github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"

	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// latLonPoint converts a geographic coordinate to a plain X=lon, Y=lat
// shapefile point, the convention the teacher's longlat projection case
// in io.go's Output already assumes for unprojected output.
func latLonPoint(p shape.LatLon) geom.Point {
	return geom.Point{X: float64(p.Lon), Y: float64(p.Lat)}
}

// ExportPoints writes a slice of geographic points to path as a POINT
// shapefile with a single "kind" text attribute, used for mountain
// chains, trenches and hotspots -- features with no connectivity, unlike
// rivers.
func ExportPoints(path, kind string, points []shape.LatLon) error {
	path = withShpExt(path)
	enc, err := shpenc.NewEncoderFromFields(path, goshp.POINT, goshp.StringField("kind", 32))
	if err != nil {
		return fmt.Errorf("vecio: creating %s: %w", path, err)
	}
	defer enc.Close()
	for _, p := range points {
		if err := enc.EncodeFields(latLonPoint(p), kind); err != nil {
			return fmt.Errorf("vecio: writing %s: %w", path, err)
		}
	}
	return writePrjLongLat(path)
}

// ExportRivers writes each RiverPath as a POLYLINE feature, with a
// "volume" attribute holding the river's volume at its mouth (its last
// point, where flow is greatest).
func ExportRivers(path string, rivers []world.RiverPath, sh shape.Shape) error {
	path = withShpExt(path)
	enc, err := shpenc.NewEncoderFromFields(path, goshp.POLYLINE, goshp.FloatField("volume", 12, 4))
	if err != nil {
		return fmt.Errorf("vecio: creating %s: %w", path, err)
	}
	defer enc.Close()
	for _, river := range rivers {
		if len(river) < 2 {
			continue
		}
		line := make(geom.LineString, len(river))
		for i, pt := range river {
			line[i] = latLonPoint(sh.CellToLatLon(pt.Pos))
		}
		if err := enc.EncodeFields(line, float64(river[len(river)-1].Volume)); err != nil {
			return fmt.Errorf("vecio: writing %s: %w", path, err)
		}
	}
	return writePrjLongLat(path)
}

// ExportCoastline writes every coastline cell as a POINT feature. Unlike
// ExportPoints' inputs, coastline cells are keyed by raster coordinate
// rather than already-resolved LatLon, so this takes the Shape needed to
// convert them.
func ExportCoastline(path string, coastline map[shape.Coord]bool, sh shape.Shape) error {
	points := make([]shape.LatLon, 0, len(coastline))
	for c := range coastline {
		points = append(points, sh.CellToLatLon(c))
	}
	return ExportPoints(path, "coastline", points)
}

// ExportTectonics writes the six point feature sets a World carries
// (tectonic edges, mountain chains, Andean chains, Hymalayan chains,
// trenches, hotspots) to sibling shapefiles under dir, named by feature
// kind; empty sets are skipped.
func ExportTectonics(dir string, w *world.World) error {
	sets := []struct {
		name   string
		points []shape.LatLon
	}{
		{"tectonic_edges", w.TectonicEdges},
		{"mountain_chains", w.MountainChains},
		{"andean_chains", w.AndeanChains},
		{"hymalayan_chains", w.HymalayanChains},
		{"trenches", w.Trenches},
		{"hotspots", w.Hotspots},
	}
	for _, s := range sets {
		if len(s.points) == 0 {
			continue
		}
		if err := ExportPoints(filepath.Join(dir, s.name+".shp"), s.name, s.points); err != nil {
			return err
		}
	}
	return nil
}

func withShpExt(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ".shp"
}

// writePrjLongLat writes a .prj sidecar declaring the unprojected WGS84
// longlat spatial reference the teacher's Output writes for the
// "longlat" sr.Name case in io.go.
func writePrjLongLat(shpPath string) error {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	const wkt = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`
	f, err := os.Create(base + ".prj")
	if err != nil {
		return fmt.Errorf("vecio: creating %s.prj: %w", base, err)
	}
	defer f.Close()
	_, err = fmt.Fprint(f, wkt)
	return err
}

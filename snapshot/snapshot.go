// Package snapshot gob-encodes a world.World to a single stream and
// reconstructs it on load, the way the teacher's Save/Load
// DomainManipulators round-trip an InMAP grid (save.go): a small version
// tag guards against decoding a snapshot into an incompatible build, and
// every field travels as a plain exported-field document rather than the
// live PartialMap/Shape types, since those keep their backing storage
// unexported on purpose.
package snapshot

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// FormatVersion guards against decoding a snapshot written by an
// incompatible build; bump it whenever document's shape changes.
const FormatVersion = 1

// document is the gob wire format: every World field flattened to plain
// slices/maps of exported-field structs.
type document struct {
	FormatVersion int

	ShapeKind      shape.Kind
	Circumference  int
	Height         int
	Months         int

	TectonicPlates  [][]world.PlateID
	PlateDirections []world.Vec2
	PlateCenters    []shape.LatLon
	OceanicPlates   map[world.PlateID]bool

	HeightField [][]int32
	Coastline   []shape.Coord

	Continentality [][]float32
	Temperature    [][][]float32
	AtmPressure    [][][]float32
	Winds          [][][]world.Wind
	Precipitation  [][][]int32

	AnnualPrecipitation [][]int32
	Climate             [][]world.Climate
	VegetationDensity   [][]int32

	Rivers     []world.RiverPath
	Freshwater []shape.Coord

	TectonicEdges   []shape.LatLon
	MountainChains  []shape.LatLon
	AndeanChains    []shape.LatLon
	HymalayanChains []shape.LatLon
	Trenches        []shape.LatLon
	Hotspots        []shape.LatLon
}

// Save writes w to out as a single gob-encoded document.
func Save(out io.Writer, w *world.World) error {
	doc := document{
		FormatVersion:   FormatVersion,
		ShapeKind:       w.Shape.Kind(),
		Circumference:   w.Shape.Circumference(),
		Height:          w.Shape.Height(),
		Months:          w.Months,
		TectonicPlates:  w.TectonicPlates.ToRows(),
		PlateDirections: w.PlateDirections,
		PlateCenters:    w.PlateCenters,
		OceanicPlates:   w.OceanicPlates,
		HeightField:     w.Height.ToRows(),
		Coastline:       setToSlice(w.Coastline),
		Freshwater:      setToSlice(w.Freshwater),
		Rivers:          w.Rivers,
		TectonicEdges:   w.TectonicEdges,
		MountainChains:  w.MountainChains,
		AndeanChains:    w.AndeanChains,
		HymalayanChains: w.HymalayanChains,
		Trenches:        w.Trenches,
		Hotspots:        w.Hotspots,
	}
	if w.Continentality != nil {
		doc.Continentality = w.Continentality.ToRows()
	}
	for _, f := range w.Temperature {
		doc.Temperature = append(doc.Temperature, f.ToRows())
	}
	for _, f := range w.AtmPressure {
		doc.AtmPressure = append(doc.AtmPressure, f.ToRows())
	}
	for _, f := range w.Winds {
		doc.Winds = append(doc.Winds, f.ToRows())
	}
	for _, f := range w.Precipitation {
		doc.Precipitation = append(doc.Precipitation, f.ToRows())
	}
	if w.AnnualPrecipitation != nil {
		doc.AnnualPrecipitation = w.AnnualPrecipitation.ToRows()
	}
	if w.Climate != nil {
		doc.Climate = w.Climate.ToRows()
	}
	if w.VegetationDensity != nil {
		doc.VegetationDensity = w.VegetationDensity.ToRows()
	}

	enc := gob.NewEncoder(out)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("snapshot.Save: %w", err)
	}
	return nil
}

// Load decodes a previously-Saved document back into a *world.World bound
// to a freshly-constructed Shape of the recorded kind/size.
func Load(in io.Reader) (*world.World, error) {
	dec := gob.NewDecoder(in)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("snapshot.Load: %w", err)
	}
	if doc.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("snapshot.Load: format version %d is not compatible with %d", doc.FormatVersion, FormatVersion)
	}

	sh := shape.New(doc.ShapeKind, doc.Circumference, doc.Height)
	w := world.New(sh, doc.Months)

	w.TectonicPlates = grid.FromRows(sh, doc.TectonicPlates)
	w.PlateDirections = doc.PlateDirections
	w.PlateCenters = doc.PlateCenters
	w.OceanicPlates = doc.OceanicPlates
	w.Height = grid.FromRows(sh, doc.HeightField)
	w.Coastline = sliceToSet(doc.Coastline)
	w.Freshwater = sliceToSet(doc.Freshwater)
	w.Rivers = doc.Rivers
	w.TectonicEdges = doc.TectonicEdges
	w.MountainChains = doc.MountainChains
	w.AndeanChains = doc.AndeanChains
	w.HymalayanChains = doc.HymalayanChains
	w.Trenches = doc.Trenches
	w.Hotspots = doc.Hotspots

	if doc.Continentality != nil {
		w.Continentality = grid.FromRows(sh, doc.Continentality)
	}
	for _, rows := range doc.Temperature {
		w.Temperature = append(w.Temperature, grid.FromRows[float32](sh, rows))
	}
	for _, rows := range doc.AtmPressure {
		w.AtmPressure = append(w.AtmPressure, grid.FromRows[float32](sh, rows))
	}
	for _, rows := range doc.Winds {
		w.Winds = append(w.Winds, grid.FromRows[world.Wind](sh, rows))
	}
	for _, rows := range doc.Precipitation {
		w.Precipitation = append(w.Precipitation, grid.FromRows[int32](sh, rows))
	}
	if doc.AnnualPrecipitation != nil {
		w.AnnualPrecipitation = grid.FromRows(sh, doc.AnnualPrecipitation)
	}
	if doc.Climate != nil {
		w.Climate = grid.FromRows(sh, doc.Climate)
	}
	if doc.VegetationDensity != nil {
		w.VegetationDensity = grid.FromRows(sh, doc.VegetationDensity)
	}

	return w, nil
}

func setToSlice(m map[shape.Coord]bool) []shape.Coord {
	if m == nil {
		return nil
	}
	out := make([]shape.Coord, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}

func sliceToSet(s []shape.Coord) map[shape.Coord]bool {
	out := make(map[shape.Coord]bool, len(s))
	for _, c := range s {
		out[c] = true
	}
	return out
}

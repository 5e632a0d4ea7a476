// Package world defines World, the aggregate of every named raster field
// and vector feature a generation pipeline produces, and the Stage/
// Pipeline types that transform it.
package world

import (
	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/shape"
)

// PlateID indexes into World.PlateDirections/PlateCenters.
type PlateID = uint32

// Vec2 is a unit-ish 2-vector in (dLat, dLon) space, used for plate drift
// directions and wind vectors' horizontal component.
type Vec2 struct {
	DLat, DLon float32
}

// Wind is a monthly wind-vector sample: a horizontal direction plus the
// pressure value that produced it (kept alongside so renderers can draw
// streamlines colored by the pressure that's driving them).
type Wind struct {
	DLat, DLon float32
	Pressure   float32
}

// RiverPoint is one step of a traced river: the cell it occupies, the
// accumulated volume at that point, and the direction water entered the
// cell from.
type RiverPoint struct {
	Pos       shape.Coord
	Volume    float32
	Direction Vec2
}

// RiverPath is an ordered sequence of RiverPoints from source to mouth.
type RiverPath []RiverPoint

// World holds every named field a generation pipeline reads or writes.
// Stages take a World by value-clone (see Clone), mutate the fields they
// own by full replacement, and return a new World; the Pipeline discards
// earlier Worlds as it folds stages over the state.
type World struct {
	Shape shape.Shape

	TectonicPlates  *grid.PartialMap[PlateID]
	PlateDirections []Vec2
	PlateCenters    []shape.LatLon
	OceanicPlates   map[PlateID]bool

	Height    *grid.PartialMap[int32]
	Coastline map[shape.Coord]bool // nil until DefineCoastline has run

	Continentality *grid.PartialMap[float32]
	Temperature    []*grid.PartialMap[float32] // monthly, len == Months
	AtmPressure    []*grid.PartialMap[float32]
	Winds          []*grid.PartialMap[Wind]
	Precipitation  []*grid.PartialMap[int32]

	AnnualPrecipitation *grid.PartialMap[int32]
	Climate             *grid.PartialMap[Climate]
	VegetationDensity    *grid.PartialMap[int32]

	Rivers []RiverPath
	// Freshwater records cells a river has already claimed, so later
	// rivers can detect a join (spec 4.J step 1) rather than crossing.
	Freshwater map[shape.Coord]bool

	TectonicEdges   []shape.LatLon
	MountainChains  []shape.LatLon
	AndeanChains    []shape.LatLon
	HymalayanChains []shape.LatLon
	Trenches        []shape.LatLon
	Hotspots        []shape.LatLon

	// Months is the number of year-divisions Temperature/Precipitation
	// etc. are sampled at (default 12).
	Months int
}

// New creates an empty World sized by sh, with Height and TectonicPlates
// allocated (every other field nil/empty until a stage fills it) and
// Months set for the monthly fields a climate recipe will populate.
func New(sh shape.Shape, months int) *World {
	return &World{
		Shape:          sh,
		TectonicPlates: grid.New[PlateID](sh),
		Height:         grid.New[int32](sh),
		OceanicPlates:  map[PlateID]bool{},
		Freshwater:     map[shape.Coord]bool{},
		Months:         months,
	}
}

// Clone returns a shallow copy of w: a Stage that owns a field reassigns
// it on the clone with a freshly-allocated PartialMap; fields it doesn't
// touch keep pointing at the same underlying data as w, which is safe
// because PartialMaps are never mutated in place once published (the
// fresh-allocation convention in spec.md 4.B).
func (w *World) Clone() *World {
	cp := *w
	cp.OceanicPlates = cloneBoolSet(w.OceanicPlates)
	cp.Freshwater = cloneBoolSet(w.Freshwater)
	cp.PlateDirections = append([]Vec2(nil), w.PlateDirections...)
	cp.PlateCenters = append([]shape.LatLon(nil), w.PlateCenters...)
	cp.Temperature = append([]*grid.PartialMap[float32](nil), w.Temperature...)
	cp.AtmPressure = append([]*grid.PartialMap[float32](nil), w.AtmPressure...)
	cp.Winds = append([]*grid.PartialMap[Wind](nil), w.Winds...)
	cp.Precipitation = append([]*grid.PartialMap[int32](nil), w.Precipitation...)
	cp.Rivers = nil
	for _, r := range w.Rivers {
		cp.Rivers = append(cp.Rivers, append(RiverPath(nil), r...))
	}
	cp.TectonicEdges = append([]shape.LatLon(nil), w.TectonicEdges...)
	cp.MountainChains = append([]shape.LatLon(nil), w.MountainChains...)
	cp.AndeanChains = append([]shape.LatLon(nil), w.AndeanChains...)
	cp.HymalayanChains = append([]shape.LatLon(nil), w.HymalayanChains...)
	cp.Trenches = append([]shape.LatLon(nil), w.Trenches...)
	cp.Hotspots = append([]shape.LatLon(nil), w.Hotspots...)
	return &cp
}

func cloneBoolSet[K comparable](m map[K]bool) map[K]bool {
	out := make(map[K]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsOcean reports whether height h means this cell is water (invariant 2
// of spec.md 3: height <= 0 <=> ocean).
func IsOcean(h int32) bool { return h <= 0 }

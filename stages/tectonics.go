// Package stages implements the per-cell and whole-domain transforms a
// Recipe assembles into a Pipeline: plate assignment and interaction,
// height generation, climate, and hydrology/biomes. Every stage is built
// from world.StageFunc/world.HeightStage so Recipe only ever deals in
// world.Stage values.
package stages

import (
	"context"
	"math"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/noise"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// domainWarpFrequency/domainWarpIntensity match the teacher's CustomNoise
// parameters for the two plate-border warp fields.
const (
	domainWarpFrequency = 3.0
	domainWarpIntensity = 10.0
)

// PlateAssignment builds the noisy Voronoi plate-id grid, per-plate drift
// directions, plate seed centers, and the set of always-oceanic plates
// (the first oceanicCount ids by convention, the way a Recipe derives
// AddPlateGap's oceanic_plates count from number_of_plates and
// water_percentage). When cfg.Supercontinent is set, every plate's drift
// points at the origin instead of being drawn uniformly at random.
func PlateAssignment(cfg *config.Configuration, oceanicCount int) world.Stage {
	name := "noisy_voronoi"
	if cfg.Supercontinent {
		name = "noisy_voronoi_supercontinent"
	}
	return world.StageFunc(name, func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()

		seeds := w.Shape.RandomPointsFromSeed(uint64(cfg.Seed), cfg.NumberOfPlates)
		centers := append([]shape.LatLon(nil), seeds...)

		directions := make([]world.Vec2, len(centers))
		if cfg.Supercontinent {
			for i, c := range centers {
				directions[i] = world.Vec2{DLat: -c.Lat / 90, DLon: -c.Lon / 180}
			}
		} else {
			stream := shape.NewDeterministicRand(uint64(cfg.Seed)+1, 0)
			for i := range directions {
				directions[i] = world.Vec2{
					DLat: float32(stream.Float64()*2 - 1),
					DLon: float32(stream.Float64()*2 - 1),
				}
			}
		}

		warp1 := noise.New(uint64(cfg.Seed), 0, domainWarpFrequency, domainWarpIntensity)
		warp2 := noise.New(uint64(cfg.Seed)+1, 0, domainWarpFrequency, domainWarpIntensity)

		plates := grid.New[world.PlateID](w.Shape)
		grid.ApplyParallel(plates, w, func(x, y int, _ *world.World) world.PlateID {
			p := w.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
			warped := shape.LatLon{
				Lat: p.Lat + warp1.Sample(w.Shape, p, 1),
				Lon: p.Lon + warp2.Sample(w.Shape, p, 1),
			}
			return nearestSeed(w.Shape, warped, centers)
		})

		oceanic := map[world.PlateID]bool{}
		for i := 0; i < oceanicCount && i < len(centers); i++ {
			oceanic[world.PlateID(i)] = true
		}

		out.TectonicPlates = plates
		out.PlateDirections = directions
		out.PlateCenters = centers
		out.OceanicPlates = oceanic
		return out, nil
	})
}

func nearestSeed(sh shape.Shape, p shape.LatLon, centers []shape.LatLon) world.PlateID {
	best := world.PlateID(0)
	bestDist := float32(math.MaxFloat32)
	for i, c := range centers {
		d := sh.Distance(p, c)
		if d < bestDist {
			bestDist = d
			best = world.PlateID(i)
		}
	}
	return best
}

// oceanicShelfHeight is the "deep oceanic plate" threshold tectonic_edges
// uses to decide whether a cell sits on the abyssal shelf of an oceanic
// plate rather than its shallower margin.
const oceanicShelfHeight int32 = -200

// TectonicEdges classifies every plate-boundary cell into the chain
// vector layers spec.md 4.E describes, using the collision formula
// `dot(dir_self, neighbor_direction) - dot(neighbor_direction, dir_other)`
// and, past the collision threshold, a "two cells further inland" land
// test to pick the Himalaya/Andean/Mountain/Trench branch.
func TectonicEdges() world.Stage {
	return world.StageFunc("tectonic_edges", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()

		var edges, mountains, andean, himalayan, trenches []shape.LatLon
		w.Height.ForEach(func(x, y int, h1 int32) {
			plate1 := w.TectonicPlates.At(x, y)
			block := w.TectonicPlates.PixelNeighborsCoords(x, y, 1)
			dir1 := w.PlateDirections[plate1]

			for i, row := range block {
				for j, nc := range row {
					if i == 1 && j == 1 {
						continue
					}
					plate2 := w.TectonicPlates.At(nc.X, nc.Y)
					if plate2 == plate1 {
						continue
					}
					dir2 := w.PlateDirections[plate2]
					pixelDir := normalize2(float32(i-1), float32(j-1))

					here := w.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
					edges = append(edges, here)

					collision := dot2(dir1, pixelDir) - dot2(pixelDir, dir2)
					if collision <= 0.5 {
						continue
					}

					// inland is the point one step along -pixelDir from here:
					// the chain feature sits just inside the plate boundary,
					// not on it, matching tectonic_edges.rs's chain points.
					inland := shape.LatLon{Lat: here.Lat - pixelDir[0], Lon: here.Lon - pixelDir[1]}
					inland1, inland2 := inlandCells(w, x, y, pixelDir)
					h2 := w.Height.At(nc.X, nc.Y)
					switch {
					case h1 > oceanicShelfHeight:
						switch {
						case h1 > 0 && h2 > 0:
							if w.Height.At(inland1.X, inland1.Y) > 0 && w.Height.At(inland2.X, inland2.Y) > 0 {
								himalayan = append(himalayan, inland)
							} else {
								mountains = append(mountains, inland)
							}
						case h1 > 0 && h2 <= 0:
							if w.Height.At(inland1.X, inland1.Y) > 0 && w.Height.At(inland2.X, inland2.Y) > 0 {
								andean = append(andean, inland)
							} else {
								mountains = append(mountains, inland)
							}
						default:
							mountains = append(mountains, inland)
						}
					default:
						if h2 <= oceanicShelfHeight {
							mountains = append(mountains, inland)
						} else {
							trenches = append(trenches, inland)
						}
					}
				}
			}
		})

		out.TectonicEdges = edges
		out.MountainChains = mountains
		out.AndeanChains = andean
		out.HymalayanChains = himalayan
		out.Trenches = trenches
		return out, nil
	})
}

// inlandCells returns the two cells reached by stepping 1 and 2 units
// further along -pixelDir from (x,y), the "is this boundary actually
// backed by land" probe tectonic_edges.rs runs before picking a Himalaya
// or Andean classification over a plain Mountain one.
func inlandCells(w *world.World, x, y int, pixelDir [2]float32) (shape.Coord, shape.Coord) {
	step := func(n float32) shape.Coord {
		p := w.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
		return w.Shape.LatLonToCell(shape.LatLon{
			Lat: p.Lat - n*pixelDir[0],
			Lon: p.Lon - n*pixelDir[1],
		})
	}
	return step(1), step(2)
}

func normalize2(a, b float32) [2]float32 {
	n := float32(math.Hypot(float64(a), float64(b)))
	if n == 0 {
		return [2]float32{0, 0}
	}
	return [2]float32{a / n, b / n}
}

func dot2(v world.Vec2, u [2]float32) float32 {
	return v.DLat*u[0] + v.DLon*u[1]
}

// PlateGap pushes height down near diverging plate boundaries (spec.md
// 4.E "Plate gap") and clamps any cell on an always-oceanic plate to a
// deep abyssal floor. distance bounds the neighbor rings searched per
// cell: rings 1 through distance-1 (default 16 upstream).
func PlateGap(distance int) world.Stage {
	return world.HeightStage("plate_gap", func(x, y int, input *world.World) int32 {
		h := input.Height.At(x, y)
		if input.OceanicPlates[input.TectonicPlates.At(x, y)] {
			return min32(h, -2000)
		}
		if h < 0 {
			return h
		}
		plate1 := input.TectonicPlates.At(x, y)
		dir1 := input.PlateDirections[plate1]

		for d := 1; d < distance; d++ {
			found := false
			for _, row := range input.TectonicPlates.PixelNeighborsCoords(x, y, d) {
				for _, nc := range row {
					plate2 := input.TectonicPlates.At(nc.X, nc.Y)
					if plate2 == plate1 {
						continue
					}
					dir2 := input.PlateDirections[plate2]
					if dot2(dir1, [2]float32{dir2.DLat, dir2.DLon}) < 0 {
						h -= 15 + h/2
					}
					found = true
					break
				}
				if found {
					break
				}
			}
		}
		return h
	})
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// pseudoRandomFloat hashes seed into [0,1). Hotspot jitter needs a pure
// index -> float function rather than a stateful RNG walk, the same
// splitmix64-derived technique shape.hashStream uses for
// RandomPointsFromSeed, kept local here since it is only ever seeded by a
// per-step integer, not a point index.
func pseudoRandomFloat(seed uint64) float32 {
	x := seed + 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return float32(z>>11) / float32(1<<53)
}

// Hotspots walks n random points landing on deep ocean along their local
// plate's drift, injecting a decaying positive-height kernel at each step
// (spec.md 4.E "Hotspots") to leave a trail of volcanic-island peaks.
// n is derived by the Recipe from ClimateConfiguration-independent
// config.Hotspots (a 0..1+ intensity knob scaling the base point count).
func Hotspots(seed uint64, n int) world.Stage {
	return world.StageFunc("hotspots", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		h := w.Height.Clone()

		points := w.Shape.RandomPointsFromSeed(seed, n)
		var hotspots []shape.LatLon

		for idx, p := range points {
			c := w.Shape.LatLonToCell(p)
			height := h.At(c.X, c.Y)
			if height > -300 {
				continue
			}
			lat, lon := p.Lat, p.Lon
			multiplier := float32(1.0)
			steps := 0
			for height < -200 && steps < 50 {
				steps++
				cur := w.Shape.LatLonToCell(shape.LatLon{Lat: lat, Lon: lon})
				plate := w.TectonicPlates.At(cur.X, cur.Y)
				dir := w.PlateDirections[plate]

				jitterBase := seed + uint64(idx)*1000 + uint64(steps)
				lat -= 0.7*dir.DLat + 0.5*(2*pseudoRandomFloat(jitterBase)-1)
				lon -= 0.7*dir.DLon + 0.5*(2*pseudoRandomFloat(jitterBase+1)-1)

				hotspots = append(hotspots, shape.LatLon{Lat: lat, Lon: lon})
				cell := w.Shape.LatLonToCell(shape.LatLon{Lat: lat, Lon: lon})
				height = h.At(cell.X, cell.Y)

				injected := h.At(cell.X, cell.Y)/5 + int32(800*multiplier*pseudoRandomFloat(jitterBase+2))
				h.Set(cell.X, cell.Y, injected)

				for _, row := range h.PixelNeighborsCoords(cell.X, cell.Y, 1) {
					for _, nc := range row {
						base := h.At(nc.X, nc.Y) / 5
						r := pseudoRandomFloat(jitterBase + uint64(nc.X*31+nc.Y))
						h.Set(nc.X, nc.Y, base+int32(800*multiplier*r))
					}
				}
				multiplier *= 0.9
			}
		}

		out.Height = h
		out.Hotspots = hotspots
		return out, nil
	})
}

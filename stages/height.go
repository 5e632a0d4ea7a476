package stages

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/noise"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// percentile returns the value at the given percentile (0..100) of
// height's cells under the nearest-rank rule height_in_plates.rs's
// `percentile_2d_vector` uses: sort ascending, round(pct/100*(n-1)) into
// the sorted slice. gonum's interpolated quantile methods don't reproduce
// this exactly, so only the sort step is delegated to
// gonum.org/v1/gonum/floats; the index rule stays the original's.
func percentile(h *grid.PartialMap[int32], pct float32) int32 {
	var flat []float64
	h.ForEach(func(_, _ int, v int32) { flat = append(flat, float64(v)) })
	floats.Sort(flat)
	idx := int(pct/100*float32(len(flat)-1) + 0.5)
	if idx >= len(flat) {
		idx = len(flat) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return int32(flat[idx])
}

// WaterLevel shifts every height by the negative of the percentile cutoff
// corresponding to pct, so that exactly pct% of cells end up <= 0 (ocean),
// matching spec.md's height<=0<=>ocean invariant.
func WaterLevel(pct float32) world.Stage {
	return world.HeightStage("water_level", func(x, y int, input *world.World) int32 {
		sub := percentile(input.Height, pct)
		return input.Height.At(x, y) - sub
	})
}

// HeightInPlates layers a per-plate coherent noise field on top of the
// current height, one independent Field per plate id (mod 100, matching
// height_in_plates.rs's 100-entry noise pool) so adjacent plates never
// share identical terrain texture.
func HeightInPlates(seed uint32, frequency, intensity float32) world.Stage {
	const poolSize = 100
	fields := make([]*noise.Field, poolSize)
	for i := range fields {
		fields[i] = noise.New(uint64(seed), uint64(i)*1000, frequency, intensity)
	}
	return world.HeightStage("height_in_plates", func(x, y int, input *world.World) int32 {
		plate := input.TectonicPlates.At(x, y)
		f := fields[int(plate)%poolSize]
		p := input.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
		return input.Height.At(x, y) + int32(f.Sample(input.Shape, p, 0.5))
	})
}

// HeightNoise adds a single coherent noise layer to height unconditionally
// (the plain additive layer height_noise.rs applies during multi-
// resolution refinement).
func HeightNoise(seed uint32, salt uint64, frequency, intensity float32) world.Stage {
	f := noise.New(uint64(seed), salt, frequency, intensity)
	return world.HeightStage("height_noise", func(x, y int, input *world.World) int32 {
		p := input.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
		return input.Height.At(x, y) + int32(f.Sample(input.Shape, p, 0.5))
	})
}

// HeightNoiseMult scales (rather than adds to) height by a noise-derived
// multiplier clamped to a minimum of 0.2, leaving shallow/flat cells
// (height < 15) untouched, per height_noise_mult.rs.
func HeightNoiseMult(seed uint32, frequency, intensity float32) world.Stage {
	f := noise.New(uint64(seed), 0, frequency, intensity)
	return world.HeightStage("height_noise_mult", func(x, y int, input *world.World) int32 {
		h := input.Height.At(x, y)
		if h < 15 {
			return h
		}
		p := input.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
		multiplier := 1 + f.Sample(input.Shape, p, 0.5)
		if multiplier < 0.2 {
			multiplier = 0.2
		}
		return int32(float32(h) * multiplier)
	})
}

// HeightNoisePoles adds a noise layer weighted by a cos^2(pi*row/height)
// envelope, which is 1 on the pole rows and falls to 0 at the equator, so
// the layer's effect is concentrated toward the poles.
func HeightNoisePoles(seed uint32, frequency, intensity float32) world.Stage {
	f := noise.New(uint64(seed), 0, frequency, intensity)
	return world.HeightStage("height_noise_poles", func(x, y int, input *world.World) int32 {
		rows := float64(input.Height.Height())
		theta := math.Pi * float64(x) / rows
		poleFactor := float32(math.Cos(theta))
		poleFactor *= poleFactor
		p := input.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
		return input.Height.At(x, y) + int32(f.Sample(input.Shape, p, 0.5)*poleFactor)
	})
}

// AddMountains pushes height up along convergent plate boundaries (AddMountains
// in mountains.rs): walking up to 9 steps along the plate's own drift
// direction, accumulating a noise-shaped bump wherever that walk crosses
// into a different, collisional plate, until accumulator k exceeds 6.
func AddMountains(seed uint32, frequency, intensity float32) world.Stage {
	f := noise.New(uint64(seed), 0, frequency, intensity)
	return world.HeightStage("mountains", func(x, y int, input *world.World) int32 {
		plate1 := input.TectonicPlates.At(x, y)
		height := input.Height.At(x, y)
		dir1 := input.PlateDirections[plate1]
		here := input.Shape.CellToLatLon(shape.Coord{X: x, Y: y})

		k := 0
		for i := 1; i < 10; i++ {
			fi := float32(i)
			there := shape.LatLon{
				Lat: here.Lat + 0.6*fi*dir1.DLat,
				Lon: here.Lon + 0.6*fi*dir1.DLon,
			}
			cell2 := input.Shape.LatLonToCell(there)
			plate2 := input.TectonicPlates.At(cell2.X, cell2.Y)
			if plate2 == plate1 {
				continue
			}
			dir2 := input.PlateDirections[plate2]
			pixelDir := [2]float32{there.Lat - here.Lat, there.Lon - here.Lon}
			collision := dot2(dir1, pixelDir) - dot2(dir2, pixelDir)
			if collision <= 0.5 {
				continue
			}

			height2 := input.Height.At(cell2.X, cell2.Y)
			noiseAbs := f.Sample(input.Shape, there, 0.5)
			if noiseAbs < 0 {
				noiseAbs = -noiseAbs
			}
			noiseValue := 2 * (intensity - noiseAbs)
			if height2 > -300 {
				height += int32(noiseValue * float32(height2+400) / fi)
				k++
			} else {
				height += int32(noiseValue * 100 / fi)
				k += 2
			}
			if k > 6 {
				break
			}
		}
		return height
	})
}

// percentilePoint mirrors config.PercentilePoint with float32 fields, the
// shape adjustPercentiles needs for its linear interpolation.
type percentilePoint struct {
	pct, value float32
}

// adjustPercentiles remaps every height value through a piecewise-linear
// curve built from (percentile, target value) pairs, interpolating
// between the percentile cutoffs actually present in h (adjust_percentiles.rs).
func adjustPercentiles(h *grid.PartialMap[int32], points []percentilePoint) *grid.PartialMap[int32] {
	minimum := percentile(h, 0)
	curr := make([]struct{ value, cutoff int32 }, len(points))
	for i, p := range points {
		curr[i] = struct{ value, cutoff int32 }{int32(p.value), percentile(h, p.pct)}
	}
	minValue := minimum
	if len(points) > 0 && int32(points[0].value) < minValue {
		minValue = int32(points[0].value)
	}

	out := grid.New[int32](h.Shape)
	grid.ApplyParallel(out, h, func(x, y int, input *grid.PartialMap[int32]) int32 {
		v := input.At(x, y)
		prevValue, prevCutoff := minimum, minValue
		for _, c := range curr {
			if prevCutoff < v && v <= c.cutoff {
				if c.cutoff == prevCutoff {
					return prevValue
				}
				return prevValue + int32(float32(c.value-prevValue)*float32(v-prevCutoff)/float32(c.cutoff-prevCutoff))
			}
			prevValue, prevCutoff = c.value, c.cutoff
		}
		return v
	})
	return out
}

// AdjustLandHeightPercentiles reshapes the land side of the height
// distribution (values above the water_percentage cutoff) to match cfg's
// land_height_percentiles curve, leaving ocean depths untouched.
func AdjustLandHeightPercentiles(points []config.PercentilePoint, waterPct float32) world.Stage {
	return world.StageFunc("adjust_land_height_percentiles", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		scaled := make([]percentilePoint, 0, len(points)+1)
		scaled = append(scaled, percentilePoint{pct: waterPct, value: 0})
		for _, p := range points {
			scaled = append(scaled, percentilePoint{
				pct:   waterPct + p.Percentile*(100-waterPct)/100,
				value: float32(p.Value),
			})
		}
		cutoff := percentile(w.Height, waterPct)
		adjusted := adjustPercentiles(w.Height, scaled)
		w.Height.ForEach(func(x, y int, v int32) {
			if v <= cutoff {
				adjusted.Set(x, y, v)
			}
		})
		out.Height = adjusted
		return out, nil
	})
}

// AdjustOceanDepthPercentiles reshapes the ocean side of the height
// distribution (values below the water_percentage cutoff) to match cfg's
// ocean_depth_percentiles curve.
func AdjustOceanDepthPercentiles(points []config.PercentilePoint, waterPct float32) world.Stage {
	return world.StageFunc("adjust_ocean_depth_percentiles", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		scaled := make([]percentilePoint, 0, len(points))
		for _, p := range points {
			scaled = append(scaled, percentilePoint{
				pct:   p.Percentile * waterPct / 100,
				value: float32(p.Value),
			})
		}
		out.Height = adjustPercentiles(w.Height, scaled)
		return out, nil
	})
}

// lowestNeighbor returns the lowest of (x,y)'s 8 neighbors and its height,
// the descent step hydraulic erosion's droplet walk repeats until it hits
// a local minimum.
func lowestNeighbor(h *grid.PartialMap[int32], x, y int) (shape.Coord, int32) {
	best := shape.Coord{X: x, Y: y}
	bestHeight := int32(1 << 30)
	for _, row := range h.PixelNeighborsCoords(x, y, 1) {
		for _, c := range row {
			v := h.At(c.X, c.Y)
			if v < bestHeight {
				bestHeight = v
				best = c
			}
		}
	}
	return best, bestHeight
}

// erodeDroplet redistributes sediment along a traced descent path: cells
// steeper than their downstream capacity lose material, shallower ones
// gain it, and whatever's left at the end is deposited at the path's
// terminus (the "erode" step of hydraulic_erosion.rs).
func erodeDroplet(h *grid.PartialMap[int32], heights []int32, path []shape.Coord) {
	if len(heights) < 2 {
		return
	}
	sediment := float32(0)
	for i := 1; i < len(heights)-1; i++ {
		capacity := float32(heights[i-1]-heights[i]) * 4
		slope := float32(heights[i] - heights[i+1])
		c := path[i]
		if slope*0.2+sediment >= capacity {
			h.Set(c.X, c.Y, h.At(c.X, c.Y)+int32(slope*0.2+sediment-capacity))
			sediment = capacity
		} else {
			sediment += slope * 0.2
			h.Set(c.X, c.Y, h.At(c.X, c.Y)-int32(slope*0.2))
		}
	}
	last := path[len(path)-1]
	h.Set(last.X, last.Y, h.At(last.X, last.Y)+int32(sediment))
}

// dropletAt traces one water droplet's descent from (x0,y0)'s lowest
// neighbor until it reaches a local minimum or drops below -5 (already
// deep ocean, not worth eroding further), then erodes along that path.
func dropletAt(h *grid.PartialMap[int32], x0, y0 int) {
	pos, height := lowestNeighbor(h, x0, y0)
	if height < -5 {
		return
	}
	var heights []int32
	var path []shape.Coord
	prev := int32(1 << 30)
	for {
		pos, height = lowestNeighbor(h, pos.X, pos.Y)
		path = append(path, pos)
		heights = append(heights, height)
		if height == prev || height < -5 {
			break
		}
		prev = height
	}
	erodeDroplet(h, heights, path)
}

// HydraulicErosion runs iterations full passes of the droplet-descent
// erosion model over every interior cell (skipping a 3-cell border so
// PixelNeighborsCoords never has to special-case the map edge on a Flat
// shape), each pass visiting cells in a 10x10 stride pattern the way
// hydraulic_erosion.rs's apply() does.
func HydraulicErosion(iterations uint32) world.Stage {
	return world.StageFunc("hydraulic_erosion", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		h := w.Height.Clone()
		height := h.Height()
		for iter := uint32(0); iter < iterations; iter++ {
			for r1 := 0; r1 < 10; r1++ {
				for r2 := 0; r2 < 10; r2++ {
					for x := 3; x < height-3; x++ {
						row := h.RowWidth(x)
						for y := 3; y < row-3; y++ {
							if x%10 == r1 && y%10 == r2 {
								dropletAt(h, x, y)
							}
						}
					}
				}
			}
		}
		out.Height = h
		return out, nil
	})
}

// smoothPlateID resolves ties in a doubled plate-id grid by majority vote
// over the 4 corners of the old 3x3 neighborhood (now the new cell's
// immediate diagonal neighbors): if opposite corners agree, take their
// value; otherwise keep the center, matching resize.rs's smooth_plates
// pass run twice after doubling.
func smoothPlateID(m *grid.PartialMap[world.PlateID]) *grid.PartialMap[world.PlateID] {
	out := grid.New[world.PlateID](m.Shape)
	grid.ApplyParallel(out, m, func(x, y int, input *grid.PartialMap[world.PlateID]) world.PlateID {
		block := input.PixelNeighborsCoords(x, y, 1)
		if len(block) < 3 || len(block[0]) < 3 || len(block[2]) < 3 {
			return input.At(x, y)
		}
		nw := input.At(block[0][0].X, block[0][0].Y)
		se := input.At(block[2][2].X, block[2][2].Y)
		if nw == se {
			return nw
		}
		ne := input.At(block[0][2].X, block[0][2].Y)
		sw := input.At(block[2][0].X, block[2][0].Y)
		if ne == sw {
			return ne
		}
		return input.At(x, y)
	})
	return out
}

// Smooth box-means height over a pixel_distance neighborhood (smooth.rs's
// Smooth), the gentler uniform blur AddMountains/percentile-shaping
// rounds use to settle jagged noise without touching the water-level
// invariant (it runs before the final percentile re-adjustment, which
// restores any drift at the extremes).
func Smooth(pixelDistance int) world.Stage {
	return world.HeightStage("smooth", func(x, y int, input *world.World) int32 {
		var sum, n int32
		for _, row := range input.Height.PixelNeighborsCoords(x, y, pixelDistance) {
			for _, c := range row {
				sum += input.Height.At(c.X, c.Y)
				n++
			}
		}
		return sum / n
	})
}

// SmoothOcean box-means height over a wider neighborhood but only for
// cells already at or below sea level, and clamps the result back to <=0
// (smooth.rs's SmoothOcean), used right after a Resize to settle the
// newly-interpolated ocean floor without disturbing land.
func SmoothOcean(pixelDistance int) world.Stage {
	return world.HeightStage("smooth_ocean", func(x, y int, input *world.World) int32 {
		h := input.Height.At(x, y)
		if h > 0 {
			return h
		}
		var sum, n int32
		for _, row := range input.Height.PixelNeighborsCoords(x, y, pixelDistance) {
			for _, c := range row {
				sum += input.Height.At(c.X, c.Y)
				n++
			}
		}
		mean := sum / n
		if mean > 0 {
			return 0
		}
		return mean
	})
}

// TranslationNoise warps height by resampling each cell from a
// noise-displaced (lat,lon) rather than perturbing the value directly:
// four octaves of paired lat/lon noise fields (translation_noise.rs)
// shift the sample point before reading the current height, giving
// coastlines and mountain ranges an organic wobble that plain additive
// noise doesn't.
func TranslationNoise(seed uint32) world.Stage {
	type pair struct{ lat, lon *noise.Field }
	octaves := []pair{
		{noise.New(uint64(seed), 0, 6, 5), noise.New(uint64(seed)+1, 0, 6, 5)},
		{noise.New(uint64(seed), 0, 12, 3), noise.New(uint64(seed)+1, 0, 12, 3)},
		{noise.New(uint64(seed), 0, 24, 2), noise.New(uint64(seed)+1, 0, 24, 2)},
		{noise.New(uint64(seed), 0, 48, 1), noise.New(uint64(seed)+1, 0, 48, 1)},
	}
	return world.HeightStage("translation_noise", func(x, y int, input *world.World) int32 {
		here := input.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
		var dLat, dLon float32
		for _, o := range octaves {
			dLat += o.lat.Sample(input.Shape, here, 0.5)
			dLon += o.lon.Sample(input.Shape, here, 0.5)
		}
		return input.Height.Get(shape.LatLon{Lat: here.Lat + dLat, Lon: here.Lon + dLon})
	})
}

// Resize doubles the grid's linear dimensions (spec.md 4.F "Resize"),
// rebuilding Height via even-row direct sampling plus odd-row averaging
// of the two vertical neighbors, and TectonicPlates via direct resampling
// followed by two majority-vote smoothing passes so plate boundaries
// survive the doubling cleanly. Vector features (chains, rivers,
// hotspots) are stored in resolution-independent lat/lon here rather than
// pixel space, so unlike resize.rs's resize_chains/resize_rivers they
// need no rescaling at all.
func Resize() world.Stage {
	return world.StageFunc("resize", func(_ context.Context, w *world.World) (*world.World, error) {
		newShape := shape.New(w.Shape.Kind(), w.Shape.Circumference()*2, w.Shape.Height()*2)

		newHeight := grid.New[int32](newShape)
		for x := 0; x < newHeight.Height(); x++ {
			row := newHeight.Row(x)
			if x%2 == 0 {
				x0 := x / 2
				for y := range row {
					y0 := y * w.Height.RowWidth(x0) / len(row)
					row[y] = w.Height.At(x0, y0)
				}
				continue
			}
			// Odd rows average the corresponding cell in the rows above
			// and below, which resize has already filled (even rows are
			// computed first because the outer x loop runs in order).
			above := newHeight.Row(x - 1)
			var below []int32
			if x+1 < newHeight.Height() {
				x0 := (x + 1) / 2
				below = make([]int32, w.Height.RowWidth(x0))
				for y0 := range below {
					below[y0] = w.Height.At(x0, y0)
				}
			}
			for y := range row {
				up := above[y*len(above)/len(row)]
				if below == nil {
					row[y] = up
					continue
				}
				down := below[y*len(below)/len(row)]
				row[y] = (up + down) / 2
			}
		}

		newPlates := grid.New[world.PlateID](newShape)
		grid.ApplyParallel(newPlates, w, func(x, y int, input *world.World) world.PlateID {
			x0 := x / 2
			y0 := y * input.TectonicPlates.RowWidth(x0) / newPlates.RowWidth(x)
			return input.TectonicPlates.At(x0, y0)
		})
		newPlates = smoothPlateID(newPlates)
		newPlates = smoothPlateID(newPlates)

		out := world.New(newShape, w.Months)
		out.Height = newHeight
		out.TectonicPlates = newPlates
		out.PlateDirections = append([]world.Vec2(nil), w.PlateDirections...)
		out.PlateCenters = append([]shape.LatLon(nil), w.PlateCenters...)
		out.OceanicPlates = w.OceanicPlates
		out.TectonicEdges = w.TectonicEdges
		out.MountainChains = w.MountainChains
		out.AndeanChains = w.AndeanChains
		out.HymalayanChains = w.HymalayanChains
		out.Trenches = w.Trenches
		out.Hotspots = w.Hotspots
		out.Rivers = w.Rivers
		return out, nil
	})
}

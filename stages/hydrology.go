package stages

import (
	"context"

	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/noise"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// AnnualPrecipitation sums the monthly precipitation fields, rescaled to
// a 12-month year regardless of how many months the World actually
// carries, then runs two box-mean smoothing passes (annual_precipitation.rs's
// CalculateAnnualPrecipitation + two SmoothPrecipitation applications).
func AnnualPrecipitation() world.Stage {
	return world.StageFunc("annual_precipitation", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		total := grid.New[int32](w.Shape)
		grid.ApplyParallel(total, w, func(x, y int, input *world.World) int32 {
			var sum int32
			for _, p := range input.Precipitation {
				sum += p.At(x, y)
			}
			return sum * 12 / int32(len(input.Precipitation))
		})
		total = smoothI32(total, 2)
		total = smoothI32(total, 2)
		out.AnnualPrecipitation = total
		return out, nil
	})
}

// isSummer reports whether month m (0-indexed out of months) falls in
// the summer half of the year at latitude lat -- the same
// hemisphere/quarter-offset test climate.rs and vegetation.rs both use
// to split monthly series into summer/winter halves.
func isSummer(lat float32, m, months int) bool {
	northSummer := m < months/4 || m >= 3*months/4
	return (lat < 0) != northSummer
}

type seasonSums struct {
	maxTemperature, minTemperature, avgTemperature   float32
	maxPrecipitation, minPrecipitation                int32
	summerPrecipitation, winterPrecipitation          int32
	monthsAbove10                                     int
}

func summarizeSeason(w *world.World, lat, lon float32) seasonSums {
	var s seasonSums
	s.maxTemperature, s.minTemperature = -999, 999
	s.maxPrecipitation, s.minPrecipitation = -999, 999
	here := shape.LatLon{Lat: lat, Lon: lon}
	months := len(w.Temperature)
	for i := 0; i < months; i++ {
		t := w.Temperature[i].Get(here)
		if t > s.maxTemperature {
			s.maxTemperature = t
		}
		if t < s.minTemperature {
			s.minTemperature = t
		}
		s.avgTemperature += t
		if t >= 10 {
			s.monthsAbove10++
		}

		p := w.Precipitation[i].Get(here)
		if p > s.maxPrecipitation {
			s.maxPrecipitation = p
		}
		if p < s.minPrecipitation {
			s.minPrecipitation = p
		}
		if isSummer(lat, i, months) {
			s.summerPrecipitation += p
		} else {
			s.winterPrecipitation += p
		}
	}
	s.avgTemperature /= float32(months)
	return s
}

// summerDriestMonth/summerWettestMonth/winterWettestMonth/winterDriestMonth
// scan the monthly precipitation series restricted to one half of the
// year, the building blocks climate.rs's get_swf uses to pick among the
// s/w/f (Mediterranean/monsoon/no-dry-season) precipitation patterns.
func summerDriestMonth(w *world.World, lat, lon float32) int32 {
	min := int32(9999)
	here := shape.LatLon{Lat: lat, Lon: lon}
	months := len(w.Precipitation)
	for i := 0; i < months; i++ {
		if !isSummer(lat, i, months) {
			continue
		}
		if p := w.Precipitation[i].Get(here); p < min {
			min = p
		}
	}
	return min
}

func summerWettestMonth(w *world.World, lat, lon float32) int32 {
	max := int32(-9999)
	here := shape.LatLon{Lat: lat, Lon: lon}
	months := len(w.Precipitation)
	for i := 0; i < months; i++ {
		if !isSummer(lat, i, months) {
			continue
		}
		if p := w.Precipitation[i].Get(here); p > max {
			max = p
		}
	}
	return max
}

func winterWettestMonth(w *world.World, lat, lon float32) int32 {
	max := int32(-9999)
	here := shape.LatLon{Lat: lat, Lon: lon}
	months := len(w.Precipitation)
	for i := 0; i < months; i++ {
		if isSummer(lat, i, months) {
			continue
		}
		if p := w.Precipitation[i].Get(here); p > max {
			max = p
		}
	}
	return max
}

func winterDriestMonth(w *world.World, lat, lon float32) int32 {
	min := int32(9999)
	here := shape.LatLon{Lat: lat, Lon: lon}
	months := len(w.Precipitation)
	for i := 0; i < months; i++ {
		if isSummer(lat, i, months) {
			continue
		}
		if p := w.Precipitation[i].Get(here); p < min {
			min = p
		}
	}
	return min
}

type swf int

const (
	swfS swf = iota // Mediterranean (dry summer)
	swfW             // monsoon (dry winter)
	swfF             // no pronounced dry season
)

func getSWF(w *world.World, lat, lon float32) swf {
	summerDry := summerDriestMonth(w, lat, lon)
	winterWet := winterWettestMonth(w, lat, lon)
	if summerDry < 30 && 3*summerDry < winterWet {
		return swfS
	}
	summerWet := summerWettestMonth(w, lat, lon)
	winterDry := winterDriestMonth(w, lat, lon)
	if winterDry*10 < summerWet {
		return swfW
	}
	return swfF
}

type abcd int

const (
	abcdA abcd = iota
	abcdB
	abcdC
	abcdD
)

func getABCD(s seasonSums, months int) abcd {
	if s.maxTemperature > 22 {
		return abcdA
	}
	switch {
	case s.monthsAbove10 >= months/3:
		return abcdB
	case s.monthsAbove10 >= months/12:
		return abcdC
	default:
		return abcdD
	}
}

// classifyCell implements climate.rs's process_climate_element: the
// Koppen-Geiger decision tree down to the 26 classes world.Climate
// names, with Glacier/Ocean as the height<=0 special case and
// ice.rs's "thin ice shelf near the poles" widening folded in as the
// max_temperature < -1 branch of the ocean case.
func classifyCell(w *world.World, x, y int) world.Climate {
	here := w.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
	s := summarizeSeason(w, here.Lat, here.Lon)
	months := len(w.Temperature)
	height := w.Height.At(x, y)
	annual := w.AnnualPrecipitation.At(x, y)

	switch {
	case height <= 0:
		if s.maxTemperature < -1 {
			return world.ClimateGlacier
		}
		return world.ClimateOcean
	case s.maxTemperature < 10:
		if s.maxTemperature > 1 {
			return world.ClimateDfc // Tundra folded into the nearest continental-D polar class
		}
		return world.ClimateGlacier
	case (float32(s.summerPrecipitation) >= 0.7*float32(annual) && annual <= int32(20*s.avgTemperature+280)) ||
		(float32(s.winterPrecipitation) >= 0.7*float32(annual) && annual < int32(20*s.avgTemperature)) ||
		annual < int32(20*s.avgTemperature+140):
		dry := (float32(s.summerPrecipitation) >= 0.7*float32(annual) && annual <= int32(10*s.avgTemperature+140)) ||
			(float32(s.winterPrecipitation) >= 0.7*float32(annual) && annual < int32(10*s.avgTemperature)) ||
			annual < int32(10*s.avgTemperature+70)
		hot := s.avgTemperature >= 18
		switch {
		case dry && hot:
			return world.ClimateBWh
		case dry:
			return world.ClimateBWk
		case hot:
			return world.ClimateBSh
		default:
			return world.ClimateBSk
		}
	case s.maxTemperature >= 10 && s.minTemperature <= -3:
		switch getABCD(s, months) {
		case abcdA:
			switch getSWF(w, here.Lat, here.Lon) {
			case swfF:
				return world.ClimateDfa
			case swfS:
				return world.ClimateDsa
			default:
				return world.ClimateDwa
			}
		case abcdB:
			switch getSWF(w, here.Lat, here.Lon) {
			case swfF:
				return world.ClimateDfb
			case swfS:
				return world.ClimateDsb
			default:
				return world.ClimateDwb
			}
		case abcdC:
			return world.ClimateDfc
		default:
			return world.ClimateDfd
		}
	case s.minTemperature >= 18:
		switch {
		case s.minPrecipitation >= 60:
			return world.ClimateAf
		case s.minPrecipitation < 60 && float32(s.minPrecipitation) > 100-float32(annual)/25:
			return world.ClimateAm
		default:
			return world.ClimateAw
		}
	case s.maxTemperature >= 10 && s.minTemperature > -3 && s.minTemperature < 18:
		switch getSWF(w, here.Lat, here.Lon) {
		case swfS:
			switch getABCD(s, months) {
			case abcdA:
				return world.ClimateCsa
			case abcdB:
				return world.ClimateCsb
			default:
				return world.ClimateCsc
			}
		case swfW:
			switch getABCD(s, months) {
			case abcdA:
				return world.ClimateCwa
			case abcdB:
				return world.ClimateCwb
			default:
				return world.ClimateCwc
			}
		default:
			switch getABCD(s, months) {
			case abcdA:
				return world.ClimateCfa
			case abcdB:
				return world.ClimateCfb
			default:
				return world.ClimateCfc
			}
		}
	default:
		return world.ClimateUndefined
	}
}

// DefineKoppenClimate classifies every cell into a world.Climate.
func DefineKoppenClimate() world.Stage {
	return world.StageFunc("koppen_climate", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		field := grid.New[world.Climate](w.Shape)
		grid.ApplyParallel(field, w, func(x, y int, input *world.World) world.Climate {
			return classifyCell(input, x, y)
		})
		out.Climate = field
		return out, nil
	})
}

// Vegetation scores canopy/ground-cover density 0..1000+noise from an
// aridity index derived from the annual precipitation/temperature
// balance (vegetation.rs): deserts and ice score zero, everywhere else
// starts from 1000 and is reduced by how far precipitation falls short
// of what the season's temperature would need to stay lush.
func Vegetation(seed uint64) world.Stage {
	n := noise.New(seed, 100, 100, 10)
	return world.StageFunc("vegetation", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		field := grid.New[int32](w.Shape)
		grid.ApplyParallel(field, w, func(x, y int, input *world.World) int32 {
			climate := input.Climate.At(x, y)
			switch climate {
			case world.ClimateBWh, world.ClimateBWk, world.ClimateOcean, world.ClimateGlacier:
				return 0
			}
			here := input.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
			s := summarizeSeason(input, here.Lat, here.Lon)
			annual := input.AnnualPrecipitation.At(x, y)

			var aridity float32
			switch {
			case float32(s.summerPrecipitation) >= 0.7*float32(annual) || float32(s.winterPrecipitation) >= 0.7*float32(annual):
				aridity = (20*s.avgTemperature + 300) - float32(annual)
			case float32(s.summerPrecipitation) >= 0.6*float32(annual) || float32(s.winterPrecipitation) >= 0.6*float32(annual):
				aridity = (20*s.avgTemperature + 225) - float32(annual)
			default:
				aridity = (20*s.avgTemperature + 150) - float32(annual)
			}

			noiseValue := int32(n.Sample(input.Shape, here, 1))
			if aridity > 0 {
				v := 1000 - int32(4*aridity) + noiseValue
				if v < 0 {
					v = 0
				}
				return v
			}
			return 1000
		})
		out.VegetationDensity = field
		return out, nil
	})
}

// DefineCoastline recomputes the set of ocean cells directly adjacent to
// land (define_coastlines.rs). Any stage that changes Height invalidates
// this set, so StandardRecipe runs it as its final stage, after every
// height-changing stage (including CreateRivers' erosion).
func DefineCoastline() world.Stage {
	return world.StageFunc("define_coastline", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		coastline := map[shape.Coord]bool{}
		w.Height.ForEach(func(x, y int, h int32) {
			if h > 0 {
				return
			}
			for _, row := range w.Height.PixelNeighborsCoords(x, y, 1) {
				for _, nc := range row {
					if w.Height.At(nc.X, nc.Y) > 0 {
						coastline[shape.Coord{X: x, Y: y}] = true
					}
				}
			}
		})
		out.Coastline = coastline
		return out, nil
	})
}

func containsPoint(river world.RiverPath, pos shape.Coord) bool {
	for _, p := range river {
		if p.Pos == pos {
			return true
		}
	}
	return false
}

// getNextPosition finds the lowest-height cell in growing neighbor rings
// around position (rivers.rs's get_next_position), the steepest-descent
// step every river walk takes.
func getNextPosition(h *grid.PartialMap[int32], position shape.Coord) (shape.Coord, world.Vec2) {
	next := shape.Coord{}
	var dir world.Vec2
	for distance := 1; distance < 10; distance++ {
		minimum := int32(1 << 30)
		for i, row := range h.PixelNeighborsCoords(position.X, position.Y, distance) {
			for j, nc := range row {
				v := h.At(nc.X, nc.Y)
				if v <= minimum {
					minimum = v
					dir = world.Vec2{DLat: float32(i - distance), DLon: float32(j - distance)}
					next = nc
				}
			}
		}
		if next != (shape.Coord{}) && next != position {
			break
		}
	}
	return next, dir
}

// shortcutRiver drops intermediate points a river's own path loops back
// near, the same cut rivers.rs's shortcut performs before a traced path
// is accepted, so a river doesn't visibly double back on itself.
func shortcutRiver(heights *grid.PartialMap[int32], river world.RiverPath) world.RiverPath {
	var out world.RiverPath
	i := 0
	for i < len(river) {
		point1 := river[i]
		out = append(out, point1)
		for j := i + 3; j < len(river); j++ {
			point2 := river[j]
			found := false
			for _, row := range heights.PixelNeighborsCoords(point1.Pos.X, point1.Pos.Y, 2) {
				for _, nc := range row {
					if nc != point1.Pos && nc == point2.Pos {
						i = j - 1
						found = true
						break
					}
				}
				if found {
					break
				}
			}
			if found {
				break
			}
		}
		i++
	}
	return out
}

// traceRiver walks from start along steepest descent, raising the
// working height copy under each visited cell by 20 so the walk never
// immediately backtracks (rivers.rs's make_river), terminating at sea
// level, at a join with an existing river, or after reaching a local
// minimum with nowhere lower to go.
func traceRiver(w *world.World, start shape.Coord) world.RiverPath {
	var river world.RiverPath
	tmpHeight := w.Height.Clone()
	position := start
	for {
		tmpHeight.Set(position.X, position.Y, tmpHeight.At(position.X, position.Y)+20)
		if tmpHeight.At(position.X, position.Y) < 0 {
			return river
		}
		next, dir := getNextPosition(tmpHeight, position)
		river = append(river, world.RiverPoint{Pos: position, Volume: 1, Direction: dir})
		switch {
		case next == position:
			return river
		case next == (shape.Coord{}):
			return nil
		case tmpHeight.At(next.X, next.Y) <= 0:
			river = append(river, world.RiverPoint{Pos: next, Volume: 1, Direction: dir})
			return river
		}
		for _, row := range w.Height.PixelNeighborsCoords(position.X, position.Y, 1) {
			for _, nc := range row {
				if w.Freshwater[nc] && !containsPoint(river, nc) {
					river = append(river, world.RiverPoint{Pos: nc, Volume: 1, Direction: dir})
					return river
				}
			}
		}
		position = next
	}
}

func erodeRiver(h *grid.PartialMap[int32], river world.RiverPath) {
	if len(river) < 2 {
		return
	}
	cap := int32(99990)
	for _, rp := range river[:len(river)-2] {
		v := h.At(rp.Pos.X, rp.Pos.Y) - 5
		if v < 1 {
			v = 1
		}
		v = int32(0.96 * float32(v))
		if v > cap {
			v = cap
		}
		h.Set(rp.Pos.X, rp.Pos.Y, v)
		if v < cap {
			cap = v
		}
		for _, row := range h.PixelNeighborsCoords(rp.Pos.X, rp.Pos.Y, 1) {
			for _, nc := range row {
				nv := int32(float32(h.At(nc.X, nc.Y)) * 0.95)
				if nv < 1 {
					nv = 1
				}
				h.Set(nc.X, nc.Y, nv)
			}
		}
	}
}

// riverStartPoints samples a sparse 15-cell lattice over the annual
// precipitation field and picks high-precipitation, warm-enough,
// sufficiently elevated cells as river sources in two decreasing
// elevation passes, blanking a 5-6 cell radius around each pick so
// sources don't cluster (rivers.rs's get_start_points_from_precipitation).
func riverStartPoints(w *world.World) []shape.Coord {
	var points []shape.Coord
	precip := w.AnnualPrecipitation.Clone()
	half := len(w.Temperature) / 2

	tryPick := func(minHeight, minPrecip int32, blankRadius int) {
		for x := 0; x < precip.Height(); x++ {
			width := precip.RowWidth(x)
			for y := 0; y < width; y++ {
				if x%15 != 0 || y%15 != 0 {
					continue
				}
				if precip.At(x, y) <= minPrecip {
					continue
				}
				height := w.Height.At(x, y)
				if height <= minHeight {
					continue
				}
				here := precip.CellToLatLon(shape.Coord{X: x, Y: y})
				maxTemp := w.Temperature[0].Get(here)
				if t := w.Temperature[half].Get(here); t > maxTemp {
					maxTemp = t
				}
				if maxTemp <= 0 {
					continue
				}
				points = append(points, shape.Coord{X: x, Y: y})
				for _, row := range precip.PixelNeighborsCoords(x, y, blankRadius) {
					for _, nc := range row {
						precip.Set(nc.X, nc.Y, 0)
					}
				}
			}
		}
	}
	tryPick(500, 500, 6)
	tryPick(0, 1000, 6)
	tryPick(100, 500, 5)
	return points
}

// CreateRivers traces riverStartPoints downhill to the sea or to an
// existing river, discarding walks shorter than 3 points, then shortens
// and erodes each accepted path (rivers.rs's CreateRivers).
func CreateRivers() world.Stage {
	return world.StageFunc("create_rivers", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		h := w.Height.Clone()
		freshwater := map[shape.Coord]bool{}
		for k, v := range w.Freshwater {
			freshwater[k] = v
		}
		var rivers []world.RiverPath

		working := w.Clone()
		working.Height = h
		working.Freshwater = freshwater

	startPoints:
		for _, start := range riverStartPoints(working) {
			if h.At(start.X, start.Y) <= 0 {
				continue
			}
			for _, river := range rivers {
				for _, row := range h.PixelNeighborsCoords(start.X, start.Y, 5) {
					for _, nc := range row {
						if containsPoint(river, nc) {
							continue startPoints
						}
					}
				}
			}
			river := traceRiver(working, start)
			if len(river) < 3 {
				continue
			}
			river = shortcutRiver(h, river)
			for _, rp := range river {
				freshwater[rp.Pos] = true
			}
			erodeRiver(h, river)
			rivers = append(rivers, river)
		}

		out.Height = h
		out.Freshwater = freshwater
		out.Rivers = rivers
		return out, nil
	})
}

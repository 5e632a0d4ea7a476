package shape

import "math"

// Flat clips both latitude and longitude: a plain rectangle with no wrap.
type Flat struct {
	circumference, height int
	rows                   []int
}

func NewFlat(circumference, height int) *Flat {
	rows := make([]int, height)
	for y := range rows {
		rows[y] = circumference
	}
	return &Flat{circumference: circumference, height: height, rows: rows}
}

func (f *Flat) Kind() Kind         { return KindFlat }
func (f *Flat) Circumference() int { return f.circumference }
func (f *Flat) Height() int        { return f.height }
func (f *Flat) Rows() []int        { return f.rows }

func (f *Flat) Distance(p1, p2 LatLon) float32 {
	dlat := float64(p1.Lat - p2.Lat)
	dlon := float64(p1.Lon - p2.Lon)
	return float32(math.Hypot(dlat, dlon))
}

func (f *Flat) ToXYZ(p LatLon) [3]float32 {
	return [3]float32{p.Lon / 180, p.Lat / 90, 0}
}

func (f *Flat) LatLonToCell(p LatLon) Coord {
	lat := clampF(p.Lat, -90, 90)
	lon := clampF(p.Lon, -180, 180)
	yf := (90 - float64(lat)) / 180 * float64(f.height-1)
	y := clamp(int(math.Round(yf)), 0, f.height-1)
	xf := (float64(lon) + 180) / 360 * float64(f.circumference)
	x := clamp(int(math.Round(xf)), 0, f.circumference-1)
	return Coord{X: y, Y: x}
}

func (f *Flat) CellToLatLon(c Coord) LatLon {
	y := clamp(c.X, 0, f.height-1)
	x := clamp(c.Y, 0, f.circumference-1)
	lat := 90 - float64(y)/float64(f.height-1)*180
	lon := float64(x)/float64(f.circumference)*360 - 180
	return LatLon{Lat: float32(lat), Lon: float32(lon)}
}

// PixelNeighborsCoords clips at the edges rather than wrapping: cells
// outside the map are simply absent from the block's edge rows/columns.
func (f *Flat) PixelNeighborsCoords(x, y, radius int) [][]Coord {
	out := make([][]Coord, 0, 2*radius+1)
	for dx := -radius; dx <= radius; dx++ {
		row := x + dx
		if row < 0 || row >= f.height {
			continue
		}
		line := make([]Coord, 0, 2*radius+1)
		for dy := -radius; dy <= radius; dy++ {
			col := y + dy
			if col < 0 || col >= f.circumference {
				continue
			}
			line = append(line, Coord{X: row, Y: col})
		}
		out = append(out, line)
	}
	return out
}

func (f *Flat) RandomPoints(n int, rng Rand) []LatLon {
	pts := make([]LatLon, n)
	for i := range pts {
		lat := float32(rng.Float64()*180 - 90)
		lon := float32(rng.Float64()*360 - 180)
		pts[i] = LatLon{Lat: lat, Lon: lon}
	}
	return pts
}

func (f *Flat) RandomPointsFromSeed(seed uint64, n int) []LatLon {
	hs := hashStream{seed: seed}
	pts := make([]LatLon, n)
	for i := 0; i < n; i++ {
		u := hs.float64At(uint64(i) * 2)
		v := hs.float64At(uint64(i)*2 + 1)
		pts[i] = LatLon{Lat: float32(u*180 - 90), Lon: float32(v*360 - 180)}
	}
	return pts
}

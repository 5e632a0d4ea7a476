package shape

import "math"

// Cylinder wraps longitude onto a circle and clips latitude. Every row has
// the same width, the map's circumference.
type Cylinder struct {
	circumference, height int
	rows                   []int
}

func NewCylinder(circumference, height int) *Cylinder {
	rows := make([]int, height)
	for y := range rows {
		rows[y] = circumference
	}
	return &Cylinder{circumference: circumference, height: height, rows: rows}
}

func (c *Cylinder) Kind() Kind         { return KindCylinder }
func (c *Cylinder) Circumference() int { return c.circumference }
func (c *Cylinder) Height() int        { return c.height }
func (c *Cylinder) Rows() []int        { return c.rows }

// Distance is Euclidean in (lat, lon) with longitude wrap taking the
// shorter way around.
func (c *Cylinder) Distance(p1, p2 LatLon) float32 {
	dlat := float64(p1.Lat - p2.Lat)
	dlon := float64(wrapLon(p1.Lon - p2.Lon))
	return float32(math.Hypot(dlat, dlon))
}

func (c *Cylinder) ToXYZ(p LatLon) [3]float32 {
	lon := deg2rad(p.Lon)
	return [3]float32{float32(math.Cos(lon)), float32(math.Sin(lon)), p.Lat / 90}
}

func (c *Cylinder) LatLonToCell(p LatLon) Coord {
	lat := clampF(p.Lat, -90, 90)
	yf := (90 - float64(lat)) / 180 * float64(c.height-1)
	y := clamp(int(math.Round(yf)), 0, c.height-1)
	lon := wrapLon(p.Lon)
	xf := (float64(lon) + 180) / 360 * float64(c.circumference)
	x := wrapMod(int(math.Round(xf)), c.circumference)
	return Coord{X: y, Y: x}
}

func (c *Cylinder) CellToLatLon(co Coord) LatLon {
	y := clamp(co.X, 0, c.height-1)
	lat := 90 - float64(y)/float64(c.height-1)*180
	col := wrapMod(co.Y, c.circumference)
	lon := float64(col)/float64(c.circumference)*360 - 180
	return LatLon{Lat: float32(lat), Lon: float32(lon)}
}

func (c *Cylinder) PixelNeighborsCoords(x, y, radius int) [][]Coord {
	out := make([][]Coord, 2*radius+1)
	for dx := -radius; dx <= radius; dx++ {
		row := clamp(x+dx, 0, c.height-1)
		line := make([]Coord, 2*radius+1)
		for dy := -radius; dy <= radius; dy++ {
			line[dy+radius] = Coord{X: row, Y: wrapMod(y+dy, c.circumference)}
		}
		out[dx+radius] = line
	}
	return out
}

func (c *Cylinder) RandomPoints(n int, rng Rand) []LatLon {
	pts := make([]LatLon, n)
	for i := range pts {
		lat := float32(rng.Float64()*180 - 90)
		lon := float32(rng.Float64()*360 - 180)
		pts[i] = LatLon{Lat: lat, Lon: lon}
	}
	return pts
}

func (c *Cylinder) RandomPointsFromSeed(seed uint64, n int) []LatLon {
	hs := hashStream{seed: seed}
	pts := make([]LatLon, n)
	for i := 0; i < n; i++ {
		u := hs.float64At(uint64(i) * 2)
		v := hs.float64At(uint64(i)*2 + 1)
		pts[i] = LatLon{Lat: float32(u*180 - 90), Lon: float32(v*360 - 180)}
	}
	return pts
}

package shape

import "math"

// Globe is a full sphere. Row width shrinks toward the poles so that
// cells keep roughly equal solid angle: for the northern half rows[y] = 1 +
// ceil(2*C/H * sqrt((H/2)^2 - (y-H/2)^2)), and the southern half mirrors
// it (rows[H-1-y] == rows[y]), so both pole rows have width 1.
type Globe struct {
	circumference, height int
	rows                   []int
}

// NewGlobe builds a Globe shape and precomputes its variable-width rows.
func NewGlobe(circumference, height int) *Globe {
	g := &Globe{circumference: circumference, height: height}
	g.rows = make([]int, height)
	h := float64(height)
	c := float64(circumference)
	for y := 0; y < height; y++ {
		yy := y
		if m := height - 1 - y; m < yy {
			yy = m
		}
		dy := float64(yy) - h/2
		under := (h/2)*(h/2) - dy*dy
		if under < 0 {
			under = 0
		}
		w := 1 + int(math.Ceil(2*c/h*math.Sqrt(under)))
		if w < 1 {
			w = 1
		}
		if w > circumference {
			w = circumference
		}
		g.rows[y] = w
	}
	return g
}

func (g *Globe) Kind() Kind            { return KindGlobe }
func (g *Globe) Circumference() int    { return g.circumference }
func (g *Globe) Height() int           { return g.height }
func (g *Globe) Rows() []int           { return g.rows }

// Distance is great-circle (haversine) distance on a unit sphere.
func (g *Globe) Distance(p1, p2 LatLon) float32 {
	lat1, lon1 := deg2rad(p1.Lat), deg2rad(p1.Lon)
	lat2, lon2 := deg2rad(p2.Lat), deg2rad(p2.Lon)
	dlat := lat2 - lat1
	dlon := lon2 - lon1
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return float32(c)
}

func (g *Globe) ToXYZ(p LatLon) [3]float32 {
	lat, lon := deg2rad(p.Lat), deg2rad(p.Lon)
	x := math.Cos(lat) * math.Cos(lon)
	y := math.Cos(lat) * math.Sin(lon)
	z := math.Sin(lat)
	return [3]float32{float32(x), float32(y), float32(z)}
}

func (g *Globe) LatLonToCell(p LatLon) Coord {
	lat := clampF(p.Lat, -90, 90)
	// y=0 is the north pole row, y=height-1 the south pole row.
	yf := (90 - float64(lat)) / 180 * float64(g.height-1)
	y := clamp(int(math.Round(yf)), 0, g.height-1)
	w := g.rows[y]
	lon := wrapLon(p.Lon)
	xf := (float64(lon) + 180) / 360 * float64(w)
	x := wrapMod(int(math.Round(xf)), w)
	return Coord{X: y, Y: x}
}

// CellToLatLon is the inverse of LatLonToCell. Note: per this codebase's
// (x=row, y=column) convention, c.X is the row (latitude) index and c.Y
// is the column (longitude) index.
func (g *Globe) CellToLatLon(c Coord) LatLon {
	y := clamp(c.X, 0, g.height-1)
	w := g.rows[y]
	lat := 90 - float64(y)/float64(g.height-1)*180
	col := wrapMod(c.Y, w)
	lon := float64(col)/float64(w)*360 - 180
	return LatLon{Lat: float32(lat), Lon: float32(lon)}
}

// PixelNeighborsCoords returns the rectangular block of coordinates
// around (x,y), wrapping longitude and rescaling columns between rows of
// different width, and clamping the row index at the poles.
func (g *Globe) PixelNeighborsCoords(x, y, radius int) [][]Coord {
	w0 := g.rows[clamp(x, 0, g.height-1)]
	out := make([][]Coord, 2*radius+1)
	for dx := -radius; dx <= radius; dx++ {
		row := clamp(x+dx, 0, g.height-1)
		w1 := g.rows[row]
		y0 := rescaleColumn(y, w0, w1)
		line := make([]Coord, 2*radius+1)
		for dy := -radius; dy <= radius; dy++ {
			line[dy+radius] = Coord{X: row, Y: wrapMod(y0+dy, w1)}
		}
		out[dx+radius] = line
	}
	return out
}

func (g *Globe) RandomPoints(n int, rng Rand) []LatLon {
	pts := make([]LatLon, n)
	for i := range pts {
		lat := math.Asin(2*rng.Float64()-1) * 180 / math.Pi
		lon := (rng.Float64()*2 - 1) * 180
		pts[i] = LatLon{Lat: float32(lat), Lon: float32(lon)}
	}
	return pts
}

func (g *Globe) RandomPointsFromSeed(seed uint64, n int) []LatLon {
	hs := hashStream{seed: seed}
	pts := make([]LatLon, n)
	for i := 0; i < n; i++ {
		u := hs.float64At(uint64(i) * 2)
		v := hs.float64At(uint64(i)*2 + 1)
		lat := math.Asin(2*u-1) * 180 / math.Pi
		lon := (v*2 - 1) * 180
		pts[i] = LatLon{Lat: float32(lat), Lon: float32(lon)}
	}
	return pts
}

func deg2rad(d float32) float64 { return float64(d) * math.Pi / 180 }

func wrapLon(lon float32) float32 {
	l := float64(lon)
	for l < -180 {
		l += 360
	}
	for l >= 180 {
		l -= 360
	}
	return float32(l)
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

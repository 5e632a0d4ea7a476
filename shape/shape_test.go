package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobePoleRowWidthIsOne(t *testing.T) {
	g := NewGlobe(400, 200)
	rows := g.Rows()
	assert.Equal(t, 1, rows[0], "north pole row should have width 1")
	assert.Equal(t, 1, rows[len(rows)-1], "south pole row should have width 1")
}

func TestGlobePixelNeighborsNeverPanicsAtPoles(t *testing.T) {
	g := NewGlobe(400, 200)
	require.NotPanics(t, func() {
		_ = g.PixelNeighborsCoords(0, 0, 3)
		_ = g.PixelNeighborsCoords(g.Height()-1, 0, 3)
	})
}

func TestGlobeLongitudeWrap(t *testing.T) {
	g := NewGlobe(400, 200)
	for y := 0; y < g.Height(); y += 37 {
		lat := g.CellToLatLon(Coord{X: y, Y: 0}).Lat
		c1 := g.LatLonToCell(LatLon{Lat: lat, Lon: 179.999})
		c2 := g.LatLonToCell(LatLon{Lat: lat, Lon: -179.999})
		assert.Equal(t, c1, c2, "longitude 180 and -180 should map to the same cell")
	}
}

func TestCylinderWrap(t *testing.T) {
	c := NewCylinder(400, 200)
	for y := 0; y < c.Height(); y += 41 {
		lat := c.CellToLatLon(Coord{X: y, Y: 0}).Lat
		a := c.LatLonToCell(LatLon{Lat: lat, Lon: 180})
		b := c.LatLonToCell(LatLon{Lat: lat, Lon: -180})
		assert.Equal(t, a, b)
	}
}

func TestFlatClipsAtEdges(t *testing.T) {
	f := NewFlat(400, 200)
	n := f.PixelNeighborsCoords(0, 0, 2)
	for _, line := range n {
		for _, c := range line {
			assert.True(t, c.X >= 0 && c.X < f.Height())
			assert.True(t, c.Y >= 0 && c.Y < f.Circumference())
		}
	}
}

func TestRandomPointsFromSeedDeterministic(t *testing.T) {
	g := NewGlobe(400, 200)
	a := g.RandomPointsFromSeed(42, 12)
	b := g.RandomPointsFromSeed(42, 12)
	assert.Equal(t, a, b)
	c := g.RandomPointsFromSeed(43, 12)
	assert.NotEqual(t, a, c)
}

package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedrogalvao/worldgen/shape"
)

func TestSampleIsDeterministic(t *testing.T) {
	sh := shape.NewGlobe(64, 32)
	f := New(42, 7, 3.0, 100)
	p := shape.LatLon{Lat: 12, Lon: 34}
	assert.Equal(t, f.Sample(sh, p, 1), f.Sample(sh, p, 1))
}

func TestSampleScalesWithIntensity(t *testing.T) {
	sh := shape.NewGlobe(64, 32)
	lo := New(42, 7, 3.0, 1)
	hi := New(42, 7, 3.0, 10)
	p := shape.LatLon{Lat: 12, Lon: 34}
	assert.InDelta(t, float64(lo.Sample(sh, p, 1))*10, float64(hi.Sample(sh, p, 1)), 1e-3)
}

func TestDifferentSaltsDecorrelate(t *testing.T) {
	sh := shape.NewGlobe(64, 32)
	a := New(42, 1, 3.0, 100)
	b := New(42, 2, 3.0, 100)
	p := shape.LatLon{Lat: 12, Lon: 34}
	assert.NotEqual(t, a.Sample(sh, p, 1), b.Sample(sh, p, 1))
}

func TestSample3MatchesSampleAtUnitEmbedding(t *testing.T) {
	sh := shape.NewGlobe(64, 32)
	f := New(1, 1, 2.0, 50)
	p := shape.LatLon{Lat: 0, Lon: 0}
	xyz := sh.ToXYZ(p)
	assert.Equal(t, f.Sample(sh, p, 1), f.Sample3(xyz[0], xyz[1], xyz[2]))
}

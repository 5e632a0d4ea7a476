// Package noise provides the deterministic 3-D coherent scalar field used
// throughout the generation pipeline: domain warp for noisy Voronoi,
// per-plate mountain layers, translation/island noise, and vegetation
// texture. Sampling in 3-D (via shape.Shape.ToXYZ) rather than 2-D removes
// the polar wrap-around seam a 2-D (lat,lon) sample would have on a Globe.
package noise

import (
	"github.com/aquilax/go-perlin"

	"github.com/pedrogalvao/worldgen/shape"
)

// Field is a seeded, re-entrant coherent noise field. Every invocation of
// Sample for the same point returns the same value: Field carries no
// mutable state besides the underlying perlin tables, which are read-only
// once built.
type Field struct {
	p         *perlin.Perlin
	frequency float32
	intensity float32
}

// defaultAlpha/defaultBeta are the persistence/lacunarity-like parameters
// go-perlin uses to blend octaves; n is the octave count.
const (
	defaultAlpha = 2.0
	defaultBeta  = 2.0
	defaultOctaves = int32(3)
)

// New builds a Field seeded from seed plus a stage-unique salt, sampling
// at the given frequency (cycles across the unit sphere) and scaling
// output by intensity.
func New(seed uint64, salt uint64, frequency, intensity float32) *Field {
	s := int64(seed ^ (salt * 0x9E3779B97F4A7C15))
	return &Field{
		p:         perlin.NewPerlin(defaultAlpha, defaultBeta, defaultOctaves, s),
		frequency: frequency,
		intensity: intensity,
	}
}

// Sample returns the noise value at a geographic point, embedded in 3-D
// via sh.ToXYZ and scaled by radius*frequency before lookup.
func (f *Field) Sample(sh shape.Shape, p shape.LatLon, radius float32) float32 {
	xyz := sh.ToXYZ(p)
	x := float64(xyz[0]) * float64(radius) * float64(f.frequency)
	y := float64(xyz[1]) * float64(radius) * float64(f.frequency)
	z := float64(xyz[2]) * float64(radius) * float64(f.frequency)
	return float32(f.p.Noise3D(x, y, z)) * f.intensity
}

// Sample3 samples directly from an already-embedded 3-D point, for
// callers (e.g. domain warp) that build their own coordinate.
func (f *Field) Sample3(x, y, z float32) float32 {
	v := f.p.Noise3D(float64(x)*float64(f.frequency), float64(y)*float64(f.frequency), float64(z)*float64(f.frequency))
	return float32(v) * f.intensity
}

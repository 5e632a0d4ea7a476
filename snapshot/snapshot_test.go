package snapshot

import (
	"bytes"
	"testing"

	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

func buildTestWorld() *world.World {
	sh := shape.NewFlat(8, 6)
	w := world.New(sh, 12)
	for x := 0; x < w.Height.Height(); x++ {
		for y := 0; y < w.Height.RowWidth(x); y++ {
			w.Height.Set(x, y, int32(x*10+y))
		}
	}
	w.Coastline = map[shape.Coord]bool{
		{X: 1, Y: 1}: true,
		{X: 2, Y: 2}: true,
	}
	w.OceanicPlates[3] = true
	w.Rivers = append(w.Rivers, world.RiverPath{
		{Pos: shape.Coord{X: 0, Y: 0}, Volume: 1.5, Direction: world.Vec2{DLat: 0.1, DLon: -0.2}},
	})
	return w
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w := buildTestWorld()
	buf := bytes.NewBuffer(nil)
	if err := Save(buf, w); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(buf)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Shape.Circumference() != w.Shape.Circumference() || loaded.Shape.Height() != w.Shape.Height() {
		t.Fatalf("shape mismatch: got %dx%d, want %dx%d", loaded.Shape.Circumference(), loaded.Shape.Height(), w.Shape.Circumference(), w.Shape.Height())
	}
	for x := 0; x < w.Height.Height(); x++ {
		for y := 0; y < w.Height.RowWidth(x); y++ {
			if loaded.Height.At(x, y) != w.Height.At(x, y) {
				t.Fatalf("height mismatch at (%d,%d): got %d, want %d", x, y, loaded.Height.At(x, y), w.Height.At(x, y))
			}
		}
	}
	if !loaded.Coastline[shape.Coord{X: 1, Y: 1}] || !loaded.Coastline[shape.Coord{X: 2, Y: 2}] {
		t.Fatal("coastline set did not round-trip")
	}
	if !loaded.OceanicPlates[3] {
		t.Fatal("oceanic plate set did not round-trip")
	}
	if len(loaded.Rivers) != 1 || loaded.Rivers[0][0].Volume != 1.5 {
		t.Fatal("rivers did not round-trip")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(bytes.NewBufferString("not a gob stream")); err == nil {
		t.Fatal("expected an error decoding a non-gob stream")
	}
}

package stages

import (
	"context"

	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// diamondSquareHeight doubles h's linear dimensions the way
// diamond_square.rs's diamond_square does: each source cell spawns a
// 2x2 block whose corners are the source value, a "right" midpoint
// averaging the source, its row-neighbor and the central value, a "down"
// midpoint averaging the source, its column-neighbor and the central
// value, and a central value
// averaging all four of the source cell's von Neumann corners
// (current, right, down, right-down).
func diamondSquareHeight(h *grid.PartialMap[int32]) *grid.PartialMap[int32] {
	newShape := shape.New(h.Shape.Kind(), h.Shape.Circumference()*2, h.Shape.Height()*2)
	out := grid.New[int32](newShape)

	rowCount := h.Height()
	for i := 0; i < rowCount; i++ {
		width := h.RowWidth(i)
		topRow := out.Row(2 * i)
		botRow := out.Row(2*i + 1)
		for j := 0; j < width; j++ {
			below := i + 1
			if below > rowCount-1 {
				below = rowCount - 1
			}
			curr := h.At(i, j)
			right := h.At(i, (j+1)%width)
			down := h.At(below, j)
			rightDown := h.At(below, (j+1)%width)
			central := (curr + right + down + rightDown) / 4

			topIdx, botIdx := 2*j, 2*j
			if topIdx < len(topRow) {
				topRow[topIdx] = curr
			}
			if topIdx+1 < len(topRow) {
				topRow[topIdx+1] = (curr + right + central) / 3
			}
			if botIdx < len(botRow) {
				botRow[botIdx] = (curr + down + central) / 3
			}
			if botIdx+1 < len(botRow) {
				botRow[botIdx+1] = central
			}
		}
	}
	return out
}

// diamondSquarePlates doubles TectonicPlates by plain 2x2 replication
// (diamond_square.rs's diamond_square_usize -- plate ids have no
// meaningful "average", so each source cell is simply copied into its
// 2x2 block).
func diamondSquarePlates(m *grid.PartialMap[world.PlateID]) *grid.PartialMap[world.PlateID] {
	newShape := shape.New(m.Shape.Kind(), m.Shape.Circumference()*2, m.Shape.Height()*2)
	out := grid.New[world.PlateID](newShape)
	for i := 0; i < m.Height(); i++ {
		width := m.RowWidth(i)
		topRow := out.Row(2 * i)
		botRow := out.Row(2*i + 1)
		for j := 0; j < width; j++ {
			v := m.At(i, j)
			if 2*j < len(topRow) {
				topRow[2*j] = v
			}
			if 2*j+1 < len(topRow) {
				topRow[2*j+1] = v
			}
			if 2*j < len(botRow) {
				botRow[2*j] = v
			}
			if 2*j+1 < len(botRow) {
				botRow[2*j+1] = v
			}
		}
	}
	return out
}

// DiamondSquare is an alternate to Resize: it doubles Height and
// TectonicPlates via the diamond-square interpolation above instead of
// Resize's direct-sample-plus-average scheme. Not part of the default
// recipe; selectable in place of Resize for callers that want the
// rougher, more self-similar terrain the diamond-square refinement
// produces.
func DiamondSquare() world.Stage {
	return world.StageFunc("diamond_square", func(_ context.Context, w *world.World) (*world.World, error) {
		newHeight := diamondSquareHeight(w.Height)
		newPlates := diamondSquarePlates(w.TectonicPlates)

		out := world.New(newHeight.Shape, w.Months)
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

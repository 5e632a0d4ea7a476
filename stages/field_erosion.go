package stages

import (
	"context"

	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/world"
)

// flow4 holds the outgoing water flow across a cell's four edges, in
// up/right/down/left order, matching hydraulic_field_erosion.rs's
// `[f32; 4]` water_flow cell.
type flow4 [4]float32

// updateWaterFlow recomputes each interior cell's outflow toward its four
// neighbors, proportional to the height difference (capped at 0, water
// never flows uphill) and scaled down so a cell never sheds more water
// than it holds (hydraulic_field_erosion.rs's update_water_flow).
func updateWaterFlow(flowOut *grid.PartialMap[flow4], height *grid.PartialMap[int32], water *grid.PartialMap[float32]) {
	for x := 1; x < height.Height()-1; x++ {
		row := height.RowWidth(x)
		for y := 1; y < row-1; y++ {
			h := height.At(x, y)
			up := float32(h - height.At(x-1, y))
			down := float32(h - height.At(x+1, y))
			left := float32(h - height.At(x, y-1))
			right := float32(h - height.At(x, y+1))
			f := flow4{posPart(up) * 0.2, posPart(right) * 0.2, posPart(down) * 0.2, posPart(left) * 0.2}

			total := f[0] + f[1] + f[2] + f[3]
			if total > 0 {
				scale := water.At(x, y) / total
				if scale > 1 {
					scale = 1
				}
				f[0] *= scale
				f[1] *= scale
				f[2] *= scale
				f[3] *= scale
			}
			flowOut.Set(x, y, f)
		}
	}
}

func posPart(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}

// moveWater drains each cell's outgoing flow and credits the inflow
// arriving from its four neighbors' own outgoing flow
// (hydraulic_field_erosion.rs's move_water).
func moveWater(flowIn *grid.PartialMap[flow4], water *grid.PartialMap[float32]) {
	out := water.Clone()
	for x := 1; x < flowIn.Height()-1; x++ {
		row := flowIn.RowWidth(x)
		for y := 1; y < row-1; y++ {
			f := flowIn.At(x, y)
			v := out.At(x, y) - f[0] - f[1] - f[2] - f[3]
			v += flowIn.At(x-1, y)[2]
			v += flowIn.At(x+1, y)[0]
			v += flowIn.At(x, y-1)[1]
			v += flowIn.At(x, y+1)[3]
			out.Set(x, y, v)
		}
	}
	for x := 0; x < water.Height(); x++ {
		copy(water.Row(x), out.Row(x))
	}
}

// moveSediment carries suspended sediment along with the water flow:
// a cell loses sediment proportional to its outflow and gains sediment
// carried in by each neighbor's inflow (hydraulic_field_erosion.rs's
// move_sediment).
func moveSediment(flow *grid.PartialMap[flow4], sediment *grid.PartialMap[float32]) {
	out := sediment.Clone()
	for x := 1; x < flow.Height()-1; x++ {
		row := flow.RowWidth(x)
		for y := 1; y < row-1; y++ {
			f := flow.At(x, y)
			s := sediment.At(x, y)
			v := out.At(x, y) - (f[0]+f[1]+f[2]+f[3])*maxF32(s, 0)
			v += flow.At(x-1, y)[2] * maxF32(sediment.At(x-1, y), 0)
			v += flow.At(x+1, y)[0] * maxF32(sediment.At(x+1, y), 0)
			v += flow.At(x, y-1)[1] * maxF32(sediment.At(x, y-1), 0)
			v += flow.At(x, y+1)[3] * maxF32(sediment.At(x, y+1), 0)
			out.Set(x, y, v)
		}
	}
	for x := 0; x < sediment.Height(); x++ {
		copy(sediment.Row(x), out.Row(x))
	}
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// FieldErosion is the cellular-automaton counterpart to HydraulicErosion:
// instead of tracing individual droplet descent paths, it simulates a
// uniform rainfall over `passes` ticks of a shared water-flow field,
// carrying suspended sediment downhill and depositing it where flow
// converges (hydraulic_field_erosion.rs's hydraulic_erosion). It's
// cheaper per tick than droplet tracing, so the multi-resolution
// refinement loop (spec.md 4.F.5) uses it between doublings instead of
// the full HydraulicErosion pass, which runs at the base resolution and
// after the refinement rounds.
func FieldErosion(passes int, rainAmount float32) world.Stage {
	return world.StageFunc("field_erosion", func(_ context.Context, w *world.World) (*world.World, error) {
		out := w.Clone()
		h := w.Height.Clone()

		water := grid.New[float32](w.Shape)
		flow := grid.New[flow4](w.Shape)
		sediment := grid.New[float32](w.Shape)

		for pass := 0; pass < passes; pass++ {
			water.ForEach(func(x, y int, v float32) { water.Set(x, y, v+rainAmount) })
			updateWaterFlow(flow, h, water)
			moveWater(flow, water)
			moveSediment(flow, sediment)
		}

		// Net sediment balance settles onto the terrain: a cell that
		// accumulated sediment from its neighbors deposits height, one
		// that lost more than it gained is eroded down, matching the
		// droplet model's erode/deposit split in spirit.
		grid.ApplyParallel(h, sediment, func(x, y int, input *grid.PartialMap[float32]) int32 {
			return h.At(x, y) + int32(input.At(x, y))
		})

		out.Height = h
		return out, nil
	})
}

package world

import (
	"context"

	"github.com/pedrogalvao/worldgen/grid"
)

// Stage is a named World -> World transform. Most stages only need a
// per-cell height operator (ProcessCell); stages that aren't pointwise
// (resize, river tracing, plate assignment, anything with vector output)
// implement Apply directly, the same split the teacher draws between
// CellManipulator (per-cell) and DomainManipulator (whole-domain).
type Stage interface {
	Name() string
	Apply(ctx context.Context, w *World) (*World, error)
}

// CellHeightOp is the per-cell operator height-only stages publish, per
// spec.md 4.C: "process_cell(x, y, input) -> i32". HeightStage below
// adapts one of these into a full Stage by running it through
// ApplyParallel into a freshly allocated Height map.
type CellHeightOp func(x, y int, input *World) int32

// stageFunc adapts an arbitrary Apply closure into a Stage, mirroring how
// the teacher's run.go returns a bare closure typed as DomainManipulator
// rather than requiring every caller to define a named type.
type stageFunc struct {
	name string
	fn   func(ctx context.Context, w *World) (*World, error)
}

func (s *stageFunc) Name() string { return s.name }
func (s *stageFunc) Apply(ctx context.Context, w *World) (*World, error) {
	return s.fn(ctx, w)
}

// StageFunc builds a Stage from a plain apply closure.
func StageFunc(name string, fn func(ctx context.Context, w *World) (*World, error)) Stage {
	return &stageFunc{name: name, fn: fn}
}

// HeightStage builds a Stage that replaces the Height field with op
// evaluated at every cell against a read-only clone of the input World,
// the "process_cell" convention height-only stages publish.
func HeightStage(name string, op CellHeightOp) Stage {
	return StageFunc(name, func(_ context.Context, w *World) (*World, error) {
		out := w.Clone()
		newHeight := grid.New[int32](w.Shape)
		grid.ApplyParallel(newHeight, w, func(x, y int, input *World) int32 {
			return op(x, y, input)
		})
		out.Height = newHeight
		return out, nil
	})
}

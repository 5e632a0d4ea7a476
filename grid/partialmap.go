// Package grid implements PartialMap, the 2-D raster bound to a shape.Shape
// that every field in world.World is built from.
package grid

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pedrogalvao/worldgen/shape"
)

// PartialMap is a 2-D grid of T bound to a Shape. Rows come from the
// Shape's row-width layout, so on a Globe each row may have a different
// length; code in this package and its callers must never assume uniform
// width.
type PartialMap[T any] struct {
	Shape shape.Shape
	rows  [][]T
}

// New allocates a PartialMap sized by sh's row layout, every cell holding
// the zero value of T.
func New[T any](sh shape.Shape) *PartialMap[T] {
	rowWidths := sh.Rows()
	rows := make([][]T, len(rowWidths))
	for y, w := range rowWidths {
		rows[y] = make([]T, w)
	}
	return &PartialMap[T]{Shape: sh, rows: rows}
}

// Height returns the number of rows.
func (m *PartialMap[T]) Height() int { return len(m.rows) }

// RowWidth returns the width of row x.
func (m *PartialMap[T]) RowWidth(x int) int { return len(m.rows[x]) }

// At returns the value at cell (x,y), wrapping y modulo the row width and
// clamping x to [0, Height-1].
func (m *PartialMap[T]) At(x, y int) T {
	x = clampInt(x, 0, len(m.rows)-1)
	row := m.rows[x]
	y = wrapMod(y, len(row))
	return row[y]
}

// Set writes the value at cell (x,y), with the same wrap/clamp rule as At.
func (m *PartialMap[T]) Set(x, y int, v T) {
	x = clampInt(x, 0, len(m.rows)-1)
	row := m.rows[x]
	y = wrapMod(y, len(row))
	row[y] = v
}

// Row exposes a row directly for callers that need to iterate without the
// wrap/clamp overhead of At/Set (e.g. apply_parallel's own writer).
func (m *PartialMap[T]) Row(x int) []T { return m.rows[x] }

// Get looks a cell up by geographic coordinate.
func (m *PartialMap[T]) Get(p shape.LatLon) T {
	c := m.Shape.LatLonToCell(p)
	return m.At(c.X, c.Y)
}

// CellToLatLon and LatLonToCell forward to the bound Shape so callers only
// need to hold the PartialMap.
func (m *PartialMap[T]) CellToLatLon(x, y int) shape.LatLon {
	return m.Shape.CellToLatLon(shape.Coord{X: x, Y: y})
}

func (m *PartialMap[T]) LatLonToCell(p shape.LatLon) shape.Coord {
	return m.Shape.LatLonToCell(p)
}

// PixelNeighbors returns the rectangular block of values surrounding
// (x,y) at the given radius.
func (m *PartialMap[T]) PixelNeighbors(x, y, radius int) [][]T {
	coords := m.Shape.PixelNeighborsCoords(x, y, radius)
	out := make([][]T, len(coords))
	for i, line := range coords {
		vals := make([]T, len(line))
		for j, c := range line {
			vals[j] = m.At(c.X, c.Y)
		}
		out[i] = vals
	}
	return out
}

// PixelNeighborsCoords forwards to the Shape, for callers that want
// coordinates rather than values (e.g. to write back to a different map).
func (m *PartialMap[T]) PixelNeighborsCoords(x, y, radius int) [][]shape.Coord {
	return m.Shape.PixelNeighborsCoords(x, y, radius)
}

// CellOp computes the value for cell (x,y) given a read-only view of
// whatever input state a stage needs. It must be a pure, re-entrant
// function: apply_parallel may call it concurrently from many goroutines,
// and it must never read the PartialMap being filled.
type CellOp[T, I any] func(x, y int, input I) T

// ApplyParallel fills m in place by evaluating op at every cell. Rows are
// partitioned across a worker pool (golang.org/x/sync/errgroup), so no two
// workers ever touch the same cell and ordering has no observable effect
// provided op is pure. CellOp returns no error, so every cell is always
// filled when ApplyParallel returns.
func ApplyParallel[T, I any](m *PartialMap[T], input I, op CellOp[T, I]) {
	g, _ := errgroup.WithContext(context.Background())
	for x := 0; x < m.Height(); x++ {
		x := x
		g.Go(func() error {
			row := m.rows[x]
			for y := range row {
				row[y] = op(x, y, input)
			}
			return nil
		})
	}
	// CellOp never errors, so this can't fail; Wait only blocks for
	// completion.
	_ = g.Wait()
}

// Clone makes a deep copy, used by stages that perform a point-wise update
// of a field they also read (apply_parallel(cloned_input, ...)).
func (m *PartialMap[T]) Clone() *PartialMap[T] {
	out := &PartialMap[T]{Shape: m.Shape, rows: make([][]T, len(m.rows))}
	for x, row := range m.rows {
		out.rows[x] = append([]T(nil), row...)
	}
	return out
}

// ForEach visits every cell sequentially, in row-major order. Used for
// reductions (percentile computation, coastline membership) where mutation
// order doesn't matter but a single accumulator does.
func (m *PartialMap[T]) ForEach(fn func(x, y int, v T)) {
	for x, row := range m.rows {
		for y, v := range row {
			fn(x, y, v)
		}
	}
}

// ToRows exposes the backing row storage for serialization (snapshot's
// gob encoding needs the raw rows; PartialMap keeps them unexported so
// every other caller goes through At/Set/Row and can't violate the
// wrap/clamp invariants those enforce).
func (m *PartialMap[T]) ToRows() [][]T { return m.rows }

// FromRows rebuilds a PartialMap from previously-serialized rows, bound
// to sh. The caller is responsible for rows matching sh.Rows()'s widths;
// neither FromRows nor snapshot.Load checks them.
func FromRows[T any](sh shape.Shape, rows [][]T) *PartialMap[T] {
	return &PartialMap[T]{Shape: sh, rows: rows}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapMod(v, m int) int {
	if m <= 0 {
		return 0
	}
	v %= m
	if v < 0 {
		v += m
	}
	return v
}

package world

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogalvao/worldgen/shape"
)

func TestNewAllocatesHeightAndTectonicPlatesOnly(t *testing.T) {
	sh := shape.NewFlat(4, 4)
	w := New(sh, 12)
	assert.NotNil(t, w.Height)
	assert.NotNil(t, w.TectonicPlates)
	assert.NotNil(t, w.OceanicPlates)
	assert.NotNil(t, w.Freshwater)
	assert.Nil(t, w.Coastline)
	assert.Nil(t, w.Continentality)
	assert.Equal(t, 12, w.Months)
}

func TestCloneIsIndependentOfSource(t *testing.T) {
	sh := shape.NewFlat(4, 4)
	w := New(sh, 12)
	w.OceanicPlates[1] = true
	w.Rivers = append(w.Rivers, RiverPath{{Pos: shape.Coord{X: 0, Y: 0}, Volume: 1}})

	cp := w.Clone()
	cp.OceanicPlates[2] = true
	cp.Rivers[0][0].Volume = 99

	assert.Len(t, w.OceanicPlates, 1, "mutating the clone's map must not affect the source")
	assert.Equal(t, float32(1), w.Rivers[0][0].Volume, "mutating the clone's slice must not affect the source")
}

func TestCloneSharesUntouchedPointerFields(t *testing.T) {
	sh := shape.NewFlat(4, 4)
	w := New(sh, 12)
	cp := w.Clone()
	assert.Same(t, w.Height, cp.Height, "fields a stage doesn't reassign should still point at the same data")
}

func TestIsOcean(t *testing.T) {
	assert.True(t, IsOcean(0))
	assert.True(t, IsOcean(-1))
	assert.False(t, IsOcean(1))
}

func TestHeightStageReplacesHeightOnAClone(t *testing.T) {
	sh := shape.NewFlat(4, 4)
	w := New(sh, 12)
	w.Height.Set(0, 0, 5)

	stage := HeightStage("double", func(x, y int, input *World) int32 {
		return input.Height.At(x, y) + 1
	})
	assert.Equal(t, "double", stage.Name())

	out, err := stage.Apply(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, int32(6), out.Height.At(0, 0))
	assert.Equal(t, int32(5), w.Height.At(0, 0), "the input World's Height must be untouched")
}

func TestPipelineRunFoldsStagesInOrder(t *testing.T) {
	sh := shape.NewFlat(2, 2)
	initial := New(sh, 12)

	addOne := HeightStage("add_one", func(x, y int, input *World) int32 { return input.Height.At(x, y) + 1 })
	addTwo := HeightStage("add_two", func(x, y int, input *World) int32 { return input.Height.At(x, y) + 2 })

	var seen []StageTiming
	p := &Pipeline{
		Stages: []Stage{addOne, addTwo},
		OnStage: func(t StageTiming, w *World) {
			seen = append(seen, t)
		},
		Logger: zerolog.Nop(),
	}

	final, timings, err := p.Run(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, int32(3), final.Height.At(0, 0))
	assert.Len(t, timings, 2)
	assert.Equal(t, "add_one", timings[0].Stage)
	assert.Equal(t, "add_two", timings[1].Stage)
	assert.Len(t, seen, 2, "OnStage must fire once per stage")
}

func TestPipelineRunStopsAtFirstStageError(t *testing.T) {
	sh := shape.NewFlat(2, 2)
	initial := New(sh, 12)

	boom := errors.New("boom")
	failing := StageFunc("failing", func(_ context.Context, w *World) (*World, error) {
		return nil, boom
	})
	neverRuns := StageFunc("never_runs", func(_ context.Context, w *World) (*World, error) {
		t := w.Clone()
		return t, nil
	})

	p := &Pipeline{Stages: []Stage{failing, neverRuns}, Logger: zerolog.Nop()}
	_, timings, err := p.Run(context.Background(), initial)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "failing", stageErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, timings, 1, "a stage after the failure must never run")
}

func TestPipelineRunHonorsCancelledContext(t *testing.T) {
	sh := shape.NewFlat(2, 2)
	initial := New(sh, 12)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	stage := StageFunc("should_not_run", func(_ context.Context, w *World) (*World, error) {
		ran = true
		return w, nil
	})

	p := &Pipeline{Stages: []Stage{stage}, Logger: zerolog.Nop()}
	_, _, err := p.Run(ctx, initial)
	require.Error(t, err)
	assert.False(t, ran)
}

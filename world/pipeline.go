package world

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StageError wraps a failure raised by a Stage. Per spec.md 7, stage
// invariant violations are internal bugs and are fatal: the pipeline
// never tries to recover from one locally.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageTiming records how long one stage took, for the optional
// per-stage debug trace the teacher's Pipeline runner keeps.
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}

// Pipeline is an ordered list of Stages. Run folds each Stage in turn
// over an initial World the caller supplies; per spec.md 5, stages never
// overlap.
type Pipeline struct {
	Stages []Stage

	// OnStage, if set, is called after each stage completes (used for
	// optional debug snapshots and progress reporting); it must not
	// mutate w.
	OnStage func(timing StageTiming, w *World)

	Logger zerolog.Logger
}

// Run executes every stage in order starting from initial, returning the
// final World or the first stage error encountered (fatal, per spec.md 7).
func (p *Pipeline) Run(ctx context.Context, initial *World) (*World, []StageTiming, error) {
	w := initial
	timings := make([]StageTiming, 0, len(p.Stages))
	for _, s := range p.Stages {
		if err := ctx.Err(); err != nil {
			return nil, timings, err
		}
		start := time.Now()
		next, err := s.Apply(ctx, w)
		elapsed := time.Since(start)
		timings = append(timings, StageTiming{Stage: s.Name(), Elapsed: elapsed})
		p.Logger.Info().Str("stage", s.Name()).Dur("elapsed", elapsed).Msg("stage complete")
		if err != nil {
			return nil, timings, &StageError{Stage: s.Name(), Err: err}
		}
		w = next
		if p.OnStage != nil {
			p.OnStage(timings[len(timings)-1], w)
		}
	}
	return w, timings, nil
}

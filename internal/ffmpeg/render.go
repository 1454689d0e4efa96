package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/keagan/reelforge/internal/graph"
)

// Render compiles g and runs ffmpeg until the output file is written
func (e *Executor) Render(ctx context.Context, g *graph.Graph, progress ProgressFunc) error {
	args, err := Args(g)
	if err != nil {
		return fmt.Errorf("failed to compile graph: %w", err)
	}

	var total time.Duration
	if v, ok := g.Output.Param("t"); ok {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			total = time.Duration(secs * float64(time.Second))
		}
	}

	e.logger.Info().
		Str("output", g.Output.Path).
		Int("nodes", len(g.Nodes)).
		Msg("starting render")

	start := time.Now()
	err = e.Run(ctx, RunOptions{
		Args:            args,
		ProgressHandler: progress,
		TotalDuration:   total,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("render output")
		},
	})
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("output", g.Output.Path).
		Dur("elapsed", time.Since(start)).
		Msg("render complete")
	return nil
}

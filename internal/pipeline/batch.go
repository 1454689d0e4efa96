package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keagan/reelforge/internal/config"
	"github.com/keagan/reelforge/pkg/util"
)

// Batch processes voiceovers with a bounded number of concurrent runs.
// Failed runs do not stop the batch.
func (p *Pipeline) Batch(ctx context.Context, voiceovers []string, opts BatchOptions) *Summary {
	start := time.Now()

	if opts.Basic {
		cfg := *p.config
		cfg.Features = cfg.Features.Basic()
		p = p.WithConfig(&cfg)
	}
	if opts.MaxVideos > 0 && len(voiceovers) > opts.MaxVideos {
		voiceovers = voiceovers[:opts.MaxVideos]
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = p.config.Concurrency
	}
	if workers <= 0 {
		workers = 1
	}

	p.logger.Info().
		Int("voiceovers", len(voiceovers)).
		Int("workers", workers).
		Msg("starting batch")

	results := make([]Result, len(voiceovers))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, vo := range voiceovers {
		i, vo := i, vo
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Voiceover: vo, Output: p.OutputPath(vo), Reason: err.Error()}
				return nil
			}
			results[i] = p.Process(ctx, vo)
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{}
	for _, r := range results {
		summary.add(r)
	}
	summary.Elapsed = time.Since(start)

	p.logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("batch complete")
	return summary
}

// BatchProjects runs every project file in dir. Each project is merged over
// base, which must be the unresolved configuration.
func (p *Pipeline) BatchProjects(ctx context.Context, base *config.Config, dir string, opts BatchOptions) (*Summary, error) {
	files, err := projectFiles(dir)
	if err != nil {
		return nil, err
	}

	total := &Summary{}
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}

		cfg, err := config.LoadProject(base, path)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			p.logger.Error().Err(err).Str("project", path).Msg("skipping invalid project")
			total.add(Result{Voiceover: path, Reason: fmt.Sprintf("invalid project: %v", err)})
			continue
		}

		proj := p.WithConfig(cfg)
		p.logger.Info().Str("project", util.BaseName(path)).Msg("running project")
		total.Merge(proj.Batch(ctx, proj.Voiceovers(), opts))
	}
	return total, nil
}

func projectFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch util.GetExtension(e.Name()) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

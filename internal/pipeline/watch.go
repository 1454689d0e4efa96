package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Watch runs a batch over the voiceover folder on schedule until ctx is
// done. A tick that fires while the previous batch is still running is
// dropped.
func (p *Pipeline) Watch(ctx context.Context, schedule string, opts BatchOptions) error {
	var running sync.Mutex
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		if !running.TryLock() {
			p.logger.Warn().Msg("previous batch still running, tick skipped")
			return
		}
		defer running.Unlock()

		p.logger.Info().Msg("watch triggered")
		p.Batch(ctx, p.Voiceovers(), opts)
	})
	if err != nil {
		return fmt.Errorf("failed to add watch schedule: %w", err)
	}

	c.Start()
	p.logger.Info().Str("schedule", schedule).Msg("watching for voiceovers")

	<-ctx.Done()
	<-c.Stop().Done()
	p.logger.Info().Msg("watch stopped")
	return nil
}

package schedulerengine

import (
	"context"
	"sync"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/services/contests"
	"github.com/cfwarrior/tgbot/internal/core/services/tracker"
)

// BackgroundEngine owns the long-running loops: the status poll and the
// contest reminder cron.
type BackgroundEngine struct {
	trackerService tracker.ITrackerService
	contestService contests.IContestService
	logger         primary.Logger

	wg sync.WaitGroup
}

func NewBackgroundEngine(
	trackerService tracker.ITrackerService,
	contestService contests.IContestService,
	logger primary.Logger,
) *BackgroundEngine {
	return &BackgroundEngine{
		trackerService: trackerService,
		contestService: contestService,
		logger:         logger,
	}
}

// Start launches the loops. They run until ctx is cancelled.
func (e *BackgroundEngine) Start(ctx context.Context) {
	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.trackerService.UpdateStatusForever(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.contestService.RemindForever(ctx)
	}()
	e.logger.Info("Background engine started")
}

// Wait blocks until both loops have observed cancellation and returned.
func (e *BackgroundEngine) Wait() {
	e.wg.Wait()
	e.logger.Info("Background engine stopped")
}

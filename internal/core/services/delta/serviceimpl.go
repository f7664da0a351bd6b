package delta

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/core/services/tracker"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

var _ IDeltaService = &DeltaService{}

// DeltaService reports rating deltas for the latest contests: official
// changes once published, third-party predictions otherwise.
type DeltaService struct {
	trackerService tracker.ITrackerService
	source         secondary.SubmissionSource
	predictor      secondary.DeltaPredictor
	notifier       secondary.Notifier
	logger         primary.Logger
}

// NewDeltaService creates a new delta service
func NewDeltaService(
	trackerService tracker.ITrackerService,
	source secondary.SubmissionSource,
	predictor secondary.DeltaPredictor,
	notifier secondary.Notifier,
	logger primary.Logger,
) *DeltaService {
	return &DeltaService{
		trackerService: trackerService,
		source:         source,
		predictor:      predictor,
		notifier:       notifier,
		logger:         logger,
	}
}

// SendDeltaReport computes the report and delivers it to chatID.
func (s *DeltaService) SendDeltaReport(ctx context.Context, chatID int64) error {
	if err := s.notifier.SendChatAction(ctx, chatID, "typing"); err != nil {
		s.logger.Debug("Failed to send chat action", "error", err)
	}

	handles, err := s.trackerService.GetHandles(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot handles: %w", err)
	}

	contests, err := s.latestContests(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve latest contests: %w", err)
	}

	sections := make([]string, 0, len(contests))
	systemTesting := false
	for i := range contests {
		contest := &contests[i]
		section, err := s.deltaSection(ctx, contest, handles)
		if err != nil {
			return fmt.Errorf("failed to build delta section for contest %d: %w", contest.ID, err)
		}
		sections = append(sections, section)
		if contest.Phase == domain.PhaseSystemTest {
			systemTesting = true
		}
	}

	text := strings.Join(sections, "\n\n")
	if systemTesting {
		text += "\n\nSystem testing is ongoing. The deltas are not yet finalized."
	}

	if err := s.notifier.SendMessage(ctx, chatID, text); err != nil {
		return fmt.Errorf("failed to deliver delta report: %w", err)
	}
	return nil
}

// latestContests returns every started contest sharing the most recent
// start time; parallel division rounds start together.
func (s *DeltaService) latestContests(ctx context.Context) ([]domain.Contest, error) {
	contests, err := s.source.GetContests(ctx)
	if err != nil {
		return nil, err
	}

	var started []domain.Contest
	for _, contest := range contests {
		if contest.Phase != domain.PhaseBefore {
			started = append(started, contest)
		}
	}
	if len(started) == 0 {
		return nil, errs.NotFound
	}

	sort.Slice(started, func(i, j int) bool {
		if started[i].StartTimeSeconds != started[j].StartTimeSeconds {
			return started[i].StartTimeSeconds < started[j].StartTimeSeconds
		}
		return started[i].ID < started[j].ID
	})

	latestStart := started[len(started)-1].StartTimeSeconds
	var latest []domain.Contest
	for _, contest := range started {
		if contest.StartTimeSeconds == latestStart {
			latest = append(latest, contest)
		}
	}
	return latest, nil
}

// deltaSection builds one contest's leaderboard restricted to tracked
// handles. Before the contest ends predictions are the only source; after
// the end official changes are preferred and prediction is the fallback
// while they remain unpublished.
func (s *DeltaService) deltaSection(ctx context.Context, contest *domain.Contest, handles []string) (string, error) {
	predict := true
	official := make(map[string]domain.RatingChange)

	if time.Now().After(contest.EndTime()) {
		changes, err := s.source.GetRatingChanges(ctx, contest.ID)
		switch {
		case errors.Is(err, errs.RatingChangesUnavailable):
			// Not published yet, fall through to prediction.
		case err != nil:
			return "", err
		case len(changes) > 0:
			predict = false
			for _, change := range changes {
				official[change.Handle] = change
			}
		}
	}

	var rows []tableRow
	if predict {
		deltas, err := s.predictor.PredictedDeltas(ctx, contest.ID)
		if err != nil {
			return "", err
		}
		for _, handle := range handles {
			if delta, ok := deltas[handle]; ok {
				rows = append(rows, tableRow{Rank: delta.Rank, Handle: handle, Delta: delta.Delta})
			}
		}
	} else {
		for _, handle := range handles {
			if change, ok := official[handle]; ok {
				rows = append(rows, tableRow{
					Rank:   change.Rank,
					Handle: handle,
					Delta:  fmt.Sprintf("%+d", change.Delta()),
				})
			}
		}
	}

	if len(rows) == 0 {
		return "No members are competing in " + contest.LinkedName(), nil
	}

	kind := "Official"
	if predict {
		kind = "Predicted"
	}
	return fmt.Sprintf(
		"%s rating changes for %s\n<pre>%s</pre>",
		kind, contest.LinkedName(), renderTable(rows),
	), nil
}

package contests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/stickers"
)

// Reminder lead times, longest first. Each contest is announced at most
// once per lead time.
var reminderLeads = []time.Duration{60 * time.Minute, 15 * time.Minute, 5 * time.Minute}

var _ IContestService = &ContestService{}

type ContestService struct {
	calendar secondary.ContestCalendar
	notifier secondary.Notifier
	logger   primary.Logger
	pollCfg  *config.PollCfg
	chatID   int64

	// announced remembers (contest, lead) pairs already sent. Keys for
	// contests long past are pruned each tick.
	announced map[string]time.Time
}

// NewContestService creates a new contest service
func NewContestService(
	calendar secondary.ContestCalendar,
	notifier secondary.Notifier,
	logger primary.Logger,
	pollCfg *config.PollCfg,
	chatID int64,
) *ContestService {
	return &ContestService{
		calendar:  calendar,
		notifier:  notifier,
		logger:    logger,
		pollCfg:   pollCfg,
		chatID:    chatID,
		announced: make(map[string]time.Time),
	}
}

// ListUpcoming renders the upcoming contest calendar as one message.
func (s *ContestService) ListUpcoming(ctx context.Context) (string, error) {
	upcoming, err := s.calendar.GetUpcomingContests(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch upcoming contests: %w", err)
	}
	if len(upcoming) == 0 {
		return "No upcoming contests in the next 2 weeks.", nil
	}

	sections := make([]string, 0, len(upcoming))
	for i := range upcoming {
		sections = append(sections, upcoming[i].String())
	}
	return strings.Join(sections, "\n\n"), nil
}

// RemindForever announces contests approaching their start time.
func (s *ContestService) RemindForever(ctx context.Context) {
	s.logger.Info("Contest reminder loop started", "interval", s.pollCfg.ReminderInterval)

	ticker := time.NewTicker(s.pollCfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Contest reminder loop stopped")
			return
		case <-ticker.C:
			if err := s.remind(ctx); err != nil {
				s.logger.Error("Reminder tick failed", "error", err)
			}
		}
	}
}

func (s *ContestService) remind(ctx context.Context) error {
	upcoming, err := s.calendar.GetUpcomingContests(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch upcoming contests: %w", err)
	}

	now := time.Now()
	s.prune(now)

	for i := range upcoming {
		contest := &upcoming[i]
		until := contest.Start.Sub(now)
		if until <= 0 {
			continue
		}

		lead, due := matchLead(until)
		if !due {
			continue
		}
		key := reminderKey(contest, lead)
		if _, ok := s.announced[key]; ok {
			continue
		}
		s.announced[key] = contest.Start
		s.announce(ctx, contest, lead)
	}
	return nil
}

// matchLead picks the tightest lead window containing until. A contest
// further out than the longest lead is not due yet.
func matchLead(until time.Duration) (time.Duration, bool) {
	for i := len(reminderLeads) - 1; i >= 0; i-- {
		if until <= reminderLeads[i] {
			return reminderLeads[i], true
		}
	}
	return 0, false
}

func (s *ContestService) announce(ctx context.Context, contest *domain.UpcomingContest, lead time.Duration) {
	text := fmt.Sprintf("%s starts in %s!", contest.LinkedName(), domain.Duration(contest.Start.Sub(time.Now())))
	if err := s.notifier.SendMessage(ctx, s.chatID, text); err != nil {
		s.logger.Warn("Failed to send contest reminder", "contest", contest.Event, "error", err)
		return
	}
	if lead <= 5*time.Minute {
		if err := s.notifier.SendSticker(ctx, s.chatID, stickers.RandomUpcomingContest()); err != nil {
			s.logger.Warn("Failed to send reminder sticker", "contest", contest.Event, "error", err)
		}
	}
}

func (s *ContestService) prune(now time.Time) {
	for key, start := range s.announced {
		if now.Sub(start) > 24*time.Hour {
			delete(s.announced, key)
		}
	}
}

func reminderKey(contest *domain.UpcomingContest, lead time.Duration) string {
	return fmt.Sprintf("%s|%d|%d", contest.Href, contest.Start.Unix(), int(lead.Minutes()))
}

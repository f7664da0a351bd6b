package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
	"github.com/cfwarrior/tgbot/internal/static/stickers"
)

var _ ITrackerService = &TrackerService{}

// TrackerService owns the tracked-handle registry and the per-handle
// status snapshots. One coarse mutex serializes registry reconciliation
// and the poll loop's read-diff-write sequence, so no two operations ever
// interleave on a handle's snapshot.
type TrackerService struct {
	statusRepo secondary.StatusRepository
	source     secondary.SubmissionSource
	notifier   secondary.Notifier
	logger     primary.Logger
	pollCfg    *config.PollCfg
	chatID     int64

	mu sync.Mutex
}

// NewTrackerService creates a new tracker service
func NewTrackerService(
	statusRepo secondary.StatusRepository,
	source secondary.SubmissionSource,
	notifier secondary.Notifier,
	logger primary.Logger,
	pollCfg *config.PollCfg,
	chatID int64,
) *TrackerService {
	return &TrackerService{
		statusRepo: statusRepo,
		source:     source,
		notifier:   notifier,
		logger:     logger,
		pollCfg:    pollCfg,
		chatID:     chatID,
	}
}

// Reconcile synchronizes the registry against the full desired set.
func (s *TrackerService) Reconcile(ctx context.Context, desired []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Reconciling handles", "desired", desired)

	desiredSet := make(map[string]bool, len(desired))
	for _, handle := range desired {
		desiredSet[handle] = true
	}

	current, err := s.statusRepo.GetHandles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked handles: %w", err)
	}

	// Remove absent handles. Removals stick even when a later
	// initialization fails, there is no atomicity across the whole
	// reconciliation.
	toAdd := desiredSet
	for _, handle := range current {
		if toAdd[handle] {
			delete(toAdd, handle)
		} else if err := s.statusRepo.Remove(ctx, handle); err != nil {
			return fmt.Errorf("failed to remove handle %s: %w", handle, err)
		}
	}

	var initErrs []error
	for handle := range toAdd {
		if err := s.initUser(ctx, handle); err != nil {
			s.logger.Error("Failed to initialize handle", "handle", handle, "error", err)
			initErrs = append(initErrs, err)
		}
	}
	return errors.Join(initErrs...)
}

// initUser seeds a new handle's snapshot with its current history so the
// first poll cycle does not announce old submissions.
func (s *TrackerService) initUser(ctx context.Context, handle string) error {
	status, err := s.source.GetStatus(ctx, handle, s.pollCfg.StatusCount)
	if err != nil {
		return fmt.Errorf("failed to fetch status for %s: %w", handle, err)
	}
	return s.statusRepo.SaveStatus(ctx, handle, status)
}

// GetHandles snapshots the registry under the poll lock.
func (s *TrackerService) GetHandles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusRepo.GetHandles(ctx)
}

// UpdateStatusForever runs the poll loop until ctx is cancelled. Handles
// added or removed mid-cycle take effect next cycle.
func (s *TrackerService) UpdateStatusForever(ctx context.Context) {
	s.logger.Info("Status poll loop started", "interval", s.pollCfg.HandleInterval)

	for {
		if ctx.Err() != nil {
			s.logger.Info("Status poll loop stopped")
			return
		}

		handles, err := s.GetHandles(ctx)
		if err != nil {
			s.logger.Error("Failed to snapshot handles", "error", err)
		}
		if len(handles) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.pollCfg.HandleInterval):
			}
			continue
		}

		for _, handle := range handles {
			// The cadence floor runs concurrently with the update: a fast
			// update still waits out the interval, a slow one proceeds
			// straight to the next handle.
			pacing := time.After(s.pollCfg.HandleInterval)

			if err := s.updateStatus(ctx, handle); err != nil {
				if errors.Is(err, errs.CodeforcesUnavailable) {
					s.logger.Warn("Skipping handle, codeforces unavailable", "handle", handle)
				} else {
					s.logger.Error("Failed to update handle", "handle", handle, "error", err)
				}
			}

			select {
			case <-ctx.Done():
				s.logger.Info("Status poll loop stopped")
				return
			case <-pacing:
			}
		}
	}
}

// updateStatus fetches a handle's latest submissions, announces the
// notification-worthy changes and replaces the stored snapshot.
func (s *TrackerService) updateStatus(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Old snapshot read and fresh fetch run concurrently; both complete
	// before the diff.
	type fetched struct {
		status []domain.Submission
		err    error
	}
	fetchCh := make(chan fetched, 1)
	go func() {
		status, err := s.source.GetStatus(ctx, handle, s.pollCfg.StatusCount)
		fetchCh <- fetched{status: status, err: err}
	}()

	oldStatus, err := s.statusRepo.GetStatus(ctx, handle)
	if err != nil && !errors.Is(err, errs.NotFound) {
		<-fetchCh
		return fmt.Errorf("failed to read stored status for %s: %w", handle, err)
	}

	fetch := <-fetchCh
	if fetch.err != nil {
		return fmt.Errorf("failed to fetch status for %s: %w", handle, fetch.err)
	}
	newStatus := fetch.status

	updated := Diff(oldStatus, newStatus)

	// Resolve each distinct contest once per cycle.
	contests := make(map[int]*domain.Contest)
	for _, submission := range updated {
		if _, ok := contests[submission.Author.ContestID]; ok {
			continue
		}
		contest, err := s.source.GetContest(ctx, submission.Author.ContestID)
		if err != nil {
			return fmt.Errorf("failed to resolve contest %d: %w", submission.Author.ContestID, err)
		}
		contests[submission.Author.ContestID] = contest
	}

	var announce []domain.Submission
	for _, submission := range updated {
		if submission.ShouldNotify(contests[submission.Author.ContestID]) {
			announce = append(announce, submission)
		}
	}
	if len(announce) > 0 {
		// Fire-and-forget: the loop does not wait for delivery, failures
		// are logged and lost. Within the batch, fetch order is kept.
		go s.announce(announce)
	}

	if err := s.statusRepo.SaveStatus(ctx, handle, newStatus); err != nil {
		return fmt.Errorf("failed to save status for %s: %w", handle, err)
	}
	return nil
}

func (s *TrackerService) announce(submissions []domain.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := range submissions {
		submission := &submissions[i]
		if err := s.notifier.SendMessage(ctx, s.chatID, submission.Message()); err != nil {
			s.logger.Warn("Failed to send notification", "submissionId", submission.ID, "error", err)
			continue
		}

		sticker := stickers.RandomFailed()
		if submission.Verdict == domain.VerdictOK {
			sticker = stickers.RandomOK()
		}
		if err := s.notifier.SendSticker(ctx, s.chatID, sticker); err != nil {
			s.logger.Warn("Failed to send sticker", "submissionId", submission.ID, "error", err)
		}
	}
}

// Diff returns the submissions in newStatus that are new or changed
// relative to oldStatus: unseen ids, or seen ids whose verdict or testset
// moved.
func Diff(oldStatus, newStatus []domain.Submission) []domain.Submission {
	seen := make(map[int64]*domain.Submission, len(oldStatus))
	for i := range oldStatus {
		seen[oldStatus[i].ID] = &oldStatus[i]
	}

	var updated []domain.Submission
	for _, submission := range newStatus {
		old, ok := seen[submission.ID]
		if !ok || !submission.Same(old) {
			updated = append(updated, submission)
		}
	}
	return updated
}

package verification

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/core/services/tracker"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

// Proof problems come from this rating band: hard enough that nobody
// solves one by accident, so any submission at all is proof enough.
const (
	proofRatingMin = 3000
	proofRatingMax = 3500
)

const checkInterval = 30 * time.Second

// checkStatusCount bounds the proof lookup; a fresh submission is always
// near the top of the history.
const checkStatusCount = 10

var _ IVerificationService = &VerificationService{}

type VerificationService struct {
	verificationRepo secondary.VerificationRepository
	bindingRepo      secondary.BindingRepository
	source           secondary.SubmissionSource
	notifier         secondary.Notifier
	scheduler        secondary.TaskScheduler
	trackerService   tracker.ITrackerService
	logger           primary.Logger
	chatID           int64
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	verificationRepo secondary.VerificationRepository,
	bindingRepo secondary.BindingRepository,
	source secondary.SubmissionSource,
	notifier secondary.Notifier,
	scheduler secondary.TaskScheduler,
	trackerService tracker.ITrackerService,
	logger primary.Logger,
	chatID int64,
) *VerificationService {
	return &VerificationService{
		verificationRepo: verificationRepo,
		bindingRepo:      bindingRepo,
		source:           source,
		notifier:         notifier,
		scheduler:        scheduler,
		trackerService:   trackerService,
		logger:           logger,
		chatID:           chatID,
	}
}

// Begin starts a verification for userID claiming handle.
func (s *VerificationService) Begin(ctx context.Context, userID int64, handle string, chatID, messageID int64) error {
	existing, err := s.bindingRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up binding for user %d: %w", userID, err)
	}
	if existing != nil {
		return s.reply(ctx, chatID, messageID,
			fmt.Sprintf("You are already signed on as %s.", existing.Handle))
	}

	taken, err := s.bindingRepo.GetByHandle(ctx, handle)
	if err != nil {
		return fmt.Errorf("failed to look up binding for handle %s: %w", handle, err)
	}
	if taken != nil && taken.UserID != userID {
		s.logger.Warn("Handle already bound", "handle", handle, "userId", taken.UserID)
		if err := s.reply(ctx, chatID, messageID,
			fmt.Sprintf("%s is already signed on by another member.", handle)); err != nil {
			return err
		}
		return errs.HandleAlreadyBound
	}

	user, err := s.source.GetUser(ctx, handle)
	if errors.Is(err, errs.NotFound) {
		return s.reply(ctx, chatID, messageID,
			fmt.Sprintf("Codeforces does not know any user called %s.", handle))
	}
	if err != nil {
		return fmt.Errorf("failed to resolve user %s: %w", handle, err)
	}

	problem, err := s.pickProofProblem(ctx)
	if err != nil {
		return fmt.Errorf("failed to pick a proof problem: %w", err)
	}

	pending := &domain.PendingVerification{
		UserID:    userID,
		Handle:    user.Handle,
		ProblemID: problem.ID(),
		ChatID:    chatID,
		MessageID: messageID,
		Attempts:  0,
	}
	if err := s.verificationRepo.Put(ctx, pending); err != nil {
		return fmt.Errorf("failed to store pending verification: %w", err)
	}

	text := fmt.Sprintf(
		"To verify that you own %s, submit anything to %s within %s. "+
			"Any verdict works, even a compilation error.",
		user.LinkedHandle(), problem.LinkedName(), domain.Duration(domain.VerificationWindow),
	)
	if err := s.reply(ctx, chatID, messageID, text); err != nil {
		return err
	}

	if err := s.scheduler.Schedule(ctx, secondary.TaskVerifyHandle, userID, time.Now().Add(checkInterval)); err != nil {
		return fmt.Errorf("failed to schedule verification check: %w", err)
	}
	s.logger.Info("Verification started", "userId", userID, "handle", user.Handle, "problem", problem.ID())
	return nil
}

// Check runs one verification re-check for userID.
func (s *VerificationService) Check(ctx context.Context, userID int64) error {
	pending, err := s.verificationRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load pending verification for user %d: %w", userID, err)
	}
	if pending == nil {
		return errs.NoPendingVerification
	}

	proven, err := s.hasProofSubmission(ctx, pending)
	if err != nil {
		// An upstream outage must not consume the attempt budget; retry
		// the same attempt on the next check.
		s.logger.Warn("Verification check could not read submissions", "handle", pending.Handle, "error", err)
		if err := s.scheduler.Schedule(ctx, secondary.TaskVerifyHandle, userID, time.Now().Add(checkInterval)); err != nil {
			return fmt.Errorf("failed to schedule verification check: %w", err)
		}
		return nil
	}
	if proven {
		return s.complete(ctx, pending)
	}

	if pending.Attempts >= domain.MaxVerificationAttempts {
		return s.expire(ctx, pending)
	}

	if err := s.verificationRepo.IncrementAttempts(ctx, userID); err != nil {
		return fmt.Errorf("failed to record verification attempt: %w", err)
	}
	if err := s.scheduler.Schedule(ctx, secondary.TaskVerifyHandle, userID, time.Now().Add(checkInterval)); err != nil {
		return fmt.Errorf("failed to schedule verification check: %w", err)
	}
	return nil
}

// hasProofSubmission reports whether the claimed handle submitted to the
// proof problem within the verification window. Any verdict counts.
func (s *VerificationService) hasProofSubmission(ctx context.Context, pending *domain.PendingVerification) (bool, error) {
	status, err := s.source.GetStatus(ctx, pending.Handle, checkStatusCount)
	if err != nil {
		return false, err
	}

	cutoff := time.Now().Add(-domain.VerificationWindow)
	for i := range status {
		submission := &status[i]
		if submission.Problem.ID() == pending.ProblemID && submission.Time().After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (s *VerificationService) complete(ctx context.Context, pending *domain.PendingVerification) error {
	binding := &domain.HandleBinding{UserID: pending.UserID, Handle: pending.Handle}
	if err := s.bindingRepo.Save(ctx, binding); err != nil {
		return fmt.Errorf("failed to save binding: %w", err)
	}
	if err := s.verificationRepo.Delete(ctx, pending.UserID); err != nil {
		return fmt.Errorf("failed to clear pending verification: %w", err)
	}

	if err := s.notifier.ApproveJoinRequest(ctx, s.chatID, pending.UserID); err != nil {
		s.logger.Warn("Failed to approve join request", "userId", pending.UserID, "error", err)
	}
	if err := s.reply(ctx, pending.ChatID, pending.MessageID,
		fmt.Sprintf("Verified! You are now signed on as %s.", pending.Handle)); err != nil {
		s.logger.Warn("Failed to announce verification", "userId", pending.UserID, "error", err)
	}

	handles, err := s.bindingRepo.GetAllHandles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bound handles: %w", err)
	}
	if err := s.trackerService.Reconcile(ctx, handles); err != nil {
		return fmt.Errorf("failed to start tracking %s: %w", pending.Handle, err)
	}
	s.logger.Info("Verification completed", "userId", pending.UserID, "handle", pending.Handle)
	return nil
}

func (s *VerificationService) expire(ctx context.Context, pending *domain.PendingVerification) error {
	if err := s.verificationRepo.Delete(ctx, pending.UserID); err != nil {
		return fmt.Errorf("failed to clear expired verification: %w", err)
	}
	s.logger.Info("Verification expired", "userId", pending.UserID, "handle", pending.Handle)
	return s.reply(ctx, pending.ChatID, pending.MessageID,
		fmt.Sprintf("Verification for %s expired. Run /sign_on again to retry.", pending.Handle))
}

// pickProofProblem draws a random problem from the proof rating band.
func (s *VerificationService) pickProofProblem(ctx context.Context) (*domain.Problem, error) {
	problems, err := s.source.GetProblems(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []*domain.Problem
	for i := range problems {
		if problems[i].Rating >= proofRatingMin && problems[i].Rating <= proofRatingMax {
			candidates = append(candidates, &problems[i])
		}
	}
	if len(candidates) == 0 {
		return nil, errs.NoProblemFound
	}
	return candidates[rand.Intn(len(candidates))], nil
}

func (s *VerificationService) reply(ctx context.Context, chatID, messageID int64, text string) error {
	if err := s.notifier.SendReply(ctx, chatID, text, messageID); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

package verification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

type fakeVerificationRepo struct {
	pending map[int64]*domain.PendingVerification
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{pending: make(map[int64]*domain.PendingVerification)}
}

func (r *fakeVerificationRepo) Put(ctx context.Context, pending *domain.PendingVerification) error {
	copied := *pending
	r.pending[pending.UserID] = &copied
	return nil
}

func (r *fakeVerificationRepo) Get(ctx context.Context, userID int64) (*domain.PendingVerification, error) {
	return r.pending[userID], nil
}

func (r *fakeVerificationRepo) IncrementAttempts(ctx context.Context, userID int64) error {
	if pending, ok := r.pending[userID]; ok {
		pending.Attempts++
	}
	return nil
}

func (r *fakeVerificationRepo) Delete(ctx context.Context, userID int64) error {
	delete(r.pending, userID)
	return nil
}

type fakeBindingRepo struct {
	bindings map[int64]*domain.HandleBinding
}

func newFakeBindingRepo() *fakeBindingRepo {
	return &fakeBindingRepo{bindings: make(map[int64]*domain.HandleBinding)}
}

func (r *fakeBindingRepo) Save(ctx context.Context, binding *domain.HandleBinding) error {
	copied := *binding
	r.bindings[binding.UserID] = &copied
	return nil
}

func (r *fakeBindingRepo) GetByUserID(ctx context.Context, userID int64) (*domain.HandleBinding, error) {
	return r.bindings[userID], nil
}

func (r *fakeBindingRepo) GetByHandle(ctx context.Context, handle string) (*domain.HandleBinding, error) {
	for _, binding := range r.bindings {
		if binding.Handle == handle {
			return binding, nil
		}
	}
	return nil, nil
}

func (r *fakeBindingRepo) GetAllHandles(ctx context.Context) ([]string, error) {
	var handles []string
	for _, binding := range r.bindings {
		handles = append(handles, binding.Handle)
	}
	return handles, nil
}

func (r *fakeBindingRepo) Delete(ctx context.Context, userID int64) error {
	delete(r.bindings, userID)
	return nil
}

type fakeSource struct {
	users     map[string]*domain.User
	statuses  map[string][]domain.Submission
	statusErr error
	problems  []domain.Problem
}

func (s *fakeSource) GetStatus(ctx context.Context, handle string, count int) ([]domain.Submission, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.statuses[handle], nil
}

func (s *fakeSource) GetContest(ctx context.Context, contestID int) (*domain.Contest, error) {
	return nil, errs.NotFound
}

func (s *fakeSource) GetContests(ctx context.Context, phases ...domain.ContestPhase) ([]domain.Contest, error) {
	return nil, nil
}

func (s *fakeSource) GetRatingChanges(ctx context.Context, contestID int) ([]domain.RatingChange, error) {
	return nil, errs.RatingChangesUnavailable
}

func (s *fakeSource) GetUser(ctx context.Context, handle string) (*domain.User, error) {
	if user, ok := s.users[handle]; ok {
		return user, nil
	}
	return nil, errs.NotFound
}

func (s *fakeSource) GetProblems(ctx context.Context) ([]domain.Problem, error) {
	return s.problems, nil
}

type fakeNotifier struct {
	replies  []string
	messages []string
	approved []int64
	declined []int64
}

func (n *fakeNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendReply(ctx context.Context, chatID int64, text string, replyTo int64) error {
	n.replies = append(n.replies, text)
	return nil
}

func (n *fakeNotifier) SendSticker(ctx context.Context, chatID int64, sticker string) error {
	return nil
}

func (n *fakeNotifier) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return nil
}

func (n *fakeNotifier) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	n.approved = append(n.approved, userID)
	return nil
}

func (n *fakeNotifier) DeclineJoinRequest(ctx context.Context, chatID, userID int64) error {
	n.declined = append(n.declined, userID)
	return nil
}

type scheduledTask struct {
	kind   secondary.TaskKind
	userID int64
	at     time.Time
}

type fakeScheduler struct {
	tasks []scheduledTask
}

func (s *fakeScheduler) Schedule(ctx context.Context, kind secondary.TaskKind, userID int64, at time.Time) error {
	s.tasks = append(s.tasks, scheduledTask{kind: kind, userID: userID, at: at})
	return nil
}

type fakeTracker struct {
	reconciled [][]string
}

func (t *fakeTracker) Reconcile(ctx context.Context, desired []string) error {
	t.reconciled = append(t.reconciled, desired)
	return nil
}

func (t *fakeTracker) GetHandles(ctx context.Context) ([]string, error) { return nil, nil }
func (t *fakeTracker) UpdateStatusForever(ctx context.Context)          {}

type fixture struct {
	service          *VerificationService
	verificationRepo *fakeVerificationRepo
	bindingRepo      *fakeBindingRepo
	source           *fakeSource
	notifier         *fakeNotifier
	scheduler        *fakeScheduler
	tracker          *fakeTracker
}

func newFixture() *fixture {
	f := &fixture{
		verificationRepo: newFakeVerificationRepo(),
		bindingRepo:      newFakeBindingRepo(),
		source: &fakeSource{
			users:    map[string]*domain.User{"alice": {Handle: "alice", Rating: 2100}},
			statuses: make(map[string][]domain.Submission),
			problems: []domain.Problem{
				{ContestID: 1, Index: "A", Name: "Easy", Rating: 800},
				{ContestID: 2, Index: "F", Name: "Impossible", Rating: 3300},
			},
		},
		notifier:  &fakeNotifier{},
		scheduler: &fakeScheduler{},
		tracker:   &fakeTracker{},
	}
	f.service = NewVerificationService(
		f.verificationRepo, f.bindingRepo, f.source, f.notifier, f.scheduler, f.tracker, nopLogger{}, -100,
	)
	return f
}

func TestBeginStoresPendingAndSchedulesCheck(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.service.Begin(ctx, 7, "alice", 55, 900); err != nil {
		t.Fatalf("Begin() error: %v", err)
	}

	pending := f.verificationRepo.pending[7]
	if pending == nil {
		t.Fatal("no pending verification stored")
	}
	if pending.Handle != "alice" || pending.ProblemID != "2F" || pending.Attempts != 0 {
		t.Fatalf("pending = %+v, want alice / proof problem 2F / 0 attempts", pending)
	}
	if pending.ChatID != 55 || pending.MessageID != 900 {
		t.Fatalf("pending = %+v, must remember where to answer", pending)
	}

	if len(f.scheduler.tasks) != 1 || f.scheduler.tasks[0].kind != secondary.TaskVerifyHandle {
		t.Fatalf("scheduled tasks = %+v, want one verification check", f.scheduler.tasks)
	}
	if len(f.notifier.replies) != 1 || !strings.Contains(f.notifier.replies[0], "2F") {
		t.Fatalf("replies = %v, want proof instructions naming the problem", f.notifier.replies)
	}
}

func TestBeginRejectsTakenHandle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bindingRepo.bindings[99] = &domain.HandleBinding{UserID: 99, Handle: "alice"}

	if err := f.service.Begin(ctx, 7, "alice", 55, 900); !errors.Is(err, errs.HandleAlreadyBound) {
		t.Fatalf("Begin() = %v, want errs.HandleAlreadyBound", err)
	}

	if f.verificationRepo.pending[7] != nil {
		t.Error("no verification must start for a handle bound to someone else")
	}
	if len(f.scheduler.tasks) != 0 {
		t.Error("no check must be scheduled for a rejected claim")
	}
	if len(f.notifier.replies) != 1 || !strings.Contains(f.notifier.replies[0], "already signed on") {
		t.Fatalf("replies = %v, want a collision explanation", f.notifier.replies)
	}
}

func TestBeginRejectsUnknownHandle(t *testing.T) {
	f := newFixture()

	if err := f.service.Begin(context.Background(), 7, "ghost", 55, 900); err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	if f.verificationRepo.pending[7] != nil || len(f.scheduler.tasks) != 0 {
		t.Error("no verification must start for an unknown handle")
	}
}

func TestCheckCompletesOnProofSubmission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.verificationRepo.pending[7] = &domain.PendingVerification{
		UserID: 7, Handle: "alice", ProblemID: "2F", ChatID: 55, MessageID: 900, Attempts: 4,
	}
	f.source.statuses["alice"] = []domain.Submission{
		{
			ID:                  1,
			CreationTimeSeconds: time.Now().Add(-time.Minute).Unix(),
			Verdict:             "COMPILATION_ERROR",
			Problem:             domain.Problem{ContestID: 2, Index: "F"},
		},
	}

	if err := f.service.Check(ctx, 7); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	binding := f.bindingRepo.bindings[7]
	if binding == nil || binding.Handle != "alice" {
		t.Fatalf("binding = %+v, want alice bound to user 7", binding)
	}
	if f.verificationRepo.pending[7] != nil {
		t.Error("pending verification must be cleared on success")
	}
	if len(f.notifier.approved) != 1 || f.notifier.approved[0] != 7 {
		t.Errorf("approvals = %v, want the join request approved", f.notifier.approved)
	}
	if len(f.tracker.reconciled) != 1 || f.tracker.reconciled[0][0] != "alice" {
		t.Errorf("reconciles = %v, want the new handle pushed into tracking", f.tracker.reconciled)
	}
	if len(f.scheduler.tasks) != 0 {
		t.Error("no further check must be scheduled after success")
	}
}

func TestCheckIgnoresStaleAndOffTargetSubmissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.verificationRepo.pending[7] = &domain.PendingVerification{
		UserID: 7, Handle: "alice", ProblemID: "2F", ChatID: 55, MessageID: 900,
	}
	f.source.statuses["alice"] = []domain.Submission{
		// Right problem, but submitted long before the claim.
		{ID: 1, CreationTimeSeconds: time.Now().Add(-time.Hour).Unix(), Problem: domain.Problem{ContestID: 2, Index: "F"}},
		// Fresh, but a different problem.
		{ID: 2, CreationTimeSeconds: time.Now().Unix(), Problem: domain.Problem{ContestID: 1, Index: "A"}},
	}

	if err := f.service.Check(ctx, 7); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	if f.bindingRepo.bindings[7] != nil {
		t.Error("no binding must be saved without a proof submission")
	}
	if f.verificationRepo.pending[7].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", f.verificationRepo.pending[7].Attempts)
	}
	if len(f.scheduler.tasks) != 1 {
		t.Fatalf("scheduled tasks = %+v, want one re-check", f.scheduler.tasks)
	}
}

func TestCheckRetriesWithoutBurningAttemptsOnFetchFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.verificationRepo.pending[7] = &domain.PendingVerification{
		UserID: 7, Handle: "alice", ProblemID: "2F", ChatID: 55, MessageID: 900, Attempts: 4,
	}
	f.source.statusErr = errs.CodeforcesUnavailable

	if err := f.service.Check(ctx, 7); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	if f.verificationRepo.pending[7].Attempts != 4 {
		t.Errorf("attempts = %d, an upstream outage must not count as an attempt", f.verificationRepo.pending[7].Attempts)
	}
	if len(f.scheduler.tasks) != 1 || f.scheduler.tasks[0].kind != secondary.TaskVerifyHandle {
		t.Fatalf("scheduled tasks = %+v, want one re-check", f.scheduler.tasks)
	}
	if f.bindingRepo.bindings[7] != nil {
		t.Error("no binding must be saved while submissions are unreadable")
	}
}

func TestCheckExpiresAfterFinalAttempt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.verificationRepo.pending[7] = &domain.PendingVerification{
		UserID: 7, Handle: "alice", ProblemID: "2F", ChatID: 55, MessageID: 900,
		Attempts: domain.MaxVerificationAttempts,
	}

	if err := f.service.Check(ctx, 7); err != nil {
		t.Fatalf("Check() error: %v", err)
	}

	if f.verificationRepo.pending[7] != nil {
		t.Error("pending verification must be deleted on expiry")
	}
	if len(f.scheduler.tasks) != 0 {
		t.Error("no further check must be scheduled after expiry")
	}
	if len(f.notifier.replies) != 1 || !strings.Contains(f.notifier.replies[0], "expired") {
		t.Fatalf("replies = %v, want exactly one expiry notice", f.notifier.replies)
	}
}

func TestCheckWithoutPending(t *testing.T) {
	f := newFixture()
	if err := f.service.Check(context.Background(), 7); err != errs.NoPendingVerification {
		t.Fatalf("Check() = %v, want errs.NoPendingVerification", err)
	}
}

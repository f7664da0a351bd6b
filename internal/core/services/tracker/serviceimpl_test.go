package tracker

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

type fakeStatusRepo struct {
	mu    sync.Mutex
	store map[string][]domain.Submission
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{store: make(map[string][]domain.Submission)}
}

func (r *fakeStatusRepo) GetHandles(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := make([]string, 0, len(r.store))
	for handle := range r.store {
		handles = append(handles, handle)
	}
	sort.Strings(handles)
	return handles, nil
}

func (r *fakeStatusRepo) GetStatus(ctx context.Context, handle string) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.store[handle]
	if !ok {
		return nil, errs.NotFound
	}
	return status, nil
}

func (r *fakeStatusRepo) SaveStatus(ctx context.Context, handle string, status []domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[handle] = status
	return nil
}

func (r *fakeStatusRepo) Remove(ctx context.Context, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, handle)
	return nil
}

type fakeSource struct {
	mu       sync.Mutex
	statuses map[string][]domain.Submission
	contests map[int]*domain.Contest
	errs     map[string]error
	fetches  map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		statuses: make(map[string][]domain.Submission),
		contests: make(map[int]*domain.Contest),
		errs:     make(map[string]error),
		fetches:  make(map[string]int),
	}
}

func (s *fakeSource) GetStatus(ctx context.Context, handle string, count int) ([]domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[handle]++
	if err := s.errs[handle]; err != nil {
		return nil, err
	}
	return s.statuses[handle], nil
}

func (s *fakeSource) GetContest(ctx context.Context, contestID int) (*domain.Contest, error) {
	if contest, ok := s.contests[contestID]; ok {
		return contest, nil
	}
	return nil, errs.NotFound
}

func (s *fakeSource) GetContests(ctx context.Context, phases ...domain.ContestPhase) ([]domain.Contest, error) {
	return nil, nil
}

func (s *fakeSource) GetRatingChanges(ctx context.Context, contestID int) ([]domain.RatingChange, error) {
	return nil, errs.RatingChangesUnavailable
}

func (s *fakeSource) GetUser(ctx context.Context, handle string) (*domain.User, error) {
	return &domain.User{Handle: handle}, nil
}

func (s *fakeSource) GetProblems(ctx context.Context) ([]domain.Problem, error) {
	return nil, nil
}

type fakeNotifier struct {
	messages chan string
	stickers chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		messages: make(chan string, 16),
		stickers: make(chan string, 16),
	}
}

func (n *fakeNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	n.messages <- text
	return nil
}

func (n *fakeNotifier) SendReply(ctx context.Context, chatID int64, text string, replyTo int64) error {
	n.messages <- text
	return nil
}

func (n *fakeNotifier) SendSticker(ctx context.Context, chatID int64, sticker string) error {
	n.stickers <- sticker
	return nil
}

func (n *fakeNotifier) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return nil
}

func (n *fakeNotifier) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	return nil
}
func (n *fakeNotifier) DeclineJoinRequest(ctx context.Context, chatID, userID int64) error {
	return nil
}

func testPollCfg() *config.PollCfg {
	return &config.PollCfg{
		HandleInterval:   time.Millisecond,
		StatusCount:      100,
		ReminderInterval: time.Minute,
	}
}

func newTestService(repo *fakeStatusRepo, source *fakeSource, notifier *fakeNotifier) *TrackerService {
	return NewTrackerService(repo, source, notifier, nopLogger{}, testPollCfg(), 1)
}

func TestDiff(t *testing.T) {
	oldStatus := []domain.Submission{
		{ID: 1, Verdict: domain.VerdictOK, Testset: "TESTS"},
		{ID: 2, Verdict: domain.VerdictTesting, Testset: domain.TestsetPretests, PassedTestCount: 3},
	}
	newStatus := []domain.Submission{
		{ID: 3, Verdict: domain.VerdictOK, Testset: domain.TestsetPretests},
		{ID: 1, Verdict: domain.VerdictOK, Testset: "TESTS"},
		{ID: 2, Verdict: domain.VerdictTesting, Testset: domain.TestsetPretests, PassedTestCount: 9},
	}

	updated := Diff(oldStatus, newStatus)
	if len(updated) != 1 || updated[0].ID != 3 {
		t.Fatalf("Diff() = %+v, want only the unseen submission 3", updated)
	}

	newStatus[2].Verdict = domain.VerdictOK
	updated = Diff(oldStatus, newStatus)
	if len(updated) != 2 || updated[0].ID != 3 || updated[1].ID != 2 {
		t.Fatalf("Diff() = %+v, want submissions 3 and 2 in fetch order", updated)
	}
}

func TestReconcile(t *testing.T) {
	repo := newFakeStatusRepo()
	source := newFakeSource()
	service := newTestService(repo, source, newFakeNotifier())
	ctx := context.Background()

	repo.store["alice"] = nil
	repo.store["bob"] = nil
	source.statuses["carol"] = []domain.Submission{{ID: 7}}

	if err := service.Reconcile(ctx, []string{"bob", "carol"}); err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	handles, _ := service.GetHandles(ctx)
	want := []string{"bob", "carol"}
	if len(handles) != 2 || handles[0] != want[0] || handles[1] != want[1] {
		t.Fatalf("GetHandles() = %v, want %v", handles, want)
	}
	if status := repo.store["carol"]; len(status) != 1 || status[0].ID != 7 {
		t.Fatalf("carol's snapshot = %+v, want her fetched history", status)
	}
	if source.fetches["bob"] != 0 {
		t.Error("an already-tracked handle must not be re-initialized")
	}

	// A second identical reconcile changes nothing.
	if err := service.Reconcile(ctx, []string{"bob", "carol"}); err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if source.fetches["carol"] != 1 {
		t.Errorf("carol fetched %d times, want 1", source.fetches["carol"])
	}
}

func TestReconcileInitFailure(t *testing.T) {
	repo := newFakeStatusRepo()
	source := newFakeSource()
	service := newTestService(repo, source, newFakeNotifier())
	ctx := context.Background()

	repo.store["alice"] = nil
	source.errs["broken"] = errors.New("boom")
	source.statuses["carol"] = []domain.Submission{{ID: 7}}

	err := service.Reconcile(ctx, []string{"broken", "carol"})
	if err == nil {
		t.Fatal("Reconcile() must surface initialization failures")
	}

	handles, _ := service.GetHandles(ctx)
	if len(handles) != 1 || handles[0] != "carol" {
		t.Fatalf("GetHandles() = %v, want carol only: removal and the good init must stick", handles)
	}
}

func TestUpdateStatusAnnouncesVerdictTransition(t *testing.T) {
	repo := newFakeStatusRepo()
	source := newFakeSource()
	notifier := newFakeNotifier()
	service := newTestService(repo, source, notifier)
	ctx := context.Background()

	problem := domain.Problem{ContestID: 1700, Index: "A", Name: "Maximal AND"}
	author := domain.Party{
		ContestID:       1700,
		Members:         []domain.User{{Handle: "alice"}},
		ParticipantType: domain.ParticipantContestant,
	}

	repo.store["alice"] = []domain.Submission{
		{ID: 5, Verdict: domain.VerdictTesting, Testset: domain.TestsetPretests, Problem: problem, Author: author},
	}
	source.statuses["alice"] = []domain.Submission{
		{ID: 5, Verdict: domain.VerdictOK, Testset: domain.TestsetPretests, Problem: problem, Author: author},
	}
	source.contests[1700] = &domain.Contest{ID: 1700, Type: domain.ScoringCF}

	if err := service.updateStatus(ctx, "alice"); err != nil {
		t.Fatalf("updateStatus() error: %v", err)
	}

	select {
	case message := <-notifier.messages:
		if !strings.Contains(message, "solved") {
			t.Errorf("announcement = %q, want a solved message", message)
		}
	case <-time.After(time.Second):
		t.Fatal("no announcement for the verdict transition")
	}
	select {
	case <-notifier.stickers:
	case <-time.After(time.Second):
		t.Fatal("no sticker after the announcement")
	}

	if stored := repo.store["alice"]; len(stored) != 1 || stored[0].Verdict != domain.VerdictOK {
		t.Fatalf("stored snapshot = %+v, want the fresh fetch", stored)
	}
}

func TestUpdateStatusQuietWhenUnchanged(t *testing.T) {
	repo := newFakeStatusRepo()
	source := newFakeSource()
	notifier := newFakeNotifier()
	service := newTestService(repo, source, notifier)
	ctx := context.Background()

	status := []domain.Submission{{ID: 5, Verdict: domain.VerdictOK, Testset: "TESTS"}}
	repo.store["alice"] = status
	source.statuses["alice"] = status

	if err := service.updateStatus(ctx, "alice"); err != nil {
		t.Fatalf("updateStatus() error: %v", err)
	}

	select {
	case message := <-notifier.messages:
		t.Fatalf("unexpected announcement %q for an unchanged snapshot", message)
	case <-time.After(50 * time.Millisecond):
	}
}

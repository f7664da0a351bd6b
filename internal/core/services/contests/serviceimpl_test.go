package contests

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

type fakeCalendar struct {
	upcoming []domain.UpcomingContest
}

func (c *fakeCalendar) GetUpcomingContests(ctx context.Context) ([]domain.UpcomingContest, error) {
	return c.upcoming, nil
}

type fakeNotifier struct {
	messages []string
	stickers []string
}

func (n *fakeNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendReply(ctx context.Context, chatID int64, text string, replyTo int64) error {
	return nil
}

func (n *fakeNotifier) SendSticker(ctx context.Context, chatID int64, sticker string) error {
	n.stickers = append(n.stickers, sticker)
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

func upcoming(event string, startsIn time.Duration) domain.UpcomingContest {
	start := time.Now().Add(startsIn)
	return domain.UpcomingContest{
		Event:    event,
		Href:     "https://codeforces.com/" + event,
		Resource: "codeforces.com",
		Start:    start,
		End:      start.Add(2 * time.Hour),
	}
}

func newTestService(calendar *fakeCalendar, notifier *fakeNotifier) *ContestService {
	cfg := &config.PollCfg{
		HandleInterval:   time.Second,
		StatusCount:      100,
		ReminderInterval: 5 * time.Minute,
	}
	return NewContestService(calendar, notifier, nopLogger{}, cfg, 1)
}

func TestRemindAnnouncesOncePerLead(t *testing.T) {
	calendar := &fakeCalendar{upcoming: []domain.UpcomingContest{
		upcoming("round-900", 12*time.Minute),
		upcoming("round-901", 3*24*time.Hour),
	}}
	notifier := &fakeNotifier{}
	service := newTestService(calendar, notifier)
	ctx := context.Background()

	if err := service.remind(ctx); err != nil {
		t.Fatalf("remind() error: %v", err)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "round-900") {
		t.Fatalf("messages = %v, want one 15-minute reminder", notifier.messages)
	}
	if len(notifier.stickers) != 0 {
		t.Error("no sticker outside the 5-minute call")
	}

	// The next tick inside the same lead window stays quiet.
	if err := service.remind(ctx); err != nil {
		t.Fatalf("remind() error: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("messages = %v, want no duplicate reminder", notifier.messages)
	}
}

func TestRemindFinalCallCarriesSticker(t *testing.T) {
	calendar := &fakeCalendar{upcoming: []domain.UpcomingContest{
		upcoming("round-900", 4*time.Minute),
	}}
	notifier := &fakeNotifier{}
	service := newTestService(calendar, notifier)

	if err := service.remind(context.Background()); err != nil {
		t.Fatalf("remind() error: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("messages = %v, want the final call", notifier.messages)
	}
	if len(notifier.stickers) != 1 {
		t.Fatalf("stickers = %v, want one on the final call", notifier.stickers)
	}
}

func TestMatchLead(t *testing.T) {
	tests := []struct {
		until time.Duration
		lead  time.Duration
		due   bool
	}{
		{until: 70 * time.Minute, due: false},
		{until: 59 * time.Minute, lead: 60 * time.Minute, due: true},
		{until: 12 * time.Minute, lead: 15 * time.Minute, due: true},
		{until: 4 * time.Minute, lead: 5 * time.Minute, due: true},
	}
	for _, tt := range tests {
		lead, due := matchLead(tt.until)
		if due != tt.due || lead != tt.lead {
			t.Errorf("matchLead(%v) = %v, %v; want %v, %v", tt.until, lead, due, tt.lead, tt.due)
		}
	}
}

func TestRemindIgnoresStartedContests(t *testing.T) {
	calendar := &fakeCalendar{upcoming: []domain.UpcomingContest{
		upcoming("round-900", -10*time.Minute),
	}}
	notifier := &fakeNotifier{}
	service := newTestService(calendar, notifier)

	if err := service.remind(context.Background()); err != nil {
		t.Fatalf("remind() error: %v", err)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("messages = %v, want none for a started contest", notifier.messages)
	}
}

func TestListUpcoming(t *testing.T) {
	calendar := &fakeCalendar{upcoming: []domain.UpcomingContest{
		upcoming("round-900", time.Hour),
		upcoming("round-901", 2*time.Hour),
	}}
	service := newTestService(calendar, &fakeNotifier{})

	text, err := service.ListUpcoming(context.Background())
	if err != nil {
		t.Fatalf("ListUpcoming() error: %v", err)
	}
	if !strings.Contains(text, "round-900") || !strings.Contains(text, "round-901") {
		t.Fatalf("listing %q must include both contests", text)
	}

	calendar.upcoming = nil
	text, err = service.ListUpcoming(context.Background())
	if err != nil {
		t.Fatalf("ListUpcoming() error: %v", err)
	}
	if !strings.Contains(text, "No upcoming contests") {
		t.Fatalf("listing %q must say the calendar is empty", text)
	}
}

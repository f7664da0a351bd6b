package digester

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/core/services/contests"
	"github.com/cfwarrior/tgbot/internal/core/services/delta"
	"github.com/cfwarrior/tgbot/internal/core/services/verification"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

// joinRequestGrace is how long an unverified join request stays pending
// before the scheduled decline fires.
const joinRequestGrace = 30 * time.Minute

// Default /select rating window for callers without a bound handle.
const (
	selectDefaultMin = 800
	selectDefaultMax = 3500
)

const helpText = `Available commands:
/select - random problem, e.g. /select tags=dp,graphs rating=1800-2200
/tags - list problem tags
/stalk - profile of your bound handle (or reply to someone)
/contests - upcoming contests
/delta - rating changes for the latest contest
/sign_on &lt;handle&gt; - bind your Codeforces handle
/help - this message`

var _ IDigesterService = &DigesterService{}

type DigesterService struct {
	source              secondary.SubmissionSource
	bindingRepo         secondary.BindingRepository
	notifier            secondary.Notifier
	scheduler           secondary.TaskScheduler
	contestService      contests.IContestService
	deltaService        delta.IDeltaService
	verificationService verification.IVerificationService
	logger              primary.Logger
	chatID              int64
}

// NewDigesterService creates a new digester service
func NewDigesterService(
	source secondary.SubmissionSource,
	bindingRepo secondary.BindingRepository,
	notifier secondary.Notifier,
	scheduler secondary.TaskScheduler,
	contestService contests.IContestService,
	deltaService delta.IDeltaService,
	verificationService verification.IVerificationService,
	logger primary.Logger,
	chatID int64,
) *DigesterService {
	return &DigesterService{
		source:              source,
		bindingRepo:         bindingRepo,
		notifier:            notifier,
		scheduler:           scheduler,
		contestService:      contestService,
		deltaService:        deltaService,
		verificationService: verificationService,
		logger:              logger,
		chatID:              chatID,
	}
}

// Digest routes one Telegram update.
func (s *DigesterService) Digest(ctx context.Context, update *domain.Update) error {
	switch {
	case update.ChatJoinRequest != nil:
		return s.digestJoinRequest(ctx, update.ChatJoinRequest)
	case update.Message != nil && len(update.Message.NewChatMembers) > 0:
		return s.digestNewMembers(ctx, update.Message)
	case update.Message != nil && update.Message.From != nil:
		return s.digestMessage(ctx, update.Message)
	}
	return nil
}

func (s *DigesterService) digestMessage(ctx context.Context, message *domain.ChatMessage) error {
	command, args := parseCommand(message.Text)
	if command == "" {
		return nil
	}

	switch command {
	case "/help":
		return s.reply(ctx, message, helpText)
	case "/tags":
		return s.tags(ctx, message)
	case "/select":
		return s.selectProblem(ctx, message, args)
	case "/stalk":
		return s.stalk(ctx, message)
	case "/contests":
		return s.upcomingContests(ctx, message)
	case "/delta":
		return s.delta(ctx, message)
	case "/sign_on":
		return s.signOn(ctx, message, args)
	}
	return nil
}

// parseCommand extracts the leading bot command and its arguments.
// "@botname" suffixes from group chats are stripped.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	command := fields[0]
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	return command, fields[1:]
}

func (s *DigesterService) tags(ctx context.Context, message *domain.ChatMessage) error {
	problems, err := s.source.GetProblems(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch problems: %w", err)
	}

	seen := make(map[string]bool)
	var tags []string
	for i := range problems {
		for _, tag := range problems[i].Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return s.reply(ctx, message, "Known tags:\n"+strings.Join(tags, ", "))
}

func (s *DigesterService) selectProblem(ctx context.Context, message *domain.ChatMessage, args []string) error {
	filter, err := parseSelectArgs(args)
	if err != nil {
		return s.reply(ctx, message,
			"Usage: /select [tags=a,b] [rating=lo-hi]")
	}

	if filter.minRating == 0 && filter.maxRating == 0 {
		filter.minRating, filter.maxRating = s.suggestedWindow(ctx, message.From.ID)
	}

	problems, err := s.source.GetProblems(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch problems: %w", err)
	}

	var candidates []*domain.Problem
	for i := range problems {
		if filter.matches(&problems[i]) {
			candidates = append(candidates, &problems[i])
		}
	}
	if len(candidates) == 0 {
		return s.reply(ctx, message, "No problem matches those filters.")
	}
	problem := candidates[rand.Intn(len(candidates))]
	return s.reply(ctx, message, problem.String())
}

// suggestedWindow derives a practice rating window from the caller's
// bound handle, slightly above their current rating.
func (s *DigesterService) suggestedWindow(ctx context.Context, userID int64) (int, int) {
	binding, err := s.bindingRepo.GetByUserID(ctx, userID)
	if err != nil || binding == nil {
		return selectDefaultMin, selectDefaultMax
	}
	user, err := s.source.GetUser(ctx, binding.Handle)
	if err != nil || user.Rating == 0 {
		return selectDefaultMin, selectDefaultMax
	}
	lo := user.Rating / 100 * 100
	return lo, lo + 300
}

type selectFilter struct {
	tags      []string
	minRating int
	maxRating int
}

func (f *selectFilter) matches(problem *domain.Problem) bool {
	if problem.Rating < f.minRating || problem.Rating > f.maxRating {
		return false
	}
	for _, want := range f.tags {
		found := false
		for _, tag := range problem.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// parseSelectArgs understands "tags=a,b" and "rating=lo-hi" (or a single
// "rating=x"), separated by spaces or pipes.
func parseSelectArgs(args []string) (*selectFilter, error) {
	filter := &selectFilter{}
	for _, arg := range args {
		for _, token := range strings.Split(arg, "|") {
			if token == "" {
				continue
			}
			key, value, ok := strings.Cut(token, "=")
			if !ok {
				return nil, fmt.Errorf("malformed filter %q", token)
			}
			switch key {
			case "tags":
				for _, tag := range strings.Split(value, ",") {
					if tag = strings.TrimSpace(tag); tag != "" {
						filter.tags = append(filter.tags, tag)
					}
				}
			case "rating":
				lo, hi, err := parseRatingRange(value)
				if err != nil {
					return nil, err
				}
				filter.minRating, filter.maxRating = lo, hi
			default:
				return nil, fmt.Errorf("unknown filter %q", key)
			}
		}
	}
	return filter, nil
}

func parseRatingRange(value string) (int, int, error) {
	if lo, hi, ok := strings.Cut(value, "-"); ok {
		min, err := strconv.Atoi(lo)
		if err != nil {
			return 0, 0, err
		}
		max, err := strconv.Atoi(hi)
		if err != nil {
			return 0, 0, err
		}
		return min, max, nil
	}
	exact, err := strconv.Atoi(value)
	if err != nil {
		return 0, 0, err
	}
	return exact, exact, nil
}

// stalk shows the profile behind the replied-to user's binding, or the
// caller's own when the message is not a reply.
func (s *DigesterService) stalk(ctx context.Context, message *domain.ChatMessage) error {
	target := message.From
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		target = message.ReplyToMessage.From
	}

	binding, err := s.bindingRepo.GetByUserID(ctx, target.ID)
	if err != nil {
		return fmt.Errorf("failed to look up binding: %w", err)
	}
	if binding == nil {
		return s.reply(ctx, message,
			fmt.Sprintf("%s has no bound handle. Use /sign_on to bind one.", target.FirstName))
	}

	user, err := s.source.GetUser(ctx, binding.Handle)
	if errors.Is(err, errs.NotFound) {
		return s.reply(ctx, message, fmt.Sprintf("Codeforces no longer knows %s.", binding.Handle))
	}
	if err != nil {
		return fmt.Errorf("failed to resolve user %s: %w", binding.Handle, err)
	}
	return s.reply(ctx, message, user.String())
}

func (s *DigesterService) upcomingContests(ctx context.Context, message *domain.ChatMessage) error {
	text, err := s.contestService.ListUpcoming(ctx)
	if err != nil {
		return err
	}
	return s.reply(ctx, message, text)
}

// delta kicks off the report out-of-band; building it can take several
// upstream round trips and the webhook must answer fast.
func (s *DigesterService) delta(ctx context.Context, message *domain.ChatMessage) error {
	chatID := message.Chat.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.deltaService.SendDeltaReport(ctx, chatID); err != nil {
			s.logger.Error("Failed to send delta report", "chatId", chatID, "error", err)
		}
	}()
	return nil
}

func (s *DigesterService) signOn(ctx context.Context, message *domain.ChatMessage, args []string) error {
	if len(args) != 1 {
		return s.reply(ctx, message, "Usage: /sign_on &lt;handle&gt;")
	}
	err := s.verificationService.Begin(
		ctx, message.From.ID, args[0], message.Chat.ID, message.MessageID,
	)
	if errors.Is(err, errs.HandleAlreadyBound) {
		// The caller was already told; a claim collision is not a fault.
		return nil
	}
	return err
}

// digestJoinRequest approves members with a bound handle right away.
// Everyone else gets sign-on instructions in DM and a decline scheduled
// after the grace period; completing verification first wins the race
// because approval cancels nothing but makes the decline a no-op.
func (s *DigesterService) digestJoinRequest(ctx context.Context, request *domain.ChatJoinRequest) error {
	binding, err := s.bindingRepo.GetByUserID(ctx, request.From.ID)
	if err != nil {
		return fmt.Errorf("failed to look up binding: %w", err)
	}
	if binding != nil {
		return s.notifier.ApproveJoinRequest(ctx, request.Chat.ID, request.From.ID)
	}

	text := fmt.Sprintf(
		"Hi %s! To join, bind your Codeforces handle with /sign_on &lt;handle&gt; here "+
			"within %s.",
		request.From.FirstName, domain.Duration(joinRequestGrace),
	)
	if err := s.notifier.SendMessage(ctx, request.From.ID, text); err != nil {
		s.logger.Warn("Failed to DM join instructions", "userId", request.From.ID, "error", err)
	}
	if err := s.scheduler.Schedule(
		ctx, secondary.TaskDeclineJoinRequest, request.From.ID, time.Now().Add(joinRequestGrace),
	); err != nil {
		return fmt.Errorf("failed to schedule join request decline: %w", err)
	}
	return nil
}

func (s *DigesterService) digestNewMembers(ctx context.Context, message *domain.ChatMessage) error {
	for i := range message.NewChatMembers {
		member := &message.NewChatMembers[i]
		if member.IsBot {
			continue
		}
		text := fmt.Sprintf("Welcome, %s! Type /help to see what I can do.", member.FirstName)
		if err := s.notifier.SendMessage(ctx, message.Chat.ID, text); err != nil {
			s.logger.Warn("Failed to greet new member", "userId", member.ID, "error", err)
		}
	}
	return nil
}

func (s *DigesterService) reply(ctx context.Context, message *domain.ChatMessage, text string) error {
	if err := s.notifier.SendReply(ctx, message.Chat.ID, text, message.MessageID); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}
